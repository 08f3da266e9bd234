package userinteraction

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"ufunda-orchestrator/internal/application/port/output"
	"ufunda-orchestrator/internal/domain/entity"

	"github.com/fatih/color"
)

var (
	_ output.UserInteractionPort = (*ConsoleUserInteraction)(nil)
	_ output.EventSink           = (*ConsoleUserInteraction)(nil)
)

type ConsoleUserInteraction struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsoleUserInteraction() *ConsoleUserInteraction {
	return NewWriterUserInteraction(color.Output)
}

// NewWriterUserInteraction prints to w instead of stdout.
func NewWriterUserInteraction(w io.Writer) *ConsoleUserInteraction {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleUserInteraction{out: w}
}

func (u *ConsoleUserInteraction) ShowRunStart(ctx context.Context, runID string, bots []string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprintf(u.out, "\n━━━ Run %s ━━━\n", runID)
	color.New(color.Faint).Fprintf(u.out, "   bots: %s\n", strings.Join(bots, ", "))
}

// Publish lets the console follow a run live when subscribed to the event bus.
func (u *ConsoleUserInteraction) Publish(event entity.Event) {
	u.ShowEvent(context.Background(), event)
}

func (u *ConsoleUserInteraction) ShowEvent(ctx context.Context, event entity.Event) {
	icon, c := eventStyle(event.Type)
	if c == nil {
		return
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	c.Fprintf(u.out, "%s [%s] %s", icon, event.Bot, event.Name)
	if event.Message != "" {
		color.New(color.Faint).Fprintf(u.out, " %s", truncate(event.Message, 200))
	}
	fmt.Fprintln(u.out)
}

func (u *ConsoleUserInteraction) ShowReport(ctx context.Context, report entity.Report) {
	u.mu.Lock()
	defer u.mu.Unlock()

	bold := color.New(color.Bold)
	bold.Fprintf(u.out, "\n━━━ Report %s ━━━\n", report.RunID)

	for _, name := range report.Bots() {
		res := report.Results[name]
		statusColor(res.Status).Fprintf(u.out, "%-8s", strings.ToUpper(string(res.Status)))
		fmt.Fprintf(u.out, " %-14s %s", name, truncate(res.Message, 300))
		if res.PaymentStatus != "" {
			color.New(color.Faint).Fprintf(u.out, " [payment %s]", res.PaymentStatus)
		}
		fmt.Fprintln(u.out)
		for _, w := range res.Warnings {
			color.New(color.FgYellow).Fprintf(u.out, "         ⚠ %s\n", w)
		}
	}

	failed := report.Failed()
	duration := report.EndedAt.Sub(report.StartedAt).Round(time.Millisecond)
	summary := fmt.Sprintf("%d bot(s), %d failed, %s", len(report.Results), len(failed), duration)
	if len(failed) > 0 {
		color.New(color.FgRed, color.Bold).Fprintln(u.out, summary)
		return
	}
	color.New(color.FgGreen, color.Bold).Fprintln(u.out, summary)
}

func eventStyle(t entity.EventType) (string, *color.Color) {
	switch t {
	case entity.EventStart:
		return "▶", color.New(color.FgCyan)
	case entity.EventStep:
		return "•", color.New(color.FgBlue)
	case entity.EventWarning:
		return "⚠", color.New(color.FgYellow)
	case entity.EventError:
		return "❌", color.New(color.FgRed)
	case entity.EventResult:
		return "✓", color.New(color.FgGreen)
	default:
		return "", nil
	}
}

func statusColor(s entity.ResultStatus) *color.Color {
	switch s {
	case entity.StatusSuccess:
		return color.New(color.FgGreen, color.Bold)
	case entity.StatusPartial:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ufunda-orchestrator/internal/application/port/output"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ output.LoggerPort = (*LoggerAdapter)(nil)

type LoggerAdapter struct {
	sugar *zap.SugaredLogger
	file  *os.File
	root  bool
}

type Config struct {
	Dir     string
	Name    string
	Level   string
	Console bool
}

func DefaultConfig(name string) Config {
	return Config{
		Dir:     "log",
		Name:    name,
		Level:   "info",
		Console: true,
	}
}

// NewLoggerAdapter writes JSON lines to <Dir>/<timestamp>_<Name>.log and, when Console is set,
// a human-readable copy to stderr.
func NewLoggerAdapter(cfg Config) (*LoggerAdapter, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		level = zapcore.InfoLevel
	}

	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.log", time.Now().Format("2006-01-02_15-04-05"), sanitize(cfg.Name))
	file, err := os.Create(filepath.Join(cfg.Dir, filename))
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.MessageKey = "message"
	encCfg.EncodeTime = zapcore.RFC3339TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), level),
	}
	if cfg.Console {
		consoleCfg := zap.NewDevelopmentEncoderConfig()
		consoleCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stderr), level))
	}

	return &LoggerAdapter{
		sugar: zap.New(zapcore.NewTee(cores...)).Sugar(),
		file:  file,
		root:  true,
	}, nil
}

// NewNop discards everything. Used by tests and by callers that do not care about logs.
func NewNop() *LoggerAdapter {
	return &LoggerAdapter{sugar: zap.NewNop().Sugar()}
}

func (l *LoggerAdapter) Debug(msg string, args ...any) {
	l.sugar.Debugw(msg, args...)
}

func (l *LoggerAdapter) Info(msg string, args ...any) {
	l.sugar.Infow(msg, args...)
}

func (l *LoggerAdapter) Warn(msg string, args ...any) {
	l.sugar.Warnw(msg, args...)
}

func (l *LoggerAdapter) Error(msg string, args ...any) {
	l.sugar.Errorw(msg, args...)
}

func (l *LoggerAdapter) WithField(key string, value any) output.LoggerPort {
	return &LoggerAdapter{
		sugar: l.sugar.With(key, value),
		file:  l.file,
	}
}

func (l *LoggerAdapter) WithFields(fields map[string]any) output.LoggerPort {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &LoggerAdapter{
		sugar: l.sugar.With(args...),
		file:  l.file,
	}
}

// Close flushes and closes the log file. Only the logger returned by NewLoggerAdapter owns it.
func (l *LoggerAdapter) Close() error {
	_ = l.sugar.Sync()
	if !l.root || l.file == nil {
		return nil
	}
	return l.file.Close()
}

func sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, s)
	s = strings.Trim(s, "_")
	if s == "" {
		return "run"
	}
	if len(s) > 60 {
		s = s[:60]
	}
	return s
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"ufunda-orchestrator/internal/adapter/api"
	"ufunda-orchestrator/internal/di"
	"ufunda-orchestrator/internal/domain/entity"
	"ufunda-orchestrator/internal/infrastructure/config"
	"ufunda-orchestrator/internal/infrastructure/env"
	"ufunda-orchestrator/internal/infrastructure/profile"
)

const usage = `usage:
  orchestrator run -profile applicant.yaml [-bots uj,nsfas]
  orchestrator serve [-addr :8080]`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envService := env.NewEnvService()
	cfg, err := config.Load(envService)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	var code int
	switch os.Args[1] {
	case "run":
		code = runCommand(ctx, cfg, envService, os.Args[2:])
	case "serve":
		code = serveCommand(ctx, cfg, envService, os.Args[2:])
	default:
		fmt.Fprintln(os.Stderr, usage)
		code = 2
	}
	os.Exit(code)
}

func runCommand(ctx context.Context, cfg config.Config, envService *env.EnvService, args []string) int {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	profilePath := fs.String("profile", "applicant.yaml", "applicant profile (YAML)")
	botList := fs.String("bots", "", "comma-separated bot names; empty runs every bot")
	_ = fs.Parse(args)

	applicant, err := profile.Load(*profilePath)
	if err != nil {
		log.Printf("Failed to load profile: %v", err)
		return 1
	}

	container, err := di.NewContainer(ctx, cfg, "run")
	if err != nil {
		log.Printf("Initialization failed: %v", err)
		return 1
	}
	defer container.Close()
	envService.LogSources(container.Logger)

	report, err := container.Orchestrator.RunParallelBots(ctx, applicant, splitBots(*botList))
	if err != nil {
		container.Logger.Error("Run rejected", "error", err)
		fmt.Fprintf(os.Stderr, "\n%v\n", err)
		if errors.Is(err, entity.ErrUnknownBot) {
			return 2
		}
		return 1
	}

	if failed := report.Failed(); len(failed) > 0 {
		container.Logger.Warn("Run finished with failures", "run_id", report.RunID, "failed", failed)
		return 1
	}
	container.Logger.Info("Run finished", "run_id", report.RunID)
	return 0
}

func serveCommand(ctx context.Context, cfg config.Config, envService *env.EnvService, args []string) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", cfg.HTTPAddr, "listen address")
	_ = fs.Parse(args)

	container, err := di.NewContainer(ctx, cfg, "serve")
	if err != nil {
		log.Printf("Initialization failed: %v", err)
		return 1
	}
	defer container.Close()
	envService.LogSources(container.Logger)

	router := container.APIHandler().SetupRoutes(container.Hub, api.RequestLogger(cfg.LogLevel))
	server := api.NewServer(api.ServerConfig{Addr: *addr}, router, container.Logger)

	if err := server.Run(ctx); err != nil {
		container.Logger.Error("HTTP server failed", "error", err)
		return 1
	}
	container.Logger.Info("HTTP server stopped")
	return 0
}

func splitBots(list string) []string {
	var names []string
	for _, n := range strings.Split(list, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}

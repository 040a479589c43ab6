package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/tinytelemetry/pulse/internal/config"
	"github.com/tinytelemetry/pulse/internal/fetch"
	"github.com/tinytelemetry/pulse/internal/httpserver"
	"github.com/tinytelemetry/pulse/internal/poller"
	"github.com/tinytelemetry/pulse/internal/store"
	"golang.org/x/sync/errgroup"
)

// runServer loads the targets, starts the per-target schedules and serves
// the metrics endpoint until interrupted.
func runServer(cfg appConfig) error {
	cleanupLogger := configureRuntimeLogger(cfg.LogFile)
	defer cleanupLogger()

	targets, err := config.Load(cfg.TargetsFile)
	if err != nil {
		return fmt.Errorf("loading targets: %w", err)
	}

	st := store.New()
	client := fetch.NewClient(cfg.FetchTimeout, version)
	runner := poller.NewRunner(targets, client, st)

	srv := httpserver.NewServer(cfg.Address, st, len(targets))
	if err := srv.Start(); err != nil {
		return fmt.Errorf("starting HTTP server: %w", err)
	}
	defer srv.Stop()

	// Set up context and signal handling before errgroup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down gracefully... (press Ctrl+C again to force)")
		cancel()

		// Shutdown deadline starts now — not at boot.
		deadline := time.NewTimer(10 * time.Second)
		defer deadline.Stop()

		select {
		case <-sigCh:
			fmt.Println("\nForce shutdown.")
		case <-deadline.C:
			fmt.Println("Shutdown timed out, forcing exit.")
		}
		os.Exit(1)
	}()

	printStartupBanner(cfg, len(targets))

	// Use errgroup for concurrent goroutine lifecycle management. The
	// runner is driven by the group context so an HTTP server failure
	// cancels the schedules as well.
	g, gctx := errgroup.WithContext(ctx)

	runner.Start(gctx, cfg.ScrapeOnStartup)

	g.Go(func() error {
		runner.Wait()
		return nil
	})

	// Propagate an unexpected HTTP server failure; otherwise wait for
	// cancellation from the signal handler.
	g.Go(func() error {
		select {
		case err := <-srv.ServeErr():
			return fmt.Errorf("http server: %w", err)
		case <-gctx.Done():
			return nil
		}
	})

	err = g.Wait()
	if err != nil {
		log.Printf("server: errgroup exited with error: %v", err)
	}

	cancel()

	// If we reach here, graceful shutdown succeeded within the deadline.
	// The signal goroutine (if active) dies with the process.
	signal.Stop(sigCh)

	return err
}

func configureRuntimeLogger(logPath string) func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if logPath == "" {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.SetOutput(os.Stderr)
		log.Printf("server: cannot open log file %s: %v", logPath, err)
		return func() {}
	}

	log.SetOutput(f)
	return func() {
		_ = f.Close()
	}
}

func printStartupBanner(cfg appConfig, targetCount int) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")

	logo := cyan.Bold(true).Render(`
    ╔═╗╦ ╦╦  ╔═╗╔═╗
    ╠═╝║ ║║  ╚═╗║╣
    ╩  ╚═╝╩═╝╚═╝╚═╝`)

	ver := dim.Render("v" + version)

	var lines []string
	lines = append(lines, "")
	lines = append(lines, logo)
	lines = append(lines, "    "+ver)
	lines = append(lines, "")

	separator := dim.Render("    ─────────────────────────────────")
	lines = append(lines, separator)
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Exporter"))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("    %s  Metrics        %s", check, cyan.Render("http://"+cfg.Address+"/metrics")))
	lines = append(lines, fmt.Sprintf("    %s  Targets        %s", check, cyan.Render(fmt.Sprintf("%d scheduled", targetCount))))

	if cfg.ScrapeOnStartup {
		lines = append(lines, fmt.Sprintf("    %s  Initial Scrape %s", check, dim.Render("enabled")))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Initial Scrape %s", dot, dim.Render("disabled")))
	}

	lines = append(lines, "")
	lines = append(lines, bold.Render("    Config"))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("    %s  Targets File   %s", check, dim.Render(cfg.TargetsFile)))
	if cfg.ConfigPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", check, dim.Render(cfg.ConfigPath)))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", dot, dim.Render("default (no file)")))
	}

	lines = append(lines, "")
	lines = append(lines, separator)
	lines = append(lines, "")
	lines = append(lines, "    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop"))
	lines = append(lines, "")

	fmt.Println(strings.Join(lines, "\n"))
}

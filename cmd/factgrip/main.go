package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"factgrip/internal/config"
	"factgrip/internal/eventbus"
	"factgrip/internal/factsapi"
	"factgrip/internal/logger"
	"factgrip/internal/ui"
)

// app holds the flags shared by every command
type app struct {
	configPath string
	apiURL     string
	logLevel   string
	jsonOut    bool
	count      int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "factgrip",
		Short:         "Browse and search facts from the terminal",
		Long:          `factgrip is a terminal client for a facts service: type to get title suggestions, search by query or pull random facts.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          a.runTUI,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	root.PersistentFlags().StringVar(&a.apiURL, "api", "", "facts service base URL, e.g. http://localhost:8080/api")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(a.randomCmd(), a.searchCmd(), a.titleCmd(), a.suggestCmd())
	return root
}

// loadConfig reads the config file and applies environment and flag
// overrides. On a read error the defaults are returned with the error.
func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.NewConfigService(a.configPath, nil).Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}

	cfg.ApplyEnv()
	if a.apiURL != "" {
		cfg.API.BaseURL = strings.TrimRight(a.apiURL, "/")
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	return cfg, err
}

func newClient(cfg *config.Config, l *log.Logger) *factsapi.Client {
	return factsapi.New(cfg.API.BaseURL,
		factsapi.WithTimeout(cfg.Timeout()),
		factsapi.WithSuggestionSize(cfg.API.SuggestionSize),
		factsapi.WithLogger(l),
	)
}

// runTUI starts the interactive interface. The TUI owns the terminal, so
// logs go to the configured file.
func (a *app) runTUI(cmd *cobra.Command, _ []string) error {
	cfg, loadErr := a.loadConfig()

	var out io.Writer = io.Discard
	logFile, err := logger.OpenFile(cfg.Log.File)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Could not open log file: %v\n", err)
	} else {
		defer logFile.Close()
		out = logFile
	}
	l := logger.New(out, "factgrip", logger.ParseLevel(cfg.Log.Level))
	if loadErr != nil {
		l.Error("Error loading config, using defaults", "err", loadErr)
	}

	// Create context for graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := eventbus.New(l)
	defer bus.Close()

	configSvc := config.NewConfigService(a.configPath, bus)
	subscribeHistory(bus, configSvc, l)
	subscribeFetchLog(bus, l)

	model := ui.NewModel(ctx, bus, cfg, newClient(cfg, l), l)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	model.SetProgram(p)

	// Set up event forwarding to UI
	eventChan := make(chan eventbus.DomainEvent, 100)
	bus.Subscribe(eventbus.EventConfigSaved, func(e eventbus.DomainEvent) {
		select {
		case eventChan <- e:
		default:
			l.Warn("Event channel full, dropping event", "type", e.Type())
		}
	})
	go func() {
		for event := range eventChan {
			p.Send(ui.EventMsg{Event: event})
		}
	}()

	l.Info("Starting", "api", cfg.API.BaseURL, "config", configSvc.Path())
	_, err = p.Run()

	// Cleanup: flush pending saves before the channel goes away
	bus.Close()
	close(eventChan)

	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

// subscribeHistory persists recent queries whenever the UI changes them.
// Only the recent list is written: the rest comes from the file as it is on
// disk, so env and flag overrides never reach it. A file that cannot be read
// is left alone.
func subscribeHistory(bus eventbus.EventBus, svc config.ConfigService, l *log.Logger) {
	var mu sync.Mutex // handlers run concurrently; one writer at a time
	bus.Subscribe(eventbus.EventConfigChanged, func(e eventbus.DomainEvent) {
		event, ok := e.(eventbus.ConfigChangedEvent)
		if !ok {
			return
		}
		mu.Lock()
		defer mu.Unlock()

		saved, err := svc.LoadFromPath(svc.Path())
		switch {
		case errors.Is(err, fs.ErrNotExist):
			saved = config.DefaultConfig()
		case err != nil:
			l.Warn("Config file unreadable, not saving recent queries", "path", svc.Path(), "err", err)
			return
		}

		saved.History.Recent = event.Recent
		if err := svc.Save(saved); err != nil {
			l.Error("Failed to save config", "path", svc.Path(), "err", err)
		}
	})
}

func subscribeFetchLog(bus eventbus.EventBus, l *log.Logger) {
	bus.Subscribe(eventbus.EventQuerySubmitted, func(e eventbus.DomainEvent) {
		if event, ok := e.(eventbus.QuerySubmittedEvent); ok {
			l.Debug("Query submitted", "kind", event.Kind, "query", event.Query)
		}
	})
	bus.Subscribe(eventbus.EventFactsLoaded, func(e eventbus.DomainEvent) {
		if event, ok := e.(eventbus.FactsLoadedEvent); ok {
			l.Info("Facts loaded", "kind", event.Kind, "query", event.Query, "count", event.Count, "requested", event.Requested)
		}
	})
}

// commandContext returns a context cancelled on SIGINT or SIGTERM
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
}

// cmd/kondate/main.go
//
// This is the entry point for the kondate CLI.
//
// Running `kondate` with no subcommand opens the terminal UI. The create,
// show and toggle subcommands drive the same plan store without a UI, and
// serve-fake runs an in-memory plan server for local development.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kingrea/kondate/internal/api"
	"github.com/kingrea/kondate/internal/config"
	"github.com/kingrea/kondate/internal/logbook"
	"github.com/kingrea/kondate/internal/logging"
	"github.com/kingrea/kondate/internal/store"
	"github.com/kingrea/kondate/internal/tui"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "kondate",
		Short:         "Plan the meals you will cook and tick off the shopping list",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runTUI,
	}
	rootCmd.PersistentFlags().String("dir", "", "project directory holding .kondate (defaults to cwd)")
	rootCmd.PersistentFlags().String("api-url", "", "plan API base URL (overrides config)")
	rootCmd.Flags().String("plan", "", "open the result screen for this plan id")

	rootCmd.AddCommand(createCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(toggleCmd())
	rootCmd.AddCommand(serveFakeCmd())
	return rootCmd
}

// environment is the wiring shared by every command.
type environment struct {
	cfg     *config.Config
	journal *logbook.Logbook
	apiLog  *logging.Logger
	client  *api.Client
	store   *store.Store
}

func setup(cmd *cobra.Command) (*environment, error) {
	dir, _ := cmd.Flags().GetString("dir")
	if strings.TrimSpace(dir) == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determine working directory: %w", err)
		}
		dir = cwd
	}
	projectDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve project dir: %w", err)
	}
	if err := config.InitDir(projectDir); err != nil {
		return nil, fmt.Errorf("init .kondate: %w", err)
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if url, _ := cmd.Flags().GetString("api-url"); strings.TrimSpace(url) != "" {
		if err := cfg.SetBaseURL(url); err != nil {
			return nil, err
		}
	}
	journal, err := logbook.New(cfg.JourneyLogPath())
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	apiLog, err := logging.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("open api log: %w", err)
	}
	client := api.New(cfg.BaseURL(),
		api.WithTimeout(cfg.Timeout()),
		api.WithLogger(apiLog),
	)
	return &environment{
		cfg:     cfg,
		journal: journal,
		apiLog:  apiLog,
		client:  client,
		store:   store.New(client, store.WithJournal(journal)),
	}, nil
}

func (e *environment) Close() {
	if e == nil {
		return
	}
	_ = e.apiLog.Close()
}

func runTUI(cmd *cobra.Command, _ []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	path := "/"
	if id, _ := cmd.Flags().GetString("plan"); strings.TrimSpace(id) != "" {
		path = tui.PlanRoute(id).Path()
	}
	app := tui.NewApp(env.store,
		tui.WithConfig(env.cfg),
		tui.WithLogbook(env.journal),
		tui.WithContext(cmd.Context()),
		tui.WithInitialPath(path),
	)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run TUI: %w", err)
	}
	return nil
}

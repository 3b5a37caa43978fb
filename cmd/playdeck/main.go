// Package main provides the playdeck entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/mtak/playdeck/internal/app/binder"
	"github.com/mtak/playdeck/internal/app/library"
	"github.com/mtak/playdeck/internal/app/player"
	"github.com/mtak/playdeck/internal/infra/audio"
	"github.com/mtak/playdeck/internal/infra/config"
	"github.com/mtak/playdeck/internal/infra/logger"
	"github.com/mtak/playdeck/internal/infra/metadata"
	"github.com/mtak/playdeck/internal/infra/store"
	"github.com/mtak/playdeck/internal/tui"
)

var (
	app        = kingpin.New("playdeck", "playdeck terminal audio player")
	configPath = app.Flag("config", "Path to config file").Default("config/playdeck.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: <data_dir>/playdeck.log)").String()
	files      = app.Arg("files", "Audio files to import before starting").Strings()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.EnsureDirs(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to prepare data dir: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger. The TUI owns the terminal, so logs go to a file
	// unless explicitly redirected.
	loggerConfig := logger.Config{
		Output: cfg.Log.Output,
		Level:  cfg.Log.Level,
		File:   cfg.Log.File,
	}
	if loggerConfig.File == "" {
		loggerConfig.File = cfg.DataDir + "/playdeck.log"
		loggerConfig.Output = loggerConfig.File
	}
	// Override with command-line flags if specified
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
		loggerConfig.File = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// Run player (defer ensures shutdown hooks are called)
	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Player error: %v", err)
		fmt.Fprintf(os.Stderr, "playdeck: %v\n", err)
		os.Exit(1)
	}
}

// run executes the main player logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx := context.Background()

	// Open catalog store
	zlog.Info().Msgf("Opening %s catalog", cfg.Store.Backend)
	st, err := store.New(store.Config{
		Backend:  cfg.Store.Backend,
		Settings: cfg.Store.Settings,
	})
	if err != nil {
		return fmt.Errorf("failed to open catalog store: %w", err)
	}
	defer st.Close()

	// Create state machine and collaborators
	machine := player.NewMachine()
	engine := audio.NewEngine()
	defer engine.Close()

	extractor := metadata.NewExtractor(cfg.Library.CoverDir)
	lib := library.NewService(st, extractor, machine, cfg.Library.KeepBlobs)

	// Restore catalog and last session state
	if err := lib.Hydrate(ctx); err != nil {
		return fmt.Errorf("failed to restore catalog: %w", err)
	}

	// Import files passed on the command line
	if len(*files) > 0 {
		imported, err := lib.ImportFiles(ctx, *files)
		if err != nil {
			zlog.Warn().Msgf("Import finished with errors: %v", err)
		}
		zlog.Info().Msgf("Imported %d tracks", len(imported))
	}

	// Start the state-to-engine binder
	bindCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	bnd := binder.New(machine, engine, lib)
	go bnd.Run(bindCtx)
	defer bnd.Close()

	// Run the UI; it blocks until the user quits
	model := tui.NewModel(machine, engine, lib, cfg.Player)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("ui error: %w", err)
	}

	// Persist the final playlist and preferences
	if err := lib.SaveSnapshot(ctx); err != nil {
		zlog.Error().Msgf("Failed to save session snapshot: %v", err)
	}

	zlog.Info().Msg("Player stopped")
	return nil
}

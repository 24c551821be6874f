package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/justchokingaround/playkit/internal/config"
	"github.com/justchokingaround/playkit/internal/history"
	"github.com/justchokingaround/playkit/internal/mpris"
	"github.com/justchokingaround/playkit/internal/tui"
	backendmpv "github.com/justchokingaround/playkit/pkg/backend/mpv"
	"github.com/justchokingaround/playkit/pkg/captions"
	"github.com/justchokingaround/playkit/pkg/playback"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// Global flags
	cfgFile   string
	logLevel  string
	debugMode bool

	// Global config and logger
	cfg    *config.Config
	logger *slog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "playkit",
	Short: "A terminal media player built around mpv",
	Long: `playkit plays local files, network streams, and bundled assets
through mpv, with watch history, resume support, external captions,
and desktop media key integration.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for config init command
		if cmd.Name() == "init" && cmd.Parent() != nil && cmd.Parent().Name() == "config" {
			return nil
		}

		if err := config.InitializeDirs(); err != nil {
			return fmt.Errorf("failed to initialize directories: %w", err)
		}

		var err error
		var v *viper.Viper
		cfg, v, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if debugMode {
			cfg.Advanced.Debug = true
			if logLevel == "" {
				cfg.Logging.Level = "debug"
			}
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}

		logger, err = config.InitLogger(&cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		// Hot reload: settings picked up by the next session.
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			logger.Info("config file changed", "name", e.Name)
			if err := v.Unmarshal(&cfg); err != nil {
				logger.Error("failed to reload config", "error", err)
			}
		})

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/playkit/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug mode (verbose logging, mpv output)")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

var playCmd = &cobra.Command{
	Use:   "play <file-or-url>",
	Short: "Play a local file or network stream",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		subPath, _ := cmd.Flags().GetString("sub")
		noResume, _ := cmd.Flags().GetBool("no-resume")
		noMpris, _ := cmd.Flags().GetBool("no-mpris")

		src, err := resolveSource(args[0])
		if err != nil {
			return err
		}
		if title == "" {
			title = defaultTitle(src)
		}

		return runPlayback(cmd.Context(), src, title, subPath, noResume, noMpris)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [query]",
	Short: "Show or search watch history",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		clear, _ := cmd.Flags().GetBool("clear")
		limit, _ := cmd.Flags().GetInt("limit")

		db, err := history.Open(cfg.HistoryDatabasePath())
		if err != nil {
			return err
		}
		defer history.Close(db)
		svc := history.NewService(db)

		if clear {
			if err := svc.Clear(); err != nil {
				return err
			}
			fmt.Println("History cleared.")
			return nil
		}

		var entries []history.Entry
		if len(args) == 1 {
			entries, err = svc.Search(args[0])
		} else {
			entries, err = svc.Recent(limit)
		}
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No history entries.")
			return nil
		}

		for _, e := range entries {
			status := fmt.Sprintf("%3.0f%%", e.ProgressPercent)
			if e.Completed {
				status = "done"
			}
			title := e.Title
			if title == "" {
				title = e.Locator
			}
			fmt.Printf("%-40s  %s  %s\n", title, status, humanize.Time(e.WatchedAt))
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := cfgFile
		if configPath == "" {
			configPath = filepath.Join(config.ConfigDir(), "config.yaml")
		}

		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s", configPath)
		}
		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := config.SaveDefaultConfig(configPath); err != nil {
			return fmt.Errorf("failed to save default configuration: %w", err)
		}

		fmt.Printf("Default configuration generated at: %s\n", configPath)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Display configuration file path",
	Run: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			fmt.Println(cfgFile)
		} else {
			fmt.Println(filepath.Join(config.ConfigDir(), "config.yaml"))
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("playkit version %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
	},
}

func init() {
	playCmd.Flags().StringP("title", "t", "", "display title (default: derived from the source)")
	playCmd.Flags().StringP("sub", "s", "", "caption file or URL (SRT or WebVTT)")
	playCmd.Flags().Bool("no-resume", false, "start from the beginning even if history has progress")
	playCmd.Flags().Bool("no-mpris", false, "skip desktop media key integration")

	historyCmd.Flags().Int("limit", 20, "maximum entries to show (0 = all)")
	historyCmd.Flags().Bool("clear", false, "delete all history entries")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

// resolveSource classifies the argument as a URL or a local file.
func resolveSource(arg string) (playback.Source, error) {
	if u, err := url.Parse(arg); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return playback.NetworkSource(arg, guessFormat(u.Path)), nil
	}
	abs, err := filepath.Abs(arg)
	if err != nil {
		return playback.Source{}, fmt.Errorf("resolving path: %w", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return playback.Source{}, fmt.Errorf("cannot read %s: %w", arg, err)
	}
	return playback.FileSource(abs), nil
}

func guessFormat(path string) playback.FormatHint {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".m3u8":
		return playback.FormatHLS
	case ".mpd":
		return playback.FormatDASH
	case ".ism", ".isml":
		return playback.FormatSmoothStreaming
	default:
		return playback.FormatAuto
	}
}

func defaultTitle(src playback.Source) string {
	if src.Kind == playback.SourceFile {
		return filepath.Base(src.Locator)
	}
	return src.Locator
}

// runPlayback wires backend, controller, history, captions, MPRIS,
// and the TUI together for one session.
func runPlayback(ctx context.Context, src playback.Source, title, subPath string, noResume, noMpris bool) error {
	backend, err := backendmpv.New(backendmpv.Config{
		Executable:     cfg.Player.Executable,
		AssetsDir:      cfg.Player.AssetsDir,
		LoadUserConfig: cfg.Player.LoadUserConfig,
		Fullscreen:     cfg.Player.Fullscreen,
		ExtraArgs:      cfg.Player.ExtraArgs,
		Debug:          cfg.Advanced.Debug,
	}, logger)
	if err != nil {
		return err
	}

	opts := []playback.Option{
		playback.WithLogger(logger),
		playback.WithMixWithOthers(cfg.Player.MixWithOthers),
	}
	if subPath != "" {
		opts = append(opts, playback.WithCaptionLoader(captionLoader(subPath)))
	}

	controller := playback.New(backend, src, opts...)

	disposeCtx := context.Background()
	defer func() {
		ctx, cancel := context.WithTimeout(disposeCtx, 5*time.Second)
		defer cancel()
		if err := controller.Dispose(ctx); err != nil {
			logger.Warn("dispose failed", "error", err)
		}
	}()

	// Initial intent is queued before initialization and applied as
	// soon as the session is ready.
	_ = controller.SetVolume(ctx, cfg.Player.Volume)
	_ = controller.SetLooping(ctx, cfg.Player.Looping)
	if cfg.Player.Speed != 1.0 {
		_ = controller.SetPlaybackSpeed(ctx, cfg.Player.Speed)
	}
	_ = controller.Play(ctx)

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := controller.Initialize(initCtx); err != nil {
		return fmt.Errorf("failed to open %s: %w", src.Locator, err)
	}

	var svc *history.Service
	if cfg.History.Enabled {
		db, err := history.Open(cfg.HistoryDatabasePath())
		if err != nil {
			logger.Warn("history unavailable", "error", err)
		} else {
			defer history.Close(db)
			svc = history.NewService(db)
		}
	}

	if svc != nil {
		if !noResume {
			if entry, err := svc.Resume(src.Locator); err == nil && entry != nil {
				pos := time.Duration(entry.PositionSeconds) * time.Second
				logger.Info("resuming", "position", pos)
				_ = controller.SeekTo(ctx, pos)
			}
		}
		interval := time.Duration(cfg.History.SaveInterval) * time.Second
		recorder := history.NewRecorder(svc, src, title, interval, logger)
		defer recorder.Attach(controller)()
	}

	if !noMpris {
		if bridge, err := mpris.Register(controller, title, logger); err != nil {
			logger.Debug("mpris unavailable", "error", err)
		} else {
			defer bridge.Close()
		}
	}

	model := tui.New(controller, title)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("ui error: %w", err)
	}
	return nil
}

// captionLoader picks a network or file loader depending on the
// caption path.
func captionLoader(path string) playback.CaptionLoader {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return captions.NewNetworkLoader(path)
	}
	return captions.NewFileLoader(path)
}

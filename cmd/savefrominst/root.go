package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gorobchenkoann/save-from-inst/pkg/auth"
	"github.com/gorobchenkoann/save-from-inst/pkg/config"
	"github.com/gorobchenkoann/save-from-inst/pkg/history"
	"github.com/gorobchenkoann/save-from-inst/pkg/logger"
	"github.com/gorobchenkoann/save-from-inst/pkg/scraper"
	"github.com/gorobchenkoann/save-from-inst/pkg/ui"
	"github.com/gorobchenkoann/save-from-inst/pkg/ui/tui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	logLevel      string
	logFile       string
	accountName   string
	outputDir     string
	theme         string
	concurrent    int
	rateLimit     int
	fetchTimeout  time.Duration
	noHistory     bool
	notifications bool
)

// rootCmd runs the interactive shell when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "save-from-inst",
	Short: "Look up and download the media of an Instagram post",
	Long: `save-from-inst opens an interactive shell: paste the link to an Instagram
post and it shows whether the post is an image, a video or a carousel, with
the URL of every item. Press ctrl+d to download the files.

Keys:
  enter    fetch the pasted URL
  tab      select the whole input
  ctrl+d   download the displayed media
  ctrl+t   switch between dark and light theme
  esc      quit`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Args:    cobra.NoArgs,
	Run:     runShell,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "config file (default is ./.savefrominst.yaml or ~/.config/save-from-inst/config.yaml)")
	flags.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error, disabled)")
	flags.StringVar(&logFile, "log-file", "", "write logs to this file")
	flags.StringVarP(&accountName, "account", "a", "", "use a specific stored account")
	flags.StringVarP(&outputDir, "output", "o", "", "output directory for downloads")
	flags.StringVar(&theme, "theme", "", "color theme (dark, light)")
	flags.IntVar(&concurrent, "concurrent", 3, "number of concurrent downloads")
	flags.IntVar(&rateLimit, "rate-limit", 30, "requests per minute")
	flags.DurationVar(&fetchTimeout, "timeout", 30*time.Second, "per-request timeout")
	flags.BoolVar(&noHistory, "no-history", false, "do not record lookups in the history")
	flags.BoolVar(&notifications, "notifications", false, "send a desktop notification when a download finishes")

	rootCmd.SetVersionTemplate(`save-from-inst {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// flagOverrides collects the global flags the user actually set
func flagOverrides(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	changed := cmd.Flags().Changed

	if changed("log-level") {
		flags["log-level"] = logLevel
	}
	if changed("log-file") {
		flags["log-file"] = logFile
	}
	if changed("account") {
		flags["account"] = accountName
	}
	if changed("output") {
		flags["output"] = outputDir
	}
	if changed("theme") {
		flags["theme"] = theme
	}
	if changed("concurrent") {
		flags["concurrent"] = concurrent
	}
	if changed("rate-limit") {
		flags["rate-limit"] = rateLimit
	}
	if changed("timeout") {
		flags["timeout"] = fetchTimeout
	}
	if changed("no-history") {
		flags["no-history"] = noHistory
	}
	if changed("notifications") {
		flags["notifications"] = notifications
	}
	return flags
}

// loadConfig loads the configuration and applies stored credentials
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile, flagOverrides(cmd))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyCredentials fills the session cookies from the credential store when
// none were configured. Credentials are optional: public posts work without.
func applyCredentials(cfg *config.Config, log logger.Logger) error {
	manager, err := auth.NewManager()
	if err != nil {
		log.WithError(err).Debug("Credential manager unavailable")
		if cfg.Instagram.Account != "" {
			return fmt.Errorf("failed to initialize credential manager: %w", err)
		}
		return nil
	}

	applied, err := manager.ApplyTo(cfg)
	if err != nil {
		return err
	}
	if applied {
		log.Debug("Using stored session cookies")
	}
	return nil
}

// newScraper builds a scraper with history and notifications as
// configured. The returned cleanup closes the history store.
func newScraper(ctx context.Context, cfg *config.Config, log logger.Logger) (*scraper.Scraper, func(), error) {
	opts := []scraper.Option{scraper.WithNotifier(ui.NewNotifier(log))}
	cleanup := func() {}

	if cfg.History.Enabled {
		path, err := cfg.HistoryPath()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve history path: %w", err)
		}
		store, err := history.Open(ctx, path)
		if err != nil {
			// The shell still works without history
			log.WithError(err).WithField("path", path).Warn("History disabled")
		} else {
			opts = append(opts, scraper.WithHistory(store))
			cleanup = func() { store.Close() }
		}
	}

	s, err := scraper.New(cfg, log, opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return s, cleanup, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runShell(cmd *cobra.Command, args []string) {
	out := ui.Stdout()

	cfg, err := loadConfig(cmd)
	if err != nil {
		out.Error("Failed to load configuration", err)
		os.Exit(1)
	}

	// The shell owns the terminal, so logs go to a file
	if cfg.Logging.File == "" {
		if dir, err := config.DataDir(); err == nil {
			cfg.Logging.File = filepath.Join(dir, config.AppName+".log")
		} else {
			cfg.Logging.Level = "disabled"
		}
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		out.Error("Failed to initialize logging", err)
		os.Exit(1)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("save-from-inst starting")

	if err := applyCredentials(cfg, log); err != nil {
		out.Error("Failed to load credentials", err)
		os.Exit(1)
	}

	ctx, stop := signalContext()

	s, cleanup, err := newScraper(ctx, cfg, log)
	if err != nil {
		out.Error("Failed to initialize", err)
		exitIfFailed(err, stop)
		return
	}

	err = tui.Run(ctx, s, tui.ParseTheme(cfg.UI.Theme), log)
	if err != nil {
		log.WithError(err).Error("Shell exited with error")
		out.Error("Interactive shell failed", err)
	} else {
		log.Info("save-from-inst stopped")
	}
	exitIfFailed(err, stop, cleanup)
}

// osExit is replaced in tests
var osExit = os.Exit

// exitIfFailed runs cleanups in reverse order and then exits with status 1
// when err is set. Deferred calls do not run after os.Exit, so commands that
// hold resources finish through here.
func exitIfFailed(err error, cleanups ...func()) {
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
	if err != nil {
		osExit(1)
	}
}

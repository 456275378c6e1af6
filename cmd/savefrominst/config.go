package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gorobchenkoann/save-from-inst/pkg/config"
	"github.com/gorobchenkoann/save-from-inst/pkg/ui"
)

const defaultConfigPath = ".savefrominst.yaml"

var configForce bool

// configCmd groups the configuration commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage save-from-inst configuration.

Configuration is loaded from (highest priority first):
  - Command line flags
  - Environment variables (SAVEFROMINST_*), also read from .env
  - Configuration file
  - Default values`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default values",
	Long: `Write a configuration file with every option set to its default.

The file is created as '.savefrominst.yaml' in the current directory unless
a different path is given with --config.`,
	Args: cobra.NoArgs,
	Run:  runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging all sources. Session cookies are
masked.`,
	Args: cobra.NoArgs,
	Run:  runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	Run:   runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)

	initCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) {
	out := ui.Stdout()

	path := configFile
	if path == "" {
		path = defaultConfigPath
	}

	if _, err := os.Stat(path); err == nil && !configForce {
		out.Error("Configuration file already exists: "+path, nil)
		fmt.Println("Use --force to overwrite it.")
		os.Exit(1)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		out.Error("Failed to create configuration file", err)
		os.Exit(1)
	}

	out.Success("Configuration file created: " + path)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Edit the file, for example to change output.base_directory or ui.theme")
	fmt.Println("2. Run 'save-from-inst config validate' to check it")
	fmt.Println("3. Run 'save-from-inst' and paste a post URL")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	out := ui.Stdout()

	cfg, err := loadConfig(cmd)
	if err != nil {
		out.Error("Failed to load configuration", err)
		os.Exit(1)
	}

	display := *cfg
	display.Instagram.SessionID = mask(display.Instagram.SessionID)
	display.Instagram.CSRFToken = mask(display.Instagram.CSRFToken)

	data, err := yaml.Marshal(&display)
	if err != nil {
		out.Error("Failed to format configuration", err)
		os.Exit(1)
	}

	out.Highlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	out := ui.Stdout()

	if configFile != "" {
		out.Info("Validating configuration", configFile)
	} else {
		out.Info("Validating configuration", "defaults, environment and discovered files")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		out.Error("Configuration is invalid", err)
		os.Exit(1)
	}

	var warnings []string
	if err := os.MkdirAll(cfg.Output.BaseDirectory, 0755); err != nil {
		warnings = append(warnings, fmt.Sprintf("cannot create output directory: %v", err))
	}
	if cfg.History.Enabled {
		if _, err := cfg.HistoryPath(); err != nil {
			warnings = append(warnings, fmt.Sprintf("cannot resolve history path: %v", err))
		}
	}
	if cfg.Instagram.SessionID == "" {
		warnings = append(warnings, "no session cookies configured; only public posts can be looked up")
	}

	for _, w := range warnings {
		out.Warning("warning: " + w)
	}
	out.Success("Configuration is valid")
}

// mask hides all but the ends of a secret
func mask(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) > 8:
		return s[:4] + "..." + s[len(s)-4:]
	default:
		return "***"
	}
}

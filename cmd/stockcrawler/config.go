package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"stockcrawler/pkg/auth"
	"stockcrawler/pkg/config"
	"stockcrawler/pkg/ui"
)

// defaultConfigPath is where config init writes when --config is not given
const defaultConfigPath = ".stockcrawler.yaml"

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage stockcrawler configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (STOCKCRAWLER_*, also read from .env)
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file with the default values",
	Long: `Create a configuration file holding every option at its default value.

The file is created as '.stockcrawler.yaml' in the current directory unless a
different path is given with the --config flag. API keys are never written to
the file; store them with 'stockcrawler auth set-key'.`,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE:  runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Validate the effective configuration and check that the paths it names are usable.

This command checks:
  - YAML syntax
  - Value ranges and known provider/backend names
  - Symbol file presence
  - Output, checkpoint and log directories`,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = defaultConfigPath
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := config.DefaultConfig().Save(configPath); err != nil {
		return err
	}

	console := newConsole()
	console.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Edit the file to pick a provider and symbol file")
	fmt.Println("2. Run 'stockcrawler config validate' to check it")
	fmt.Println("3. Start crawling with 'stockcrawler crawl'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, globalFlags(cmd))
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	console := newConsole()
	fmt.Print(string(data))

	fmt.Println()
	if cfg.Provider.AlphaVantage.APIKey != "" {
		console.PrintInfo("Alpha Vantage API key (environment)", auth.MaskKey(cfg.Provider.AlphaVantage.APIKey))
	}

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Printf("2. Environment variables (%s*)\n", config.EnvPrefix)
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (searched in default locations)")
	}
	fmt.Println("4. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	console := newConsole()
	if configFile != "" {
		console.PrintInfo("Validating configuration", configFile)
	}

	cfg, err := config.Load(configFile, globalFlags(cmd))
	if err != nil {
		return err
	}

	warnings, problems := checkPaths(cfg)
	for _, w := range warnings {
		console.PrintWarning("Warning", w)
	}
	for _, p := range problems {
		console.PrintError("Error", p)
	}
	if len(problems) > 0 {
		return fmt.Errorf("configuration has %d problem(s)", len(problems))
	}

	console.PrintSuccess("Configuration is valid")
	return nil
}

// checkPaths verifies the files and directories cfg refers to
func checkPaths(cfg *config.Config) (warnings, problems []string) {
	if _, err := os.Stat(cfg.Crawl.SymbolFile); err != nil {
		warnings = append(warnings, fmt.Sprintf("symbol file %s is not readable: %v", cfg.Crawl.SymbolFile, err))
	}
	if cfg.Provider.Name == "alphavantage" && cfg.Provider.AlphaVantage.APIKey == "" {
		warnings = append(warnings, "no Alpha Vantage key in the environment; the credential store will be consulted")
	}

	dirs := map[string]string{
		"output":     cfg.Output.BaseDirectory,
		"checkpoint": filepath.Dir(cfg.Checkpoint.Path),
	}
	if cfg.Logging.File != "" {
		dirs["log"] = filepath.Dir(cfg.Logging.File)
	}
	for name, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create %s directory: %v", name, err))
		}
	}
	return warnings, problems
}

func newConsole() *ui.Console {
	console := ui.NewTerminalConsole()
	if noColor {
		console.WithColor(false)
	}
	return console
}

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/propshade/propshade/internal/host/vaulthost"
	"github.com/propshade/propshade/internal/lifecycle"
	"github.com/propshade/propshade/internal/models"
	"github.com/propshade/propshade/internal/stylegen"
)

var (
	cfgFile string
	cfg     models.Config
	logger  = log.New(os.Stderr)
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "propshade",
	Short: "Rule-based visibility for document properties",
	Long: `propshade evaluates an ordered rule list against the properties of
markdown documents and produces a declarative stylesheet fragment plus
live visibility marks for properties that need content inspection.`,
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the stylesheet fragment once",
	RunE:  runGenerate,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the vault and keep the stylesheet current",
	RunE:  runWatch,
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List configured rules in priority order",
	RunE:  runRules,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the settings as JSON",
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import settings from a JSON export",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	RunE:  runInit,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./propshade.toml)")

	generateCmd.Flags().StringP("doc", "d", "", "vault-relative document to evaluate")
	generateCmd.Flags().StringP("output", "o", "-", "output file, - for stdout")
	generateCmd.Flags().Bool("verbose", false, "print generation statistics")

	exportCmd.Flags().StringP("output", "o", "-", "output file, - for stdout")

	rootCmd.AddCommand(generateCmd, watchCmd, rulesCmd, exportCmd, importCmd, initCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("propshade")
		viper.SetConfigType("toml")
		viper.AddConfigPath(".")
	}

	// Set defaults
	viper.SetDefault("vault.path", ".")
	viper.SetDefault("vault.settings_file", "propshade.json")
	viper.SetDefault("style.output", "propshade.css")
	viper.SetDefault("timing.full_debounce", lifecycle.DefaultFullDebounce)
	viper.SetDefault("timing.live_debounce", lifecycle.DefaultLiveDebounce)
	viper.SetDefault("timing.focus_grace", lifecycle.DefaultFocusGrace)
	viper.SetDefault("timing.settle_delay", lifecycle.DefaultSettleDelay)
	viper.SetDefault("log.level", "info")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing config: %v\n", err)
	}

	if lvl, err := log.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(lvl)
	}
}

// loadSettings reads the engine settings. A missing file yields defaults.
func loadSettings() (models.Settings, error) {
	data, err := os.ReadFile(cfg.Vault.SettingsFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.DefaultSettings(), nil
		}
		return models.Settings{}, err
	}
	return models.ParseSettings(data)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	docRel, _ := cmd.Flags().GetString("doc")
	output, _ := cmd.Flags().GetString("output")
	verbose, _ := cmd.Flags().GetBool("verbose")

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	var doc *models.DocumentContext
	if docRel != "" {
		h, err := vaulthost.New(cfg.Vault.Path, cfg.Style.Output, logger)
		if err != nil {
			return err
		}
		doc, err = h.ReadDocument(docRel)
		if err != nil {
			return fmt.Errorf("read document %s: %w", docRel, err)
		}
	}

	gen := stylegen.New()
	css := gen.Generate(settings, doc)

	if output == "-" {
		fmt.Print(css)
	} else {
		if dir := filepath.Dir(output); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		if err := os.WriteFile(output, []byte(css), 0o644); err != nil {
			return err
		}
	}

	if verbose {
		stats := gen.Stats()
		fmt.Fprintf(os.Stderr, "Emitted: %d rules (skipped: %d)\n", stats.Emitted, stats.Skipped)
		for reason, count := range stats.SkipReasons {
			fmt.Fprintf(os.Stderr, "  - %s: %d\n", reason, count)
		}
	}
	return nil
}

// settingsProvider re-reads the settings file on every regeneration and
// keeps the last good settings when a read fails mid-session.
type settingsProvider struct {
	mu   sync.Mutex
	last models.Settings
}

func (p *settingsProvider) current() models.Settings {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, err := loadSettings()
	if err != nil {
		logger.Warn("reload settings", "err", err)
		return p.last
	}
	p.last = s
	return s
}

func runWatch(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	h, err := vaulthost.New(cfg.Vault.Path, cfg.Style.Output, logger)
	if err != nil {
		return err
	}
	defer h.Close()

	provider := &settingsProvider{last: settings}
	coord := lifecycle.New(h, provider.current, lifecycle.Options{
		Logger:       logger,
		FullDebounce: cfg.Timing.FullDebounce,
		LiveDebounce: cfg.Timing.LiveDebounce,
		FocusGrace:   cfg.Timing.FocusGrace,
		SettleDelay:  cfg.Timing.SettleDelay,
	})

	if err := h.Watch(); err != nil {
		return err
	}
	coord.Start()
	logger.Info("watching vault", "path", cfg.Vault.Path, "output", cfg.Style.Output)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
	return coord.Close()
}

func runRules(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	if len(settings.Rules) == 0 {
		fmt.Println("No rules configured.")
		return nil
	}

	for i, r := range settings.Rules {
		kind := "literal"
		if r.IsPattern {
			kind = "regex"
		}
		fmt.Printf("%3d. [%s] %s %q\n", i+1, r.Action, kind, r.Pattern)
		if r.FolderScope != "" {
			fmt.Printf("       folder: %s\n", r.FolderScope)
		}
		if r.TagScope != "" {
			fmt.Printf("       tag: %s\n", r.TagScope)
		}
		if r.ValueCondition != "" {
			fmt.Printf("       when value in: %s\n", r.ValueCondition)
		}
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	data, err := settings.Export()
	if err != nil {
		return err
	}

	if output == "-" {
		fmt.Print(string(data))
		return nil
	}
	return os.WriteFile(output, data, 0o644)
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	settings, err := models.ParseSettings(data)
	if err != nil {
		// The current settings file stays untouched.
		return fmt.Errorf("import failed: %w", err)
	}

	out, err := settings.Export()
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfg.Vault.SettingsFile, out, 0o644); err != nil {
		return err
	}

	// A settings change invalidates the installed stylesheet.
	gen := stylegen.New()
	css := gen.Generate(settings, nil)
	if err := os.WriteFile(cfg.Style.Output, []byte(css), 0o644); err != nil {
		return err
	}

	fmt.Printf("Imported %d rules.\n", len(settings.Rules))
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := "./propshade.toml"
	if cfgFile != "" {
		configPath = cfgFile
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}

	defaultConfig := `# propshade configuration

[vault]
path = "."
settings_file = "propshade.json"

[style]
output = "propshade.css"

# Debounce tuning. The live debounce should stay well under 300ms so
# typing feedback feels immediate.
[timing]
full_debounce = "250ms"
live_debounce = "100ms"
focus_grace = "150ms"
settle_delay = "500ms"

[log]
level = "info"
`

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return err
	}
	fmt.Printf("Created config file: %s\n", configPath)

	if _, err := os.Stat(cfg.Vault.SettingsFile); errors.Is(err, fs.ErrNotExist) {
		settings := models.DefaultSettings()
		data, err := settings.Export()
		if err != nil {
			return err
		}
		if err := os.WriteFile(cfg.Vault.SettingsFile, data, 0o644); err != nil {
			return err
		}
		fmt.Printf("Created settings file: %s\n", cfg.Vault.SettingsFile)
	}
	return nil
}

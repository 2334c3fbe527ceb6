package models

import "time"

// Config represents the main CLI configuration
type Config struct {
	Vault  VaultConfig  `mapstructure:"vault"`
	Style  StyleConfig  `mapstructure:"style"`
	Timing TimingConfig `mapstructure:"timing"`
	Log    LogConfig    `mapstructure:"log"`
}

// VaultConfig locates the watched document vault and the settings file
type VaultConfig struct {
	Path         string `mapstructure:"path"`
	SettingsFile string `mapstructure:"settings_file"`
}

// StyleConfig contains stylesheet output settings
type StyleConfig struct {
	Output string `mapstructure:"output"`
}

// TimingConfig holds the debounce tuning. Values are tunables, not
// correctness contracts; see the lifecycle package for how they are used.
type TimingConfig struct {
	FullDebounce time.Duration `mapstructure:"full_debounce"`
	LiveDebounce time.Duration `mapstructure:"live_debounce"`
	FocusGrace   time.Duration `mapstructure:"focus_grace"`
	SettleDelay  time.Duration `mapstructure:"settle_delay"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level string `mapstructure:"level"`
}

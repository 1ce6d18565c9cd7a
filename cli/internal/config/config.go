// Package config loads CLI settings from flags, environment, .env files and
// an optional config file.
package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var AppFs = afero.NewOsFs()

// Config holds the application configuration
type Config struct {
	DatabaseURL string
	Debug       bool
	LayoutsDir  string
}

// Load reads configuration into v. Flags bound from flags take precedence
// over RELORM_* variables, which take precedence over the config file.
// configFile selects an explicit file instead of searching for .relorm.yaml.
func Load(v *viper.Viper, flags *pflag.FlagSet, configFile string) (*Config, error) {
	// Load .env file if it exists
	if _, err := AppFs.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	// Load .env.local if it exists (higher priority)
	if _, err := AppFs.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}

	v.SetFs(AppFs)
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".relorm")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
			v.AddConfigPath(filepath.Join(home, ".config", "relorm"))
		}
	}

	v.SetEnvPrefix("RELORM")
	v.AutomaticEnv()

	v.SetDefault("layouts_dir", "layouts")
	v.SetDefault("debug", false)

	if flags != nil {
		if f := flags.Lookup("database-url"); f != nil {
			_ = v.BindPFlag("database_url", f)
		}
		if f := flags.Lookup("debug"); f != nil {
			_ = v.BindPFlag("debug", f)
		}
		if f := flags.Lookup("layouts"); f != nil {
			_ = v.BindPFlag("layouts_dir", f)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || configFile != "" {
			return nil, err
		}
	}

	cfg := &Config{
		DatabaseURL: v.GetString("database_url"),
		Debug:       v.GetBool("debug"),
		LayoutsDir:  v.GetString("layouts_dir"),
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	return cfg, nil
}

// Save writes the persistent settings to path
func Save(cfg *Config, path string) error {
	v := viper.New()
	v.SetFs(AppFs)
	v.Set("database_url", cfg.DatabaseURL)
	v.Set("layouts_dir", cfg.LayoutsDir)
	v.Set("debug", cfg.Debug)

	if err := AppFs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return v.WriteConfigAs(path)
}

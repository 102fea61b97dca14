package app

import (
	"lexai-backend/config"
	"lexai-backend/logger"

	"github.com/spf13/cobra"
)

// Flags are the persistent flags every binary accepts
type Flags struct {
	ConfigPath string
	LogLevel   string
	LogJSON    bool
}

// BindFlags registers the shared flags on cmd
func BindFlags(cmd *cobra.Command) *Flags {
	f := &Flags{}
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.ConfigPath, "config", "", "path to a YAML config file (defaults to $"+config.ConfigPathEnv+")")
	pf.StringVar(&f.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&f.LogJSON, "log-json", false, "emit logs as JSON")
	return f
}

// Load reads configuration and sets up the process logger. Flags given on
// the command line override the config file and environment.
func (f *Flags) Load(cmd *cobra.Command) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(f.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = f.LogLevel
	}
	if cmd.Flags().Changed("log-json") {
		cfg.Log.JSON = f.LogJSON
	}
	return cfg, logger.SetupLogger(cfg.Log.Level, cfg.Log.JSON), nil
}

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/fenwicklabs/canvaslint/internal/config"
	"github.com/fenwicklabs/canvaslint/internal/observability"
)

// NewRootCommand builds a fresh root command tree. Each invocation gets its
// own command instances so flag state never leaks between executions.
func NewRootCommand() *cobra.Command {
	var cfgFile string
	var cfg *config.Config

	rootCmd := &cobra.Command{
		Use:     "canvaslint",
		Short:   "canvaslint statically analyzes application bundles and their embedded scripts.",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := initializeViper(cfgFile)
			if err != nil {
				return err
			}
			cfg, err = config.NewConfigFromViper(v)
			if err != nil {
				// A fallback logger so the failure itself is visible.
				observability.InitializeLogger(config.LoggerConfig{
					Level: "info", Format: "console", ServiceName: "canvaslint",
				})
				return err
			}
			observability.InitializeLogger(cfg.Logger())
			observability.GetLogger().Debug("configuration loaded",
				zap.String("config_file", v.ConfigFileUsed()))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default is ./canvaslint.yaml, then ~/.canvaslint.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(newAnalyzeCmd(func() *config.Config { return cfg }))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the CLI with the signal-aware context from main.
func Execute(ctx context.Context) error {
	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		observability.GetLogger().Error("command failed", zap.Error(err))
		return err
	}
	return nil
}

// initializeViper builds the viper instance backing the run: defaults, then
// the config file (explicit path, working directory, or home directory),
// then CANVASLINT_* environment variables.
func initializeViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigName("canvaslint")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("CANVASLINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine; defaults and env vars carry the run.
	}
	return v, nil
}

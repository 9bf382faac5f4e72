package main

import (
	"fmt"
	"os"

	"github.com/anonto42/three-good-things/backend/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	envFile string
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "three-good-things",
		Short: "Three Good Things journal API",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
		SilenceUsage: true,
	}

	setupFlags(rootCmd)
	rootCmd.AddCommand(newMigrateCommand(), newExportCommand())
	return rootCmd
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file loaded before configuration")
	cmd.PersistentFlags().String("port", defaults.GetString("port"), "HTTP listen port")
	cmd.PersistentFlags().String("metrics-port", defaults.GetString("metrics_port"), "Prometheus metrics port")
	cmd.PersistentFlags().String("db-driver", defaults.GetString("db_driver"), "Relational driver (postgres, sqlite)")
	cmd.PersistentFlags().String("sqlite-path", defaults.GetString("sqlite_path"), "SQLite database path")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log_level"), "Log level (debug, info, warn, error)")

	bindFlag(cmd, "port", "port")
	bindFlag(cmd, "metrics_port", "metrics-port")
	bindFlag(cmd, "db_driver", "db-driver")
	bindFlag(cmd, "sqlite_path", "sqlite-path")
	bindFlag(cmd, "log_level", "log-level")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	config.LoadDotEnv(envFile)

	if cfgFile == "" {
		return nil
	}
	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
	}
	return nil
}

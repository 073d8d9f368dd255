package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vanillai/vanillai/internal/app"
	"github.com/vanillai/vanillai/internal/config"
)

// main runs the CLI entrypoint and exits on unrecoverable command errors.
func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	errRun := newRootCmd().ExecuteContext(ctx)
	stop()
	if errRun != nil {
		log.WithError(errRun).Error("command failed")
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	port       int
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "vanillai",
		Short:         "AI model catalog, news and community server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file path (or env CONFIG_PATH)")
	root.PersistentFlags().IntVar(&flags.port, "port", 0, "server port (defaults to the config file or 8080)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server, or the setup server when no config exists",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context(), flags)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database schema",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := loadAppConfig(flags)
				if err != nil {
					return err
				}
				if errMigrate := app.Migrate(cmd.Context(), cfg); errMigrate != nil {
					return errMigrate
				}
				log.Info("migration completed")
				return nil
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Insert the bundled sample catalog, news and posts",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := loadAppConfig(flags)
				if err != nil {
					return err
				}
				res, errSeed := app.Seed(cmd.Context(), cfg)
				if errSeed != nil {
					return errSeed
				}
				log.WithFields(log.Fields{
					"models":  res.Models,
					"details": res.Details,
					"news":    res.News,
					"authors": res.Authors,
					"posts":   res.Posts,
				}).Info("seed completed")
				return nil
			},
		},
		newInitCmd(flags),
	)
	return root
}

func newInitCmd(flags *globalFlags) *cobra.Command {
	var req app.InitRequest
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the config file and create the first admin without the setup server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadAppConfig(flags)
			if err != nil {
				return err
			}
			port := flags.port
			if port == 0 {
				port = config.DefaultPort
			}
			if errInit := app.Initialize(cfg.ConfigPath, port, req); errInit != nil {
				return errInit
			}
			log.Infof("initialized, config written to %s", cfg.ConfigPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.AdminEmail, "admin-email", "", "email of the first admin")
	cmd.Flags().StringVar(&req.AdminUsername, "admin-username", "", "username of the first admin")
	cmd.Flags().StringVar(&req.AdminPassword, "admin-password", "", "password of the first admin")
	cmd.Flags().StringVar(&req.SiteName, "site-name", "", "initial SITE_NAME setting")
	cmd.Flags().StringVar(&req.DatabaseType, "db-type", "sqlite", "database type: sqlite or postgres")
	cmd.Flags().StringVar(&req.DatabasePath, "db-path", "", "sqlite database file")
	cmd.Flags().StringVar(&req.DatabaseHost, "db-host", "", "postgres host")
	cmd.Flags().IntVar(&req.DatabasePort, "db-port", 5432, "postgres port")
	cmd.Flags().StringVar(&req.DatabaseUser, "db-user", "", "postgres user")
	cmd.Flags().StringVar(&req.DatabasePassword, "db-password", "", "postgres password")
	cmd.Flags().StringVar(&req.DatabaseName, "db-name", "", "postgres database name")
	cmd.Flags().StringVar(&req.DatabaseSSLMode, "db-sslmode", "disable", "postgres sslmode")
	return cmd
}

func loadAppConfig(flags *globalFlags) (config.AppConfig, error) {
	if errValidate := validatePort(flags.port); errValidate != nil {
		return config.AppConfig{}, errValidate
	}
	appCfg, err := config.LoadFromEnv()
	if err != nil {
		return config.AppConfig{}, err
	}
	if strings.TrimSpace(flags.configPath) != "" {
		appCfg.ConfigPath = config.ResolveConfigPath(flags.configPath)
	}
	return appCfg, nil
}

// runServe starts the init server when no config exists, then the main server.
func runServe(ctx context.Context, flags *globalFlags) error {
	appCfg, err := loadAppConfig(flags)
	if err != nil {
		return err
	}

	if !app.ConfigExists(appCfg.ConfigPath) && strings.TrimSpace(os.Getenv(config.EnvDBConnection)) == "" {
		initPort := flags.port
		if initPort == 0 {
			initPort = config.DefaultPort
		}
		log.Info("config.yaml not found, starting init server...")
		errInit := app.RunInitServer(ctx, appCfg, initPort)
		if !errors.Is(errInit, app.ErrInitCompleted) {
			return errInit
		}
		log.Info("initialization completed, starting main server...")
	}

	return app.RunServer(ctx, appCfg, flags.port)
}

// validatePort accepts 0 as "use the configured port".
func validatePort(port int) error {
	if port < 0 || port > 65535 {
		return fmt.Errorf("invalid port: %d", port)
	}
	return nil
}

// Command societyctl runs operational tasks against the Society Hub database
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	appMigrations "github.com/yigit/societyhub/internal/app/migrations"
	appRepos "github.com/yigit/societyhub/internal/app/repositories"
	appServices "github.com/yigit/societyhub/internal/app/services"
	"github.com/yigit/societyhub/internal/bootstrap"
	"github.com/yigit/societyhub/internal/config"
	"github.com/yigit/societyhub/internal/pkg/logger"
	"github.com/yigit/societyhub/internal/seed"
)

func main() {
	app := &cli.App{
		Name:  "societyctl",
		Usage: "operations tool for the Society Hub API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML config file",
				Value:   bootstrap.DefaultConfigPath,
				EnvVars: []string{"SOCIETYHUB_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			migrateCommand(),
			seedCommand(),
			sweepCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error().Err(err).Msg("societyctl failed")
		os.Exit(1)
	}
}

func load(c *cli.Context) (*config.Config, zerolog.Logger, error) {
	return bootstrap.LoadConfigAndSetupLogger(c.String("config"))
}

func withMigrator(c *cli.Context, fn func(*appMigrations.Migrator) error) error {
	cfg, lgr, err := load(c)
	if err != nil {
		return err
	}
	migrator, err := appMigrations.NewMigrator(cfg.GetMigrationURL(), lgr)
	if err != nil {
		return err
	}
	defer migrator.Close()
	return fn(migrator)
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "manage the database schema",
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply all pending migrations",
				Action: func(c *cli.Context) error {
					return withMigrator(c, func(m *appMigrations.Migrator) error {
						return m.Up()
					})
				},
			},
			{
				Name:  "down",
				Usage: "roll back migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Value: 1, Usage: "number of migrations to roll back"},
				},
				Action: func(c *cli.Context) error {
					return withMigrator(c, func(m *appMigrations.Migrator) error {
						return m.Down(c.Int("steps"))
					})
				},
			},
			{
				Name:  "version",
				Usage: "print the current schema version",
				Action: func(c *cli.Context) error {
					return withMigrator(c, func(m *appMigrations.Migrator) error {
						version, dirty, err := m.Version()
						if err != nil {
							return err
						}
						fmt.Fprintf(c.App.Writer, "version=%d dirty=%t\n", version, dirty)
						return nil
					})
				},
			},
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "create the configured staff administrator",
		Action: func(c *cli.Context) error {
			cfg, lgr, err := load(c)
			if err != nil {
				return err
			}
			pool, err := bootstrap.ConnectDatabase(cfg, lgr)
			if err != nil {
				return err
			}
			defer pool.Close()

			admin := seed.AdminAccount{Email: cfg.Admin.Email, Password: cfg.Admin.Password}
			return seed.CreateDefaultData(c.Context, appRepos.NewUserRepository(pool), admin, lgr)
		},
	}
}

func sweepCommand() *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "run a background job once",
		Subcommands: []*cli.Command{
			{
				Name:  "users",
				Usage: "run the email verification sweep",
				Action: func(c *cli.Context) error {
					cfg, lgr, err := load(c)
					if err != nil {
						return err
					}
					pool, err := bootstrap.ConnectDatabase(cfg, lgr)
					if err != nil {
						return err
					}
					defer pool.Close()

					repos := appRepos.NewRepositories(pool)
					users := appServices.NewUserService(
						repos.UserRepository,
						repos.VerificationTokenRepository,
						bootstrap.NewMailer(cfg, lgr),
						bootstrap.PolicyFromConfig(cfg),
						lgr,
					)
					result, err := users.SweepVerification(c.Context, time.Now().UTC())
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "deleted_unactivated=%d reverify_requested=%d deactivated=%d deleted=%d\n",
						result.DeletedUnactivated, result.ReverifyRequested, result.Deactivated, result.Deleted)
					return nil
				},
			},
			{
				Name:  "views",
				Usage: "flush buffered news view counters into the database",
				Action: func(c *cli.Context) error {
					cfg, lgr, err := load(c)
					if err != nil {
						return err
					}
					pool, err := bootstrap.ConnectDatabase(cfg, lgr)
					if err != nil {
						return err
					}
					defer pool.Close()

					ctx, cancel := context.WithTimeout(c.Context, time.Minute)
					defer cancel()

					views, client := bootstrap.NewViewCounter(ctx, cfg, appRepos.NewNewsRepository(pool), lgr)
					if client != nil {
						defer client.Close()
					}
					n, err := views.Flush(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "flushed=%d\n", n)
					return nil
				},
			},
		},
	}
}

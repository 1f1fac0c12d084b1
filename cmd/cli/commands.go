package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/amirasaad/crowdpledge/infra"
	"github.com/amirasaad/crowdpledge/infra/initializer"
	"github.com/amirasaad/crowdpledge/pkg/app"
	"github.com/amirasaad/crowdpledge/pkg/config"
	"github.com/amirasaad/crowdpledge/pkg/domain/pledge"
	authsvc "github.com/amirasaad/crowdpledge/pkg/service/auth"
	"github.com/spf13/cobra"
)

type cliOptions struct {
	envFile string
	// load is replaced in tests.
	load func(envFile string) (*config.App, error)
	// open builds the application; replaced in tests.
	open func(cfg *config.App) (*app.App, error)
	// migrate runs the schema migration; replaced in tests.
	migrate func(cfg *config.App) error
}

func defaultOptions() *cliOptions {
	return &cliOptions{
		load: func(envFile string) (*config.App, error) { return config.Load(envFile) },
		open: func(cfg *config.App) (*app.App, error) {
			deps, err := initializer.InitializeDependencies(cfg)
			if err != nil {
				return nil, err
			}
			return app.New(deps, cfg), nil
		},
		migrate: func(cfg *config.App) error {
			db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
			if err != nil {
				return err
			}
			return infra.Migrate(db)
		},
	}
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(defaultOptions())
}

func newRootCmdWith(opts *cliOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "cli",
		Short:         "Operate the pledge transaction engine",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "environment file to load")

	root.AddCommand(
		migrateCmd(opts),
		operationCmd(opts, "capture", "Capture a pending pledge transaction", func(a *app.App) func(cmd *cobra.Command, id int64) pledge.Result {
			return func(cmd *cobra.Command, id int64) pledge.Result { return a.Pledge.Capture(cmd.Context(), id) }
		}),
		operationCmd(opts, "void", "Void a pledge transaction and release its customer", func(a *app.App) func(cmd *cobra.Command, id int64) pledge.Result {
			return func(cmd *cobra.Command, id int64) pledge.Result { return a.Pledge.Void(cmd.Context(), id) }
		}),
		tokenCmd(opts),
	)
	return root
}

func migrateCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the pledge tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(opts.envFile)
			if err != nil {
				return err
			}
			if err := opts.migrate(cfg); err != nil {
				return err
			}
			cmd.Println("Migrations applied")
			return nil
		},
	}
}

func operationCmd(
	opts *cliOptions,
	name, short string,
	bind func(a *app.App) func(cmd *cobra.Command, id int64) pledge.Result,
) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <transaction-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid transaction id %q", args[0])
			}
			cfg, err := opts.load(opts.envFile)
			if err != nil {
				return err
			}
			a, err := opts.open(cfg)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			res := bind(a)(cmd, id)
			out, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(out))
			if res.Kind == pledge.ResultError {
				return fmt.Errorf("%s failed: %s", name, res.Text)
			}
			return nil
		},
	}
}

func tokenCmd(opts *cliOptions) *cobra.Command {
	var operator string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an operator token for the admin endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(opts.envFile)
			if err != nil {
				return err
			}
			token, err := authsvc.NewWithJWT(cfg.Auth.Jwt, nil).GenerateToken(operator)
			if err != nil {
				return err
			}
			cmd.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&operator, "operator", "", "operator name recorded in the token")
	_ = cmd.MarkFlagRequired("operator")
	return cmd
}

package main

import (
	"context"
	"delivery-route-planner/internal/app"
	"delivery-route-planner/internal/config"
	"delivery-route-planner/internal/domain"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

func main() {
	config.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		dbPath    string
		seedPath  string
		overrides string
	)

	// plan builds the route once per invocation.
	plan := func(cmd *cobra.Command) (*app.Planner, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		if dbPath != "" {
			cfg.DBPath = dbPath
		}
		if seedPath != "" {
			cfg.SeedPath = seedPath
		}
		if overrides != "" {
			cfg.OverridesPath = overrides
		}
		return app.Bootstrap(cmd.Context(), cfg)
	}

	root := &cobra.Command{
		Use:          "report",
		Short:        "Plan the day's deliveries and report on them",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (default $DB_PATH)")
	root.PersistentFlags().StringVar(&seedPath, "seed", "", "universe seed JSON (default $SEED_PATH)")
	root.PersistentFlags().StringVar(&overrides, "overrides", "", "override directives YAML (default $OVERRIDES_PATH)")

	root.AddCommand(
		&cobra.Command{
			Use:   "plan",
			Short: "Print every truck trip with its stop timeline",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				p, err := plan(cmd)
				if err != nil {
					return err
				}
				defer p.Close()
				return renderPlan(cmd.OutOrStdout(), p.Route)
			},
		},
		newStatusCmd(plan),
		&cobra.Command{
			Use:   "packages",
			Short: "List packages with their constraints and delivery times",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				p, err := plan(cmd)
				if err != nil {
					return err
				}
				defer p.Close()
				return renderPackages(cmd.OutOrStdout(), p.Route)
			},
		},
	)
	return root
}

func newStatusCmd(plan func(*cobra.Command) (*app.Planner, error)) *cobra.Command {
	var (
		at string
		id int
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show package status at a time of day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := domain.ParseClock(at)
			if err != nil {
				return fmt.Errorf("--at: %w", err)
			}

			p, err := plan(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			log.Printf("op=report.status at=%s id=%d", domain.FormatClock(t), id)
			return renderStatus(cmd.OutOrStdout(), p.Route, t, id)
		},
	}
	cmd.Flags().StringVar(&at, "at", "EOD", "time of day as HH:MM")
	cmd.Flags().IntVar(&id, "id", 0, "report a single package")
	return cmd
}


package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/blackboard/internal/adapter/postgres"
	"github.com/Strob0t/blackboard/internal/config"
)

// runAdmin dispatches admin subcommands (migrate, events, plan).
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "migrate":
		return runAdminMigrate(args[1:])
	case "events":
		return runAdminEvents(args[1:])
	case "plan":
		return runAdminPlan(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: blackboard admin <command> [options]

Commands:
  migrate up|down|version   Manage the event journal schema
  events                    List recent journaled events
  plan                      Show the tasks the configured planner would create
  help                      Show this help message

Examples:
  blackboard admin migrate up
  blackboard admin migrate down --steps 1
  blackboard admin events --limit 50
  blackboard admin plan --prompt "build a todo app"
`)
}

func loadAdminConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func requireDSN(cfg *config.Config) error {
	if cfg.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn (DATABASE_URL) is required")
	}
	return nil
}

func runAdminMigrate(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("migrate requires up, down or version")
	}
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	steps := fs.Int("steps", 1, "migrations to roll back (down only)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	cfg, err := loadAdminConfig()
	if err != nil {
		return err
	}
	if err := requireDSN(cfg); err != nil {
		return err
	}

	ctx := context.Background()
	switch args[0] {
	case "up":
		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			return err
		}
	case "down":
		if err := postgres.RollbackMigrations(ctx, cfg.Postgres.DSN, *steps); err != nil {
			return err
		}
	case "version":
	default:
		return fmt.Errorf("unknown migrate command: %s", args[0])
	}

	v, err := postgres.MigrationVersion(ctx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Schema version: %d\n", v)
	return nil
}

func runAdminEvents(args []string) error {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "number of events to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadAdminConfig()
	if err != nil {
		return err
	}
	if err := requireDSN(cfg); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return printEvents(ctx, pool, *limit)
}

func printEvents(ctx context.Context, pool *pgxpool.Pool, limit int) error {
	recs, err := postgres.NewEventStore(pool).Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("No events found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "OCCURRED_AT\tTYPE\tREQUEST_ID\tPAYLOAD")
	for i := range recs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			recs[i].OccurredAt.Format("2006-01-02T15:04:05.000Z07:00"), recs[i].Type, recs[i].RequestID, truncate(string(recs[i].Payload), 80))
	}
	return w.Flush()
}

func runAdminPlan(args []string) error {
	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	prompt := fs.String("prompt", "", "request to plan (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *prompt == "" {
		return fmt.Errorf("--prompt is required")
	}

	cfg, err := loadAdminConfig()
	if err != nil {
		return err
	}
	cfg.Planner.Watch = false
	p, err := buildPlanner(context.Background(), cfg)
	if err != nil {
		return err
	}
	descs, err := p.Plan(context.Background(), *prompt)
	if err != nil {
		return fmt.Errorf("plan: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tROLE\tDEPENDS_ON\tDESCRIPTION")
	for i := range descs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			descs[i].ID, descs[i].Role, strings.Join(descs[i].Dependencies, ","), descs[i].Description)
	}
	return w.Flush()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

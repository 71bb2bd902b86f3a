package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"github.com/Digigit24/kumsserpbackend-sub001/pkg/config"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/db"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/logger"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/migrate"
)

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

func main() {
	opts := parseFlags(os.Args[1:])
	_ = godotenv.Load()

	// create/validate only touch files, so they run without config or a database.
	switch opts.cmd {
	case "create":
		exitOn(createMigration(os.Stdout, opts))
		return
	case "validate":
		exitOn(validate(os.Stdout, opts))
		return
	}

	logg := logger.New(logger.Options{ServiceName: "migrate"})
	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": opts.cmd,
		"dir": opts.dir,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	if err := runAgainstDB(ctx, dbClient, logg, opts, os.Stdout); err != nil {
		logg.Error(ctx, "migration command failed", err)
		dbClient.Close()
		os.Exit(1)
	}
}

func parseFlags(args []string) options {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	var opts options
	fs.StringVar(&opts.cmd, "cmd", "up", "up|down|status|version|create|validate")
	fs.StringVar(&opts.dir, "dir", "", "migrations directory on disk; empty uses the set built into the binary")
	fs.StringVar(&opts.name, "name", "", "migration name (create)")
	fs.StringVar(&opts.version, "version", "", "target YYYYMMDDHHMMSS (version)")
	_ = fs.Parse(args)
	return opts
}

func createMigration(out io.Writer, opts options) error {
	if opts.name == "" {
		return fmt.Errorf("-name is required for create")
	}
	dir := opts.dir
	if dir == "" {
		dir = migrate.DefaultDir
	}
	path, err := migrate.CreateSQLMigration(dir, opts.name)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "created migration:", path)
	return nil
}

func validate(out io.Writer, opts options) error {
	source, err := migrate.Source(opts.dir)
	if err != nil {
		return err
	}
	if err := migrate.Validate(source); err != nil {
		return fmt.Errorf("migration validation failed: %w", err)
	}
	fmt.Fprintln(out, "migration validation passed")
	return nil
}

func runAgainstDB(ctx context.Context, client *db.Client, logg *logger.Logger, opts options, out io.Writer) error {
	sqlDB, err := client.DB().DB()
	if err != nil {
		return err
	}
	source, err := migrate.Source(opts.dir)
	if err != nil {
		return err
	}
	runner, err := migrate.NewRunner(sqlDB, source, logg)
	if err != nil {
		return err
	}

	switch opts.cmd {
	case "up":
		return runner.Up(ctx)
	case "down":
		return runner.Down(ctx)
	case "version":
		if opts.version == "" {
			return fmt.Errorf("-version is required for version")
		}
		return runner.To(ctx, opts.version)
	case "status":
		statuses, err := runner.Status(ctx)
		if err != nil {
			return err
		}
		return printStatus(out, statuses)
	default:
		return fmt.Errorf("unknown -cmd %q", opts.cmd)
	}
}

func printStatus(out io.Writer, statuses []*goose.MigrationStatus) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tFILE")
	for _, st := range statuses {
		applied := "-"
		if !st.AppliedAt.IsZero() {
			applied = st.AppliedAt.UTC().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", st.Source.Version, st.State, applied, st.Source.Path)
	}
	return tw.Flush()
}

func exitOn(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

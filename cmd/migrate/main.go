// Command migrate manages the sales tax schema: it applies, rolls back and
// inspects the versioned migrations and scaffolds new ones.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/erp/salestax/internal/infrastructure/config"
	"github.com/erp/salestax/internal/infrastructure/logger"
	"github.com/erp/salestax/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

var errUsage = errors.New("bad arguments")

// schemaCommand needs a migrator; fileCommand only touches the migration files
type (
	schemaCommand func(m *migration.Migrator, log *zap.Logger, args []string) error
	fileCommand   func(dir string, log *zap.Logger, args []string) error
)

type command struct {
	usage  string
	help   string
	schema schemaCommand
	files  fileCommand
}

var commands = []struct {
	name string
	command
}{
	{"up", command{usage: "up", help: "Apply all pending migrations", schema: func(m *migration.Migrator, _ *zap.Logger, _ []string) error {
		return m.Up()
	}}},
	{"down", command{usage: "down", help: "Roll back all migrations", schema: func(m *migration.Migrator, _ *zap.Logger, _ []string) error {
		return m.Down()
	}}},
	{"step", command{usage: "step <n>", help: "Apply n migrations (negative rolls back)", schema: func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Steps(n)
	}}},
	{"goto", command{usage: "goto <version>", help: "Migrate to a specific version", schema: func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		v, err := intArg(args)
		if err != nil || v < 0 {
			return errUsage
		}
		return m.GoTo(uint(v))
	}}},
	{"force", command{usage: "force <version>", help: "Record a version without running it (clears a dirty state)", schema: func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		v, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Force(v)
	}}},
	{"version", command{usage: "version", help: "Show the applied version", schema: func(m *migration.Migrator, log *zap.Logger, _ []string) error {
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		log.Info("Current schema version", zap.Uint("version", v), zap.Bool("dirty", dirty))
		return nil
	}}},
	{"create", command{usage: "create <name> [desc]", help: "Write the next migration pair into -path (default ./migrations)", files: func(dir string, log *zap.Logger, args []string) error {
		if len(args) == 0 {
			return errUsage
		}
		if dir == "" {
			dir = "migrations"
		}
		mf, err := migration.CreateMigration(dir, args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		log.Info("Migration created", zap.String("version", mf.Version), zap.String("up_file", mf.UpPath), zap.String("down_file", mf.DownPath))
		return nil
	}}},
	{"list", command{usage: "list", help: "List available migrations", files: func(dir string, _ *zap.Logger, _ []string) error {
		available, err := migration.Available(dir)
		if err != nil {
			return err
		}
		for _, m := range available {
			fmt.Printf("  %06d  %s\n", m.Version, m.Name)
		}
		return nil
	}}},
}

func main() {
	dir := flag.String("path", "", "Migrations directory (default: the schema compiled into the binary)")
	table := flag.String("table", migration.DefaultTable, "Version table name")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}
	name, args := flag.Arg(0), flag.Args()[1:]
	cmd, ok := lookup(name)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		usage()
		os.Exit(2)
	}

	log, err := logger.New(logger.Config{Level: *logLevel, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cmd.files != nil {
		err = cmd.files(*dir, log, args)
	} else {
		err = withMigrator(*dir, *table, log, func(m *migration.Migrator) error { return cmd.schema(m, log, args) })
	}
	if errors.Is(err, errUsage) {
		fmt.Fprintf(os.Stderr, "usage: migrate %s\n", cmd.usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal("Migration command failed", zap.String("command", name), zap.Error(err))
	}
}

// withMigrator opens the configured database for the duration of fn
func withMigrator(dir, table string, log *zap.Logger, fn func(*migration.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	m, err := migration.New(db, log, migration.WithDir(dir), migration.WithTable(table))
	if err != nil {
		_ = db.Close()
		return err
	}
	// closing the migrator closes db as well
	defer m.Close()
	return fn(m)
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c.command, true
		}
	}
	return command{}, false
}

func intArg(args []string) (int, error) {
	if len(args) == 0 {
		return 0, errUsage
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, errUsage
	}
	return n, nil
}

func usage() {
	var b strings.Builder
	b.WriteString("Sales tax schema migrations\n\nUsage:\n  migrate [flags] <command> [arguments]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(&b, "  %-22s%s\n", c.usage, c.help)
	}
	b.WriteString("\nFlags:\n")
	fmt.Fprint(os.Stderr, b.String())
	flag.PrintDefaults()
	fmt.Fprint(os.Stderr, "\nThe database is read from config.toml and SALESTAX_DATABASE_* variables.\n")
}

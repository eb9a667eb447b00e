package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/pflag"

	"github.com/niksmo/storefront/config"
)

const (
	dsnFlag           = "dsn"
	migrationPathFlag = "migrations-path"
	downFlag          = "down"
	configFlag        = "config"
)

type flags struct {
	dsn        string
	migrations string
	down       bool
	config     string
}

func main() {
	f := getFlagsValues()
	if f.dsn == "" {
		f.dsn = dsnFromConfig(f.config)
	}
	validateFlags(f)
	makeMigrations(f)
}

type MigrationLogger struct {
	logger  *slog.Logger
	verbose bool
}

func NewMigrationLogger() *MigrationLogger {
	return &MigrationLogger{
		logger:  slog.Default(),
		verbose: true,
	}
}

func (ml *MigrationLogger) Printf(format string, v ...any) {
	ml.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (ml *MigrationLogger) Verbose() bool {
	return ml.verbose
}

func getFlagsValues() flags {
	var f flags
	pflag.StringVarP(&f.dsn, dsnFlag, "d", "", "postgres DSN, storage.dsn of the config by default")
	pflag.StringVarP(&f.migrations, migrationPathFlag, "m", "migrations", "migrations directory")
	pflag.BoolVar(&f.down, downFlag, false, "roll back all migrations")
	pflag.StringVar(&f.config, configFlag, "", "config file")
	pflag.Parse()
	return f
}

func dsnFromConfig(path string) string {
	cfg, err := config.Read(path, os.LookupEnv)
	if err != nil {
		slog.Error("failed to read config", "err", err)
		fallDown()
	}
	if cfg.Storage.Driver != "postgres" {
		return ""
	}
	return cfg.Storage.DSN
}

func validateFlags(f flags) {
	var errs []error

	if f.dsn == "" {
		errs = append(errs, fmt.Errorf("--%s flag: required", dsnFlag))
	}

	if f.migrations == "" {
		errs = append(errs, fmt.Errorf("--%s flag: required", migrationPathFlag))
	}

	if len(errs) != 0 {
		slog.Error("too few args", "err", errors.Join(errs...))
		fallDown()
	}
}

// migrateURL switches a postgres DSN to the pgx5 scheme of the migrate driver.
func migrateURL(dsn string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(dsn, scheme); ok {
			return "pgx5://" + rest
		}
	}
	if strings.HasPrefix(dsn, "pgx5://") {
		return dsn
	}
	return "pgx5://" + dsn
}

func makeMigrations(f flags) {
	m, err := migrate.New(
		fmt.Sprintf("file://%s", f.migrations),
		migrateURL(f.dsn),
	)
	if err != nil {
		slog.Error("failed to migrate", "err", err)
		fallDown()
	}
	defer m.Close()

	m.Log = NewMigrationLogger()

	apply := m.Up
	if f.down {
		apply = m.Down
	}

	if err := apply(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.Log.Printf("no migrations to apply")
			return
		}
		slog.Error("failed to migrate", "err", err)
		fallDown()
	}
	m.Log.Printf("migration applied\n")
}

func fallDown() {
	os.Exit(2)
}

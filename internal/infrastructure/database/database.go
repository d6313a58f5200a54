package database

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	"github.com/eslsoft/vocquiz/internal/infrastructure/config"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// DB couples an sqlx handle with the ent dialect used to build its statements.
type DB struct {
	*sqlx.DB
	Dialect string
}

// Open connects to the database selected by cfg.
func Open(cfg *config.Config, logger logrus.FieldLogger) (*DB, func(), error) {
	driver := cfg.DatabaseDriver()
	dsn := cfg.DatabaseURL()

	switch driver {
	case config.DriverPostgres:
		return openSQLX("postgres", dialect.Postgres, dsn, false)
	case config.DriverPgx:
		pool, closePool, err := NewConnection(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		db := &DB{DB: sqlx.NewDb(stdlib.OpenDBFromPool(pool), "pgx"), Dialect: dialect.Postgres}
		return db, func() {
			_ = db.Close()
			closePool()
		}, nil
	case config.DriverSQLite3:
		return openSQLX("sqlite3", dialect.SQLite, dsn, true)
	case config.DriverSQLite:
		return openSQLX("sqlite", dialect.SQLite, dsn, true)
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// OpenSQLite opens a sqlite file through the pure-Go driver.
func OpenSQLite(path string) (*DB, func(), error) {
	return openSQLX("sqlite", dialect.SQLite, "file:"+path+"?_pragma=busy_timeout(5000)", true)
}

func openSQLX(driverName, dialectName, dsn string, sqlite bool) (*DB, func(), error) {
	rawDB, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s db: %w", driverName, err)
	}
	if sqlite {
		rawDB.SetMaxOpenConns(1)
		rawDB.SetMaxIdleConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rawDB.PingContext(ctx); err != nil {
		rawDB.Close()
		return nil, nil, fmt.Errorf("ping %s db: %w", driverName, err)
	}
	if sqlite {
		if _, err := rawDB.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
			rawDB.Close()
			return nil, nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	}

	db := &DB{DB: rawDB, Dialect: dialectName}
	return db, func() {
		_ = db.Close()
	}, nil
}

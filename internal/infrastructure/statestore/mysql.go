package statestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/vending-machine/internal/domain/item"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/snapshot"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS vending_items (
		name      VARCHAR(128)   NOT NULL PRIMARY KEY,
		price     DECIMAL(12, 2) NOT NULL,
		quantity  INT            NOT NULL,
		category  VARCHAR(16)    NOT NULL,
		attribute INT            NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS vending_balance (
		id       TINYINT        NOT NULL PRIMARY KEY,
		balance  DECIMAL(12, 2) NOT NULL,
		saved_at DATETIME(6)    NOT NULL
	)`,
}

const balanceRowID = 1

// MySQLStore keeps the catalog in vending_items and the balance in a single
// vending_balance row. A save replaces both inside one transaction.
type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

// MySQLOptions tunes the connection pool.
type MySQLOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// OpenMySQL opens a pool for dsn. parseTime is forced on because saved_at is
// scanned into time.Time.
func OpenMySQL(ctx context.Context, dsn string, opts MySQLOptions) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	if cfg.Loc == nil {
		cfg.Loc = time.UTC
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

// Migrate creates the tables when they are missing.
func (s *MySQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *MySQLStore) Save(ctx context.Context, state snapshot.State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM vending_items`); err != nil {
		return fmt.Errorf("clear items: %w", err)
	}
	for _, it := range state.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO vending_items (name, price, quantity, category, attribute)
			VALUES (?, ?, ?, ?, ?)`,
			it.Name, it.Price, it.Quantity, string(it.Category), it.Attribute,
		)
		if err != nil {
			return fmt.Errorf("insert item %q: %w", it.Name, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO vending_balance (id, balance, saved_at) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE balance = VALUES(balance), saved_at = VALUES(saved_at)`,
		balanceRowID, state.Balance, state.SavedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert balance: %w", err)
	}

	return tx.Commit()
}

func (s *MySQLStore) Load(ctx context.Context) (snapshot.State, error) {
	var (
		state   snapshot.State
		savedAt time.Time
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT balance, saved_at FROM vending_balance WHERE id = ?`, balanceRowID,
	).Scan(&state.Balance, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return snapshot.State{}, snapshot.ErrNotFound
	}
	if err != nil {
		return snapshot.State{}, fmt.Errorf("query balance: %w", err)
	}
	state.SavedAt = savedAt.UTC()

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, price, quantity, category, attribute
		FROM vending_items ORDER BY name`)
	if err != nil {
		return snapshot.State{}, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it       item.Item
			price    decimal.Decimal
			category string
		)
		if err := rows.Scan(&it.Name, &price, &it.Quantity, &category, &it.Attribute); err != nil {
			return snapshot.State{}, fmt.Errorf("scan item: %w", err)
		}
		cat, err := item.ParseCategory(category)
		if err != nil {
			return snapshot.State{}, fmt.Errorf("item %q: %w", it.Name, err)
		}
		it.Price, it.Category = price, cat
		state.Items = append(state.Items, it)
	}
	if err := rows.Err(); err != nil {
		return snapshot.State{}, fmt.Errorf("iterate items: %w", err)
	}
	return state, nil
}

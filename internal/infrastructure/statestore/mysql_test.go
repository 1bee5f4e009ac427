package statestore

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/Zhima-Mochi/vending-machine/internal/domain/snapshot"
)

func getMySQLDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/vending"
	}

	db, err := OpenMySQL(context.Background(), dsn, MySQLOptions{MaxOpenConns: 2})
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	return db
}

func TestMySQLStore(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	store := NewMySQLStore(db)
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	// Setup
	db.ExecContext(ctx, `DELETE FROM vending_items`)
	db.ExecContext(ctx, `DELETE FROM vending_balance`)

	if _, err := store.Load(ctx); err != snapshot.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.Save(ctx, sampleState()); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assertSameState(t, sampleState(), got)

	// A second save replaces the catalog rather than merging into it.
	next := sampleState()
	next.Items = next.Items[1:2]
	if err := store.Save(ctx, next); err != nil {
		t.Fatalf("second save: %v", err)
	}
	got, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	assertSameState(t, next, got)
}

package postgres

import (
	"context"
	"testing"

	"github.com/ivankudzin/automarket/backend/migrations"
)

func TestMigrateRequiresDSN(t *testing.T) {
	if err := Migrate(context.Background(), "", migrations.FS, nil); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}

func TestNewPoolRequiresDSN(t *testing.T) {
	if _, err := NewPool(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}

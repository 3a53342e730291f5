package migrations

import (
	"io"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	src, err := iofs.New(FS, ".")
	if err != nil {
		t.Fatalf("open source: %v", err)
	}
	defer src.Close()

	version, err := src.First()
	if err != nil {
		t.Fatalf("first version: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected first version 1, got %d", version)
	}

	for {
		up, _, err := src.ReadUp(version)
		if err != nil {
			t.Fatalf("read up %d: %v", version, err)
		}
		upBody, _ := io.ReadAll(up)
		_ = up.Close()
		if !strings.Contains(string(upBody), "CREATE TABLE") && !strings.Contains(string(upBody), "ALTER TABLE") {
			t.Fatalf("up migration %d has no schema change", version)
		}

		down, _, err := src.ReadDown(version)
		if err != nil {
			t.Fatalf("migration %d has no down file: %v", version, err)
		}
		_ = down.Close()

		next, err := src.Next(version)
		if err != nil {
			break
		}
		version = next
	}
}

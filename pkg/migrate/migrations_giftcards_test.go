package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGiftCardMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_gift_cards.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no gift card migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE gift_cards",
		"REFERENCES merchants (id)",
		"numeric(12,2)",
		"CREATE UNIQUE INDEX idx_gift_cards_code",
		"DROP TABLE gift_cards",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestEveryMigrationHasDownSection(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration files found")
	}

	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		content := string(data)
		if !strings.Contains(content, "-- +goose Up") {
			t.Errorf("%s missing goose up marker", path)
		}
		if !strings.Contains(content, "-- +goose Down") {
			t.Errorf("%s missing goose down marker", path)
		}
	}
}

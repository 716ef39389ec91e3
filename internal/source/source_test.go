package source

import (
	"context"
	"io"
	"testing"

	"github.com/sportsdesk/cmx/internal/models"
	"github.com/sportsdesk/cmx/internal/shared"
)

// fixtureQueries returns SQLite-dialect presets over a small sponsor table.
func fixtureQueries() Queries {
	return Queries{
		models.KindSponsor: {
			Count: `SELECT COUNT(*) FROM sponsor`,
			Test:  `SELECT * FROM sponsor WHERE id = 1`,
			Batch: `SELECT * FROM sponsor ORDER BY id LIMIT @limit OFFSET @offset`,
			All:   `SELECT * FROM sponsor ORDER BY id LIMIT @limit OFFSET @offset`,
		},
	}
}

func fixtureStore(t *testing.T) *SQLStore {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open fixture database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(`CREATE TABLE sponsor (id INTEGER PRIMARY KEY, name TEXT, link TEXT)`); err != nil {
		t.Fatalf("failed to create fixture table: %v", err)
	}
	for i := 1; i <= 25; i++ {
		if _, err := db.Exec(`INSERT INTO sponsor (id, name, link) VALUES (?, ?, ?)`, i, "Sponsor", "https://example.com"); err != nil {
			t.Fatalf("failed to seed fixture: %v", err)
		}
	}

	return NewSQLStore(db, fixtureQueries(), shared.NewLogger(io.Discard))
}

func TestSQLStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Count", func(t *testing.T) {
		store := fixtureStore(t)

		total, err := store.Count(ctx, models.KindSponsor)
		if err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if total != 25 {
			t.Errorf("expected 25 records, got %d", total)
		}
	})

	t.Run("CountUnknownKind", func(t *testing.T) {
		store := fixtureStore(t)

		if _, err := store.Count(ctx, models.KindArticle); err == nil {
			t.Error("expected error for kind without queries")
		}
	})

	t.Run("ReadPageHonorsOffsetAndLimit", func(t *testing.T) {
		store := fixtureStore(t)

		page, err := store.ReadPage(ctx, models.KindSponsor, VariantBatch, 10, 5)
		if err != nil {
			t.Fatalf("read page failed: %v", err)
		}
		if len(page) != 5 {
			t.Fatalf("expected 5 records, got %d", len(page))
		}
		if page[0].Int("id") != 11 {
			t.Errorf("expected first record id 11, got %d", page[0].Int("id"))
		}
		if page[4].Int("id") != 15 {
			t.Errorf("expected last record id 15, got %d", page[4].Int("id"))
		}
	})

	t.Run("ReadPageLowercasesColumns", func(t *testing.T) {
		store := fixtureStore(t)

		page, err := store.ReadPage(ctx, models.KindSponsor, VariantTest, 0, 0)
		if err != nil {
			t.Fatalf("read page failed: %v", err)
		}
		if len(page) != 1 {
			t.Fatalf("expected 1 record, got %d", len(page))
		}
		if page[0].Str("name") != "Sponsor" {
			t.Errorf("expected name column accessible lowercased, got %+v", page[0])
		}
		if page[0].ID(models.KindSponsor) != "1" {
			t.Errorf("expected record id 1, got %s", page[0].ID(models.KindSponsor))
		}
	})

	t.Run("MissingVariant", func(t *testing.T) {
		store := fixtureStore(t)

		if _, err := store.ReadPage(ctx, models.KindSponsor, VariantCustom, 0, 0); err == nil {
			t.Error("expected error for unconfigured variant")
		}
	})
}

func TestParseVariant(t *testing.T) {
	for _, valid := range []string{"test", "batch", "all", "custom", " ALL "} {
		if _, err := ParseVariant(valid); err != nil {
			t.Errorf("expected %q to parse, got %v", valid, err)
		}
	}
	if _, err := ParseVariant("everything"); err == nil {
		t.Error("expected error for unknown variant")
	}
}

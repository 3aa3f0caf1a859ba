package testsupport

import (
	"context"
	"testing"

	"sleeve/internal/catalog"
	"sleeve/internal/config"
)

// MustOpenCatalog opens the catalog store for tests and registers cleanup.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg.Paths.CatalogDB)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedReleases upserts releases into store.
func SeedReleases(t testing.TB, store *catalog.Store, releases ...catalog.Release) {
	t.Helper()

	for _, release := range releases {
		if err := store.Upsert(context.Background(), release); err != nil {
			t.Fatalf("store.Upsert(%s): %v", release.ID, err)
		}
	}
}

// Pressings returns three pressings of one album that share a barcode and a
// catalog number and differ by matrix code, plus one unrelated release.
func Pressings() []catalog.Release {
	return []catalog.Release{
		{ID: "eu-1995", Artist: "Example Artist", Title: "Example Album", Year: 1995, Country: "EU", Barcode: "724383608829", CatalogNumber: "CDPCSD 167", MatrixCode: "DIDP-10614", IFPICodes: []string{"IFPI L553"}},
		{ID: "uk-1987", Artist: "Example Artist", Title: "Example Album", Year: 1987, Country: "UK", Barcode: "724383608829", CatalogNumber: "CDPCSD 167", MatrixCode: "CDPCSD 167 1A1"},
		{ID: "uk-1992", Artist: "Example Artist", Title: "Example Album", Year: 1992, Country: "UK", Barcode: "724383608829", CatalogNumber: "CDPCSD 167"},
		{ID: "us-1988", Artist: "Other Artist", Title: "Other Album", Year: 1988, Country: "US", Barcode: "077778912325", CatalogNumber: "C2-46440"},
	}
}

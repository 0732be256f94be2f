package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/videograph/videograph/internal/resolver"
)

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "videos.db"), testSchema)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteRoundTrip(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	_, found, err := s.Get(ctx, "youtube", "abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Error("expected miss on fresh database")
	}

	v := resolver.Video{
		Service: "youtube", ID: "abc",
		Title: "t", Duration: 60, Thumbnail: "x.jpg", Mime: "video/mp4", Channel: "c",
	}
	if err := s.UpsertOne(ctx, v); err != nil {
		t.Fatalf("UpsertOne: %v", err)
	}

	got, found, err := s.Get(ctx, "youtube", "abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found || got != v {
		t.Errorf("got %+v, found=%v, want %+v", got, found, v)
	}
}

func TestSQLiteUpsertUpdates(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	s.UpsertOne(ctx, resolver.Video{Service: "youtube", ID: "abc", Title: "old"})
	if err := s.UpsertOne(ctx, resolver.Video{Service: "youtube", ID: "abc", Title: "new", Duration: 5}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, _, _ := s.Get(ctx, "youtube", "abc")
	if got.Title != "new" || got.Duration != 5 {
		t.Errorf("got %+v after update", got)
	}
}

func TestSQLiteUpsertMany(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	err := s.UpsertMany(ctx, []resolver.Video{
		{Service: "youtube", ID: "a", Title: "one"},
		{Service: "vimeo", ID: "1", Title: "two"},
		{Service: "youtube", ID: "a", Title: "one again"}, // same key twice in one batch
	})
	if err != nil {
		t.Fatalf("UpsertMany: %v", err)
	}

	got, found, _ := s.Get(ctx, "youtube", "a")
	if !found || got.Title != "one again" {
		t.Errorf("got %+v, found=%v", got, found)
	}
	if _, found, _ := s.Get(ctx, "vimeo", "1"); !found {
		t.Error("second record missing")
	}
}

func TestSQLiteKeysAreServiceScoped(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	s.UpsertOne(ctx, resolver.Video{Service: "youtube", ID: "shared", Title: "yt"})
	s.UpsertOne(ctx, resolver.Video{Service: "vimeo", ID: "shared", Title: "vm"})

	yt, _, _ := s.Get(ctx, "youtube", "shared")
	vm, _, _ := s.Get(ctx, "vimeo", "shared")
	if yt.Title != "yt" || vm.Title != "vm" {
		t.Errorf("records collided across services: %+v / %+v", yt, vm)
	}
}

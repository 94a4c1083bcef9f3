package service

import (
	"context"
	"errors"
	"testing"

	"github.com/musicreward/musicreward/internal/model"
	"github.com/musicreward/musicreward/internal/store"
	"github.com/musicreward/musicreward/internal/store/memory"
)

func newTestCatalog(t *testing.T) *CatalogService {
	t.Helper()
	return NewCatalogService(memory.New())
}

func intPtr(v int) *int { return &v }

func TestCatalogAddDefaults(t *testing.T) {
	c := newTestCatalog(t)

	song, err := c.Add(context.Background(), AddSongInput{VideoID: "abc123", Title: "T", Artist: "A"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !song.IsActive {
		t.Error("new songs should be active")
	}
	if song.Duration != model.DefaultSongDuration {
		t.Errorf("duration = %d, want %d", song.Duration, model.DefaultSongDuration)
	}
	if song.DisplayOrder != 0 {
		t.Errorf("displayOrder = %d, want 0", song.DisplayOrder)
	}
	if song.Thumbnail != model.DefaultThumbnail("abc123") {
		t.Errorf("thumbnail = %q", song.Thumbnail)
	}
}

func TestCatalogAddValidation(t *testing.T) {
	c := newTestCatalog(t)

	tests := []struct {
		name  string
		in    AddSongInput
		field string
	}{
		{"missing videoId", AddSongInput{Title: "T", Artist: "A"}, "videoId"},
		{"blank title", AddSongInput{VideoID: "v", Title: "  ", Artist: "A"}, "title"},
		{"missing artist", AddSongInput{VideoID: "v", Title: "T"}, "artist"},
		{"negative duration", AddSongInput{VideoID: "v", Title: "T", Artist: "A", Duration: intPtr(-1)}, "duration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Add(context.Background(), tt.in)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

func TestCatalogListExcludesInactive(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	a, _ := c.Add(ctx, AddSongInput{VideoID: "a", Title: "A", Artist: "X"})
	b, _ := c.Add(ctx, AddSongInput{VideoID: "b", Title: "B", Artist: "X"})
	if err := c.SetActive(ctx, a.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}

	list, err := c.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].ID != b.ID {
		t.Errorf("List = %+v, want only b", list)
	}

	all, _ := c.ListAll(ctx)
	if len(all) != 2 {
		t.Errorf("ListAll = %d songs, want 2", len(all))
	}
}

func TestCatalogSetOrderPermutation(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	ids := map[string]int64{}
	for _, v := range []string{"a", "b", "c"} {
		s, err := c.Add(ctx, AddSongInput{VideoID: v, Title: v, Artist: "X"})
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		ids[v] = s.ID
	}
	c.SetOrder(ctx, ids["c"], 0)
	c.SetOrder(ctx, ids["a"], 1)
	c.SetOrder(ctx, ids["b"], 2)

	list, _ := c.List(ctx)
	got := []string{list[0].VideoID, list[1].VideoID, list[2].VideoID}
	if got[0] != "c" || got[1] != "a" || got[2] != "b" {
		t.Errorf("order = %v, want [c a b]", got)
	}
}

func TestCatalogAddThenRemove(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	s, _ := c.Add(ctx, AddSongInput{VideoID: "gone", Title: "T", Artist: "A"})
	if err := c.Remove(ctx, s.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	list, _ := c.List(ctx)
	for _, song := range list {
		if song.ID == s.ID {
			t.Error("removed song still listed")
		}
	}
	if err := c.Remove(ctx, s.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second Remove = %v, want ErrNotFound", err)
	}
}

func TestCatalogSearch(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	c.Add(ctx, AddSongInput{VideoID: "1", Title: "Bohemian Rhapsody", Artist: "Queen"})
	c.Add(ctx, AddSongInput{VideoID: "2", Title: "Killer Queen", Artist: "Queen"})
	c.Add(ctx, AddSongInput{VideoID: "3", Title: "Lagu Rindu", Artist: "Kerispatih"})
	hidden, _ := c.Add(ctx, AddSongInput{VideoID: "4", Title: "Queen of Hearts", Artist: "Hidden"})
	c.SetActive(ctx, hidden.ID, false)

	tests := []struct {
		query string
		limit int
		want  int
	}{
		{"queen", 10, 2},
		{"QUEEN", 1, 1},
		{"kerispatih", 10, 1},
		{"rindu", 10, 1},
		{"nothing", 10, 0},
		{"", 10, 3},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := c.Search(ctx, tt.query, tt.limit)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("Search(%q, %d) = %d results, want %d", tt.query, tt.limit, len(got), tt.want)
			}
		})
	}
}

func TestCatalogFindByVideoID(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	c.Add(ctx, AddSongInput{VideoID: "dup", Title: "Second", Artist: "A", DisplayOrder: intPtr(2)})
	c.Add(ctx, AddSongInput{VideoID: "dup", Title: "First", Artist: "A", DisplayOrder: intPtr(1)})

	got, err := c.FindByVideoID(ctx, "dup")
	if err != nil {
		t.Fatalf("FindByVideoID: %v", err)
	}
	if got.Title != "First" {
		t.Errorf("title = %q, want First", got.Title)
	}
	if _, err := c.FindByVideoID(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing = %v, want ErrNotFound", err)
	}
}

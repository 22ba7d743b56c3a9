package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"guidegen/internal/logger"
	"guidegen/internal/models"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir(), logger.NewNop())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return s
}

func sampleGuide(id, userID string, createdAt int64) *models.Guide {
	return &models.Guide{
		ID:      id,
		Title:   "Guide " + id,
		Summary: "# Summary\nsome text",
		FlashCards: []models.FlashCard{
			{Front: "front", Back: "back"},
		},
		Quiz: []models.QuizQuestion{
			{Question: "q", PossibleAnswers: []string{"a", "b"}, Index: 1},
		},
		UserID:    userID,
		Filename:  id + ".txt",
		CreatedAt: createdAt,
	}
}

func TestFileStorePutGet(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	want := sampleGuide("abc123", "user-1", 100)
	if err := s.Put(ctx, want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "abc123")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != want.Title || got.UserID != want.UserID || got.CreatedAt != want.CreatedAt {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if len(got.FlashCards) != 1 || got.FlashCards[0].Front != "front" {
		t.Errorf("flashcards did not round-trip: %+v", got.FlashCards)
	}
	if len(got.Quiz) != 1 || got.Quiz[0].Index != 1 {
		t.Errorf("quiz did not round-trip: %+v", got.Quiz)
	}
}

func TestFileStoreGetMissing(t *testing.T) {
	s := newTestFileStore(t)
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestFileStoreList(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	for _, g := range []*models.Guide{
		sampleGuide("anon1", models.AnonymousUser, 10),
		sampleGuide("mine1", "user-1", 30),
		sampleGuide("mine2", "user-1", 20),
		sampleGuide("other", "user-2", 40),
	} {
		if err := s.Put(ctx, g); err != nil {
			t.Fatalf("Put %s: %v", g.ID, err)
		}
	}

	t.Run("authenticated sees own plus anonymous, newest first", func(t *testing.T) {
		got, err := s.List(ctx, "user-1")
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		ids := make([]string, len(got))
		for i, g := range got {
			ids[i] = g.ID
		}
		want := []string{"mine1", "mine2", "anon1"}
		if len(ids) != len(want) {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
		for i := range want {
			if ids[i] != want[i] {
				t.Fatalf("ids = %v, want %v", ids, want)
			}
		}
	})

	t.Run("anonymous sees only anonymous", func(t *testing.T) {
		got, err := s.List(ctx, models.AnonymousUser)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != 1 || got[0].ID != "anon1" {
			t.Fatalf("got %+v, want just anon1", got)
		}
	})
}

func TestFileStoreListSkipsCorruptRecords(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, sampleGuide("good1", models.AnonymousUser, 1)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, "bad.json"), []byte("{corrupt"), 0o644); err != nil {
		t.Fatalf("write corrupt record: %v", err)
	}

	got, err := s.List(ctx, models.AnonymousUser)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].ID != "good1" {
		t.Fatalf("got %+v, want just good1", got)
	}
}

func TestFileStoreDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("owner can delete", func(t *testing.T) {
		s := newTestFileStore(t)
		if err := s.Put(ctx, sampleGuide("g1", "user-1", 1)); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if err := s.Delete(ctx, "g1", "user-1"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := s.Get(ctx, "g1"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("guide still readable after delete: %v", err)
		}
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		s := newTestFileStore(t)
		if err := s.Put(ctx, sampleGuide("g1", "user-1", 1)); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if err := s.Delete(ctx, "g1", "user-2"); !errors.Is(err, ErrForbidden) {
			t.Fatalf("err = %v, want ErrForbidden", err)
		}
		if _, err := s.Get(ctx, "g1"); err != nil {
			t.Fatalf("guide should survive forbidden delete: %v", err)
		}
	})

	t.Run("missing guide", func(t *testing.T) {
		s := newTestFileStore(t)
		if err := s.Delete(ctx, "nope", "user-1"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestNewGuideID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewGuideID()
		if len(id) != 8 {
			t.Fatalf("id %q has length %d, want 8", id, len(id))
		}
		if seen[id] {
			t.Fatalf("duplicate id %q after %d draws", id, i)
		}
		seen[id] = true
	}
}

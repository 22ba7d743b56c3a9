package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/natefinch/atomic"

	"guidegen/internal/logger"
	"guidegen/internal/models"
)

// FileStore keeps one JSON file per guide under a single directory, named
// <id>.json. Writes go through an atomic rename so readers never observe a
// partial record.
type FileStore struct {
	dir string
	log *logger.Logger
}

func NewFileStore(dir string, log *logger.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure guide dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir, log: log.With("store", "file")}, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *FileStore) Put(ctx context.Context, guide *models.Guide) error {
	data, err := json.Marshal(guide)
	if err != nil {
		return fmt.Errorf("encode guide %s: %w", guide.ID, err)
	}
	if err := atomic.WriteFile(s.path(guide.ID), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write guide %s: %w", guide.ID, err)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*models.Guide, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read guide %s: %w", id, err)
	}
	guide := &models.Guide{}
	if err := json.Unmarshal(data, guide); err != nil {
		return nil, fmt.Errorf("decode guide %s: %w", id, err)
	}
	return guide, nil
}

func (s *FileStore) List(ctx context.Context, viewer string) ([]models.GuideSummary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list guide dir: %w", err)
	}

	summaries := make([]models.GuideSummary, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			s.log.Warn("skipping unreadable guide record", "file", entry.Name(), "error", err)
			continue
		}
		guide := &models.Guide{}
		if err := json.Unmarshal(data, guide); err != nil {
			s.log.Warn("skipping corrupt guide record", "file", entry.Name(), "error", err)
			continue
		}
		if !guide.VisibleTo(viewer) {
			continue
		}
		summaries = append(summaries, guide.Summarize())
	}

	// Newest first; ties keep directory enumeration order.
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt > summaries[j].CreatedAt
	})
	return summaries, nil
}

func (s *FileStore) Delete(ctx context.Context, id string, requester string) error {
	guide, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if guide.UserID != requester {
		return ErrForbidden
	}
	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("delete guide %s: %w", id, err)
	}
	return nil
}

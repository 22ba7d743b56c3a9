// Package store persists guides behind a key-value style interface so the
// flat-file backend and the SQLite backend are interchangeable from the
// handlers' point of view.
package store

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"

	"guidegen/internal/models"
)

var (
	// ErrNotFound is returned when no guide exists for the given id.
	ErrNotFound = errors.New("guide not found")
	// ErrForbidden is returned when the requester does not own the guide.
	ErrForbidden = errors.New("not the guide owner")
)

// GuideStore is the persistence contract. Concurrent writers to the same id
// are not coordinated; last writer wins.
type GuideStore interface {
	// Put writes one guide keyed by its ID, replacing any previous record.
	Put(ctx context.Context, guide *models.Guide) error
	// Get returns the guide for id, or ErrNotFound.
	Get(ctx context.Context, id string) (*models.Guide, error)
	// List returns summaries of every guide visible to viewer (owner match
	// or anonymous-owned), sorted by CreatedAt descending. Records that
	// cannot be read or decoded are skipped.
	List(ctx context.Context, viewer string) ([]models.GuideSummary, error)
	// Delete removes the guide if requester owns it. Returns ErrNotFound
	// for unknown ids and ErrForbidden on ownership mismatch.
	Delete(ctx context.Context, id string, requester string) error
}

const idAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewGuideID returns a short random alphanumeric token used as the storage
// key for a new guide.
func NewGuideID() string {
	buf := make([]byte, 8)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(idAlphabet))))
		if err != nil {
			panic(err) // crypto/rand never fails on supported platforms
		}
		buf[i] = idAlphabet[n.Int64()]
	}
	return string(buf)
}

package models

import (
	"encoding/json"
	"fmt"
)

// AnonymousUser is the owner recorded for uploads made without a verified
// identity. Guides owned by it are visible to every caller.
const AnonymousUser = "anonymous"

// FlashCard is one front/back study pair. The wire format is a two-element
// JSON array, matching what clients already consume.
type FlashCard struct {
	Front string
	Back  string
}

func (c FlashCard) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{c.Front, c.Back})
}

func (c *FlashCard) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("flashcard must have exactly 2 elements, got %d", len(pair))
	}
	c.Front, c.Back = pair[0], pair[1]
	return nil
}

// QuizQuestion is one multiple-choice question. Index is the position of the
// correct answer within PossibleAnswers and is always in range.
type QuizQuestion struct {
	Question        string   `json:"question"`
	PossibleAnswers []string `json:"possible_answers"`
	Index           int      `json:"index"`
}

// Guide is the one durable entity: everything generated from a single upload.
// Immutable after creation except for deletion by its owner.
type Guide struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Summary    string         `json:"summary"`
	FlashCards []FlashCard    `json:"flash_cards"`
	Quiz       []QuizQuestion `json:"quiz"`
	UserID     string         `json:"user_id"`
	Filename   string         `json:"filename"`
	CreatedAt  int64          `json:"created_at"`
}

// VisibleTo reports whether a reader with the given identity may see the
// guide. Anonymous-owned guides are visible to everyone.
func (g *Guide) VisibleTo(viewer string) bool {
	return g.UserID == viewer || g.UserID == AnonymousUser
}

// GuideSummary is the listing projection of a Guide.
type GuideSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Filename  string `json:"filename"`
	CreatedAt int64  `json:"created_at"`
}

// Summarize projects the guide down to its listing fields.
func (g *Guide) Summarize() GuideSummary {
	return GuideSummary{
		ID:        g.ID,
		Title:     g.Title,
		Filename:  g.Filename,
		CreatedAt: g.CreatedAt,
	}
}

// Materials is the output of one generation pass over extracted text, before
// an ID and ownership are attached.
type Materials struct {
	Title      string
	Summary    string
	FlashCards []FlashCard
	Quiz       []QuizQuestion
}

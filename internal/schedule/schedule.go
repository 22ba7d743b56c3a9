// Package schedule projects a spaced-repetition review plan for a guide's
// flashcards using the FSRS scheduler. The projection assumes every review is
// rated "good"; it is a study-planning aid, not tracked review state.
package schedule

import (
	"time"

	fsrs "github.com/open-spaced-repetition/go-fsrs"

	"guidegen/internal/models"
)

// Review is one projected review of a card.
type Review struct {
	Due          time.Time `json:"due"`
	IntervalDays int       `json:"interval_days"`
}

// CardPlan is the projected review sequence for one flashcard.
type CardPlan struct {
	Front   string   `json:"front"`
	Reviews []Review `json:"reviews"`
}

// Plan projects the next `horizon` reviews for each card, starting from now.
// All cards in a guide are new, so they share the same projection.
func Plan(cards []models.FlashCard, now time.Time, horizon int) []CardPlan {
	if horizon <= 0 {
		horizon = 5
	}
	reviews := project(now, horizon)

	plans := make([]CardPlan, 0, len(cards))
	for _, c := range cards {
		plans = append(plans, CardPlan{Front: c.Front, Reviews: reviews})
	}
	return plans
}

func project(now time.Time, horizon int) []Review {
	params := fsrs.DefaultParam()
	card := fsrs.NewCard()

	reviews := make([]Review, 0, horizon)
	for i := 0; i < horizon; i++ {
		scheduling := params.Repeat(card, now)
		info := scheduling[fsrs.Good]
		card = info.Card
		reviews = append(reviews, Review{
			Due:          card.Due,
			IntervalDays: int(card.ScheduledDays),
		})
		now = card.Due
	}
	return reviews
}

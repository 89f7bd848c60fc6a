package models

import (
	"errors"
	"time"
)

// Bet is one immutable wager against a contract. The upstream API returns
// bets newest-first; index 0 is the most recent bet and the last index is the
// oldest. The net-change formula depends on that ordering, so everything that
// consumes a bet slice preserves it.
type Bet struct {
	ID          string    `json:"id"`
	ContractID  string    `json:"contract_id"`
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name"`
	CreatedTime time.Time `json:"created_time"`
	ProbBefore  float64   `json:"prob_before"`
	ProbAfter   float64   `json:"prob_after"`
	Amount      float64   `json:"amount"`
	Shares      float64   `json:"shares"`
	Outcome     string    `json:"outcome"` // "YES" or "NO"
	IsFilled    bool      `json:"is_filled"`
	IsCancelled bool      `json:"is_cancelled"`
}

// Countable reports whether the bet participates in change computation.
// Only filled, non-cancelled bets move the probability record.
func (b *Bet) Countable() bool {
	return b.IsFilled && !b.IsCancelled
}

// Validate checks bet field constraints.
func (b *Bet) Validate() error {
	if b.ID == "" {
		return errors.New("bet ID must not be empty")
	}
	if b.ContractID == "" {
		return errors.New("contract ID must not be empty")
	}
	if b.UserID == "" {
		return errors.New("user ID must not be empty")
	}
	if b.ProbBefore < 0.0 || b.ProbBefore > 1.0 {
		return errors.New("prob before must be between 0.0 and 1.0")
	}
	if b.ProbAfter < 0.0 || b.ProbAfter > 1.0 {
		return errors.New("prob after must be between 0.0 and 1.0")
	}
	if b.CreatedTime.IsZero() {
		return errors.New("created time must be set")
	}
	return nil
}

// ContentBlock is one typed block of a comment body: plain paragraph text or
// an embedded link.
type ContentBlock struct {
	Kind string `json:"kind"` // "paragraph" or "link"
	Text string `json:"text,omitempty"`
	Href string `json:"href,omitempty"`
}

// Comment is a threaded message on a market. Comments with a non-empty
// ReplyToID are replies and never appear in reports.
type Comment struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	UserName    string         `json:"user_name"`
	CreatedTime time.Time      `json:"created_time"`
	ReplyToID   string         `json:"reply_to_id,omitempty"`
	Content     []ContentBlock `json:"content"`
}

// TopLevel reports whether the comment is a report candidate.
func (c *Comment) TopLevel() bool {
	return c.ReplyToID == ""
}

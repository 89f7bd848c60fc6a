// Package models defines the core domain entities: tracked questions, fetched
// markets, bets, comments, and the derived mover/move statistics.
package models

import (
	"errors"
	"fmt"
	"time"
)

// OutcomeType identifies the shape of a market. It is fixed for a market's
// lifetime: a binary market never carries answers and a multiple-choice
// market always does.
type OutcomeType string

const (
	OutcomeBinary         OutcomeType = "BINARY"
	OutcomeMultipleChoice OutcomeType = "MULTIPLE_CHOICE"
)

// ProbChanges holds net probability changes over the three fixed horizons.
type ProbChanges struct {
	Day   float64 `json:"day"`
	Week  float64 `json:"week"`
	Month float64 `json:"month"`
}

// Answer is one outcome contract within a multiple-choice market. Each answer
// trades against its own contract and carries its own probability. The
// upstream API sometimes pre-computes per-horizon changes; when ProbChanges
// is nil they are derived from the answer's bet stream instead.
type Answer struct {
	ID          string       `json:"id"`
	ContractID  string       `json:"contract_id"`
	Text        string       `json:"text"`
	Probability float64      `json:"probability"`
	ProbChanges *ProbChanges `json:"prob_changes,omitempty"`
}

// FetchedMarket is a point-in-time snapshot of one watched question as
// returned by the upstream market API.
type FetchedMarket struct {
	ID                string      `json:"id"`
	Question          string      `json:"question"`
	Slug              string      `json:"slug"`
	URL               string      `json:"url"`
	OutcomeType       OutcomeType `json:"outcome_type"`
	Probability       float64     `json:"probability"` // binary markets only
	Answers           []Answer    `json:"answers,omitempty"`
	TotalLiquidity    float64     `json:"total_liquidity"`
	Volume            float64     `json:"volume"`
	Volume24Hours     float64     `json:"volume_24_hours"`
	UniqueBettorCount int         `json:"unique_bettor_count"`
	IsResolved        bool        `json:"is_resolved"`
	CreatedTime       time.Time   `json:"created_time"`
	LastBetTime       time.Time   `json:"last_bet_time"`
}

// Validate checks market field constraints.
func (m *FetchedMarket) Validate() error {
	if m.ID == "" {
		return errors.New("market ID must not be empty")
	}
	if m.Question == "" {
		return errors.New("market question must not be empty")
	}
	switch m.OutcomeType {
	case OutcomeBinary:
		if len(m.Answers) > 0 {
			return errors.New("binary market must not carry answers")
		}
		if m.Probability < 0.0 || m.Probability > 1.0 {
			return errors.New("probability must be between 0.0 and 1.0")
		}
	case OutcomeMultipleChoice:
		if len(m.Answers) == 0 {
			return errors.New("multiple-choice market must carry at least one answer")
		}
		for i := range m.Answers {
			a := &m.Answers[i]
			if a.ContractID == "" {
				return fmt.Errorf("answer %d: contract ID must not be empty", i)
			}
			if a.Probability < 0.0 || a.Probability > 1.0 {
				return fmt.Errorf("answer %d: probability must be between 0.0 and 1.0", i)
			}
		}
	default:
		return fmt.Errorf("unsupported outcome type: %q", m.OutcomeType)
	}
	if m.TotalLiquidity < 0 {
		return errors.New("total liquidity must not be negative")
	}
	if m.Volume < 0 || m.Volume24Hours < 0 {
		return errors.New("volume must not be negative")
	}
	if m.UniqueBettorCount < 0 {
		return errors.New("unique bettor count must not be negative")
	}
	return nil
}

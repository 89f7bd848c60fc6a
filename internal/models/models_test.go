package models

import (
	"testing"
	"time"
)

func TestFetchedMarketValidate(t *testing.T) {
	tests := []struct {
		name    string
		market  FetchedMarket
		wantErr bool
	}{
		{
			name: "valid binary market",
			market: FetchedMarket{
				ID:          "mkt-1",
				Question:    "Will X happen?",
				OutcomeType: OutcomeBinary,
				Probability: 0.62,
			},
			wantErr: false,
		},
		{
			name: "valid multiple-choice market",
			market: FetchedMarket{
				ID:          "mkt-2",
				Question:    "Who wins?",
				OutcomeType: OutcomeMultipleChoice,
				Answers: []Answer{
					{ID: "a-1", ContractID: "c-1", Text: "Alice", Probability: 0.4},
					{ID: "a-2", ContractID: "c-2", Text: "Bob", Probability: 0.6},
				},
			},
			wantErr: false,
		},
		{
			name: "empty ID",
			market: FetchedMarket{
				Question:    "Will X happen?",
				OutcomeType: OutcomeBinary,
				Probability: 0.5,
			},
			wantErr: true,
		},
		{
			name: "binary market with answers",
			market: FetchedMarket{
				ID:          "mkt-3",
				Question:    "Will X happen?",
				OutcomeType: OutcomeBinary,
				Probability: 0.5,
				Answers:     []Answer{{ID: "a", ContractID: "c", Probability: 0.5}},
			},
			wantErr: true,
		},
		{
			name: "multiple-choice market without answers",
			market: FetchedMarket{
				ID:          "mkt-4",
				Question:    "Who wins?",
				OutcomeType: OutcomeMultipleChoice,
			},
			wantErr: true,
		},
		{
			name: "probability out of range",
			market: FetchedMarket{
				ID:          "mkt-5",
				Question:    "Will X happen?",
				OutcomeType: OutcomeBinary,
				Probability: 1.5,
			},
			wantErr: true,
		},
		{
			name: "answer without contract ID",
			market: FetchedMarket{
				ID:          "mkt-6",
				Question:    "Who wins?",
				OutcomeType: OutcomeMultipleChoice,
				Answers:     []Answer{{ID: "a", Text: "Alice", Probability: 0.5}},
			},
			wantErr: true,
		},
		{
			name: "unknown outcome type",
			market: FetchedMarket{
				ID:          "mkt-7",
				Question:    "Numeric?",
				OutcomeType: "PSEUDO_NUMERIC",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.market.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("FetchedMarket.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBetValidateAndCountable(t *testing.T) {
	now := time.Now()
	valid := Bet{
		ID:          "bet-1",
		ContractID:  "mkt-1",
		UserID:      "user-1",
		UserName:    "Alice",
		CreatedTime: now,
		ProbBefore:  0.50,
		ProbAfter:   0.55,
		IsFilled:    true,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid bet rejected: %v", err)
	}
	if !valid.Countable() {
		t.Error("filled, non-cancelled bet should be countable")
	}

	cancelled := valid
	cancelled.IsCancelled = true
	if cancelled.Countable() {
		t.Error("cancelled bet must not be countable")
	}

	unfilled := valid
	unfilled.IsFilled = false
	if unfilled.Countable() {
		t.Error("unfilled bet must not be countable")
	}

	tests := []struct {
		name   string
		mutate func(*Bet)
	}{
		{"empty ID", func(b *Bet) { b.ID = "" }},
		{"empty contract ID", func(b *Bet) { b.ContractID = "" }},
		{"empty user ID", func(b *Bet) { b.UserID = "" }},
		{"prob before out of range", func(b *Bet) { b.ProbBefore = -0.1 }},
		{"prob after out of range", func(b *Bet) { b.ProbAfter = 1.1 }},
		{"zero created time", func(b *Bet) { b.CreatedTime = time.Time{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := valid
			tt.mutate(&b)
			if err := b.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestTrackedQuestionValidate(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	window := 24
	badWindow := 0

	tests := []struct {
		name     string
		question TrackedQuestion
		wantErr  bool
	}{
		{
			name: "never notified",
			question: TrackedQuestion{
				ID:      "q-1",
				URL:     "https://manifold.markets/alice/will-x-happen",
				Tracked: true,
			},
			wantErr: false,
		},
		{
			name: "previously notified",
			question: TrackedQuestion{
				ID:                 "q-2",
				URL:                "https://manifold.markets/alice/will-x-happen",
				Tracked:            true,
				LastNotifiedAt:     &past,
				LastNotifiedWindow: &window,
			},
			wantErr: false,
		},
		{
			name:     "empty ID",
			question: TrackedQuestion{URL: "https://manifold.markets/a/b"},
			wantErr:  true,
		},
		{
			name:     "relative URL",
			question: TrackedQuestion{ID: "q-3", URL: "/alice/will-x-happen"},
			wantErr:  true,
		},
		{
			name: "non-positive window",
			question: TrackedQuestion{
				ID:                 "q-4",
				URL:                "https://manifold.markets/a/b",
				LastNotifiedAt:     &past,
				LastNotifiedWindow: &badWindow,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.question.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("TrackedQuestion.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCommentTopLevel(t *testing.T) {
	top := Comment{ID: "c-1", UserName: "Alice"}
	if !top.TopLevel() {
		t.Error("comment without reply-to should be top level")
	}
	reply := Comment{ID: "c-2", UserName: "Bob", ReplyToID: "c-1"}
	if reply.TopLevel() {
		t.Error("reply must not be top level")
	}
}

package models

// Mover is a per-participant aggregate over one bet window: the summed signed
// probability contribution of all their bets plus the individual deltas in
// window order. Movers are derived per evaluation and never persisted.
type Mover struct {
	UserID          string    `json:"user_id"`
	UserName        string    `json:"user_name"`
	ProbChangeTotal float64   `json:"prob_change_total"`
	NumBets         int       `json:"num_bets"`
	ProbChanges     []float64 `json:"prob_changes"`
}

// MoveStats summarizes how concentrated one side of a move is.
type MoveStats struct {
	// MoveSize is the summed contribution of the partition.
	MoveSize float64 `json:"move_size"`
	// EffectNNCohort is the fraction of participants, taken in order of
	// impact, whose cumulative contribution reaches NN% of the partition's
	// total move. Smaller means more concentrated.
	Effect20Cohort float64 `json:"effect_20_cohort"`
	Effect50Cohort float64 `json:"effect_50_cohort"`
	Effect80Cohort float64 `json:"effect_80_cohort"`
	// Top3MoversEffect is the share of the partition's move carried by its
	// three largest contributors. Zero when the partition moved nothing.
	Top3MoversEffect float64 `json:"top_3_movers_effect"`
}

// AggregateMove is one partition (movers or countermovers) with its stats.
// Movers are sorted descending by absolute contribution.
type AggregateMove struct {
	Movers []Mover   `json:"movers"`
	Stats  MoveStats `json:"stats"`
}

// MoveBreakdown attributes a window's total change to the participants who
// pushed with it (Move) and against it (CounterMove).
type MoveBreakdown struct {
	TotalChange float64       `json:"total_change"`
	Move        AggregateMove `json:"move"`
	CounterMove AggregateMove `json:"counter_move"`
}

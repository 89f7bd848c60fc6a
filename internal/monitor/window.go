package monitor

import (
	"math"
	"sort"
	"time"

	"github.com/foldwatch/foldwatch/internal/models"
)

// RecentBets filters a newest-first bet list down to bets created within the
// window ending at now. Ordering is preserved.
func RecentBets(bets []models.Bet, window time.Duration, now time.Time) []models.Bet {
	recent := make([]models.Bet, 0, len(bets))
	for _, b := range bets {
		if now.Sub(b.CreatedTime) <= window {
			recent = append(recent, b)
		}
	}
	return recent
}

// NetProbChange computes the signed net probability change over a
// newest-first bet window: the newest bet's starting probability minus the
// oldest bet's ending probability. An empty window is no change.
func NetProbChange(bets []models.Bet) float64 {
	if len(bets) == 0 {
		return 0
	}
	first := bets[0]
	last := bets[len(bets)-1]
	return first.ProbBefore - last.ProbAfter
}

// ComputeAggregateMove partitions the bettors in a newest-first bet window
// into movers (net contribution in the direction of the aggregate move) and
// countermovers, each with cohort effect statistics. Returns nil when the
// window is empty.
func ComputeAggregateMove(bets []models.Bet) *models.MoveBreakdown {
	if len(bets) == 0 {
		return nil
	}

	totalChange := bets[0].ProbAfter - bets[len(bets)-1].ProbBefore

	byUser := make(map[string]*models.Mover)
	var order []string
	for _, b := range bets {
		probChange := b.ProbAfter - b.ProbBefore
		m, ok := byUser[b.UserID]
		if !ok {
			m = &models.Mover{
				UserID:   b.UserID,
				UserName: b.UserName,
			}
			byUser[b.UserID] = m
			order = append(order, b.UserID)
		}
		m.ProbChangeTotal += probChange
		m.NumBets++
		m.ProbChanges = append(m.ProbChanges, probChange)
	}

	var movers, counterMovers []models.Mover
	var totalMove, totalCounterMove float64
	for _, userID := range order {
		m := byUser[userID]
		// A bettor whose bets cancel out has sign zero and lands with the
		// countermovers unless the market itself did not move.
		if sign(m.ProbChangeTotal) == sign(totalChange) {
			movers = append(movers, *m)
			totalMove += m.ProbChangeTotal
		} else {
			counterMovers = append(counterMovers, *m)
			totalCounterMove += m.ProbChangeTotal
		}
	}

	byAbsChange := func(ms []models.Mover) func(i, j int) bool {
		return func(i, j int) bool {
			return math.Abs(ms[i].ProbChangeTotal) > math.Abs(ms[j].ProbChangeTotal)
		}
	}
	sort.SliceStable(movers, byAbsChange(movers))
	sort.SliceStable(counterMovers, byAbsChange(counterMovers))

	return &models.MoveBreakdown{
		TotalChange: totalChange,
		Move: models.AggregateMove{
			Movers: movers,
			Stats:  moveStats(movers, totalMove),
		},
		CounterMove: models.AggregateMove{
			Movers: counterMovers,
			Stats:  moveStats(counterMovers, totalCounterMove),
		},
	}
}

func moveStats(movers []models.Mover, totalMove float64) models.MoveStats {
	return models.MoveStats{
		MoveSize:         totalMove,
		Effect20Cohort:   percentileEffect(0.2, movers, totalMove),
		Effect50Cohort:   percentileEffect(0.5, movers, totalMove),
		Effect80Cohort:   percentileEffect(0.8, movers, totalMove),
		Top3MoversEffect: top3Effect(movers, totalMove),
	}
}

// percentileEffect walks movers in descending impact order and returns the
// fraction of the cohort needed before their cumulative absolute contribution
// reaches the given share of the total move.
func percentileEffect(effectSize float64, movers []models.Mover, totalMove float64) float64 {
	if len(movers) == 0 {
		return 0
	}
	var cumulative float64
	count := 0
	for _, m := range movers {
		cumulative += math.Abs(m.ProbChangeTotal)
		count++
		if cumulative >= math.Abs(totalMove)*effectSize {
			break
		}
	}
	return float64(count) / float64(len(movers))
}

func top3Effect(movers []models.Mover, totalMove float64) float64 {
	if totalMove == 0 {
		return 0
	}
	var sum float64
	for i, m := range movers {
		if i >= 3 {
			break
		}
		sum += m.ProbChangeTotal
	}
	return sum / totalMove
}

// sign mirrors three-way signum so mover partitioning treats a flat bettor
// as aligned only with a flat market.
func sign(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

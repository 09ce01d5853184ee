// Package scoring maps elapsed round time to points through an ordered
// tier table. The table is deployment-configurable; the lookup (first
// ascending threshold match) is not.
package scoring

import (
	"fmt"
	"time"
)

// Tier awards Points when the elapsed time is at most MaxSeconds.
type Tier struct {
	MaxSeconds int `yaml:"max_seconds" json:"max_seconds"`
	Points     int `yaml:"points" json:"points"`
}

// Table is an ascending list of tiers. Elapsed time beyond the last
// tier's threshold scores zero.
type Table struct {
	tiers []Tier
}

// DefaultTiers is the reference tier table.
var DefaultTiers = []Tier{
	{MaxSeconds: 30, Points: 100},
	{MaxSeconds: 60, Points: 75},
	{MaxSeconds: 90, Points: 50},
	{MaxSeconds: 120, Points: 30},
	{MaxSeconds: 180, Points: 15},
	{MaxSeconds: 240, Points: 10},
}

// NewTable validates and builds a Table. Thresholds must be strictly
// ascending and positive; points must be non-negative.
func NewTable(tiers []Tier) (*Table, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("scoring: tier table must not be empty")
	}
	prev := 0
	for i, t := range tiers {
		if t.MaxSeconds <= prev {
			return nil, fmt.Errorf("scoring: tier %d threshold %ds not ascending", i, t.MaxSeconds)
		}
		if t.Points < 0 {
			return nil, fmt.Errorf("scoring: tier %d has negative points", i)
		}
		prev = t.MaxSeconds
	}
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return &Table{tiers: out}, nil
}

// MustDefault returns the reference table.
func MustDefault() *Table {
	t, err := NewTable(DefaultTiers)
	if err != nil {
		panic(err)
	}
	return t
}

// Score returns the points for the given elapsed time.
func (t *Table) Score(elapsed time.Duration) int {
	return t.ScoreWithMultiplier(elapsed, 1.0)
}

// ScoreWithMultiplier applies an optional power-up multiplier to the tier
// points. Negative elapsed times score zero.
func (t *Table) ScoreWithMultiplier(elapsed time.Duration, multiplier float64) int {
	if elapsed < 0 {
		return 0
	}
	secs := elapsed.Seconds()
	for _, tier := range t.tiers {
		if secs <= float64(tier.MaxSeconds) {
			return int(float64(tier.Points) * multiplier)
		}
	}
	return 0
}

// Estimate is Score for display-only projections at arbitrary elapsed
// times. It exists so callers do not look like they are settling a round.
func (t *Table) Estimate(elapsed time.Duration) int {
	return t.Score(elapsed)
}

// MaxPoints returns the highest award in the table.
func (t *Table) MaxPoints() int {
	max := 0
	for _, tier := range t.tiers {
		if tier.Points > max {
			max = tier.Points
		}
	}
	return max
}

// Tiers returns a copy of the tier table.
func (t *Table) Tiers() []Tier {
	out := make([]Tier, len(t.tiers))
	copy(out, t.tiers)
	return out
}

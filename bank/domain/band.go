package domain

import (
	"fmt"
	"math"
	"sort"
)

// ScoreBand maps the inclusive score range [ScoreMin, ScoreMax] to a ceiling.
type ScoreBand struct {
	ScoreMin int     `json:"score_min" yaml:"score_min"`
	ScoreMax int     `json:"score_max" yaml:"score_max"`
	MaxLimit float64 `json:"max_limit" yaml:"max_limit"`
}

func (b ScoreBand) Contains(score int) bool {
	return score >= b.ScoreMin && score <= b.ScoreMax
}

type BandTable []ScoreBand

// DefaultBands is the table installed when no seed file overrides it.
func DefaultBands() BandTable {
	return BandTable{
		{ScoreMin: 0, ScoreMax: 299, MaxLimit: 1000},
		{ScoreMin: 300, ScoreMax: 499, MaxLimit: 3000},
		{ScoreMin: 500, ScoreMax: 699, MaxLimit: 8000},
		{ScoreMin: 700, ScoreMax: 849, MaxLimit: 15000},
		{ScoreMin: 850, ScoreMax: 1000, MaxLimit: 50000},
	}
}

// Validate requires the bands to tile [MinScore, MaxScore] without gaps or
// overlaps, with ceilings that never decrease as scores rise. A broken table is
// a configuration defect, so every violation is ErrDataAccess.
func (t BandTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: score band table is empty", ErrDataAccess)
	}
	next := MinScore
	ceiling := 0.0
	for i, band := range t.Sorted() {
		if band.ScoreMin >= band.ScoreMax {
			return fmt.Errorf("%w: band [%d,%d] must have score_min below score_max", ErrDataAccess, band.ScoreMin, band.ScoreMax)
		}
		if band.ScoreMin != next {
			return fmt.Errorf("%w: band starting at %d leaves a gap or overlap at %d", ErrDataAccess, band.ScoreMin, next)
		}
		if band.MaxLimit < 0 || math.IsNaN(band.MaxLimit) || math.IsInf(band.MaxLimit, 0) {
			return fmt.Errorf("%w: band [%d,%d] has invalid max_limit %v", ErrDataAccess, band.ScoreMin, band.ScoreMax, band.MaxLimit)
		}
		if i > 0 && band.MaxLimit < ceiling {
			return fmt.Errorf("%w: band [%d,%d] lowers max_limit from %.2f to %.2f", ErrDataAccess, band.ScoreMin, band.ScoreMax, ceiling, band.MaxLimit)
		}
		ceiling = band.MaxLimit
		next = band.ScoreMax + 1
	}
	if next != MaxScore+1 {
		return fmt.Errorf("%w: bands stop at %d instead of %d", ErrDataAccess, next-1, MaxScore)
	}
	return nil
}

func (t BandTable) Sorted() BandTable {
	out := make(BandTable, len(t))
	copy(out, t)
	sort.Slice(out, func(i, j int) bool { return out[i].ScoreMin < out[j].ScoreMin })
	return out
}

// MaxLimitFor returns the ceiling of the band containing score.
func (t BandTable) MaxLimitFor(score int) (float64, error) {
	for _, band := range t {
		if band.Contains(score) {
			return band.MaxLimit, nil
		}
	}
	return 0, fmt.Errorf("%w: no score band covers score %d", ErrDataAccess, score)
}

package recommend

import (
	"fmt"
	"sort"
)

// rule is a declarative set of inclusive threshold comparisons keyed by
// feature name. A row matches when every comparison holds.
type rule struct {
	mins map[string]float64 // feature >= value
	maxs map[string]float64 // feature <= value
}

// moodRules are the eight fixed mood filters. Static configuration, not
// derived from data.
var moodRules = map[string]rule{
	"happy":     {mins: map[string]float64{"valence": 0.6, "energy": 0.5}},
	"sad":       {maxs: map[string]float64{"valence": 0.4, "energy": 0.4}},
	"energetic": {mins: map[string]float64{"energy": 0.7, "danceability": 0.5}},
	"calm":      {mins: map[string]float64{"acousticness": 0.5}, maxs: map[string]float64{"energy": 0.4}},
	"dark":      {mins: map[string]float64{"energy": 0.6}, maxs: map[string]float64{"valence": 0.3}},
	"romantic":  {mins: map[string]float64{"valence": 0.5, "acousticness": 0.4}, maxs: map[string]float64{"energy": 0.6}},
	"angry":     {mins: map[string]float64{"energy": 0.7}, maxs: map[string]float64{"valence": 0.4}},
	"party":     {mins: map[string]float64{"danceability": 0.7, "energy": 0.6, "valence": 0.5}},
}

// tempoRules are the three fixed tempo bands. The bands deliberately
// overlap at 100 and 120 BPM: a track at exactly 100 is both slow and
// medium, and one at exactly 120 is both medium and fast.
var tempoRules = map[string]rule{
	"slow":   {maxs: map[string]float64{"tempo": 100}},
	"medium": {mins: map[string]float64{"tempo": 100}, maxs: map[string]float64{"tempo": 120}},
	"fast":   {mins: map[string]float64{"tempo": 120}},
}

// Moods returns the valid mood rule names, sorted.
func Moods() []string {
	return sortedKeys(moodRules)
}

// Tempos returns the valid tempo band names, sorted.
func Tempos() []string {
	return sortedKeys(tempoRules)
}

func sortedKeys(rules map[string]rule) []string {
	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// matches reports whether every threshold comparison of r holds for the row.
func (r rule) matches(row *row) bool {
	for feature, v := range r.mins {
		if row.Feature(feature) < v {
			return false
		}
	}
	for feature, v := range r.maxs {
		if row.Feature(feature) > v {
			return false
		}
	}
	return true
}

// moodMask evaluates a mood rule against the current catalog, one boolean
// per row. Computed fresh on every call.
func (rec *Recommender) moodMask(mood string) ([]bool, error) {
	r, ok := moodRules[mood]
	if !ok {
		return nil, fmt.Errorf("%w: %q (valid moods: %v)", ErrUnknownMood, mood, Moods())
	}
	return rec.applyRule(r), nil
}

// tempoMask evaluates a tempo band against the current catalog.
func (rec *Recommender) tempoMask(tempo string) ([]bool, error) {
	r, ok := tempoRules[tempo]
	if !ok {
		return nil, fmt.Errorf("%w: %q (valid tempos: %v)", ErrUnknownTempo, tempo, Tempos())
	}
	return rec.applyRule(r), nil
}

func (rec *Recommender) applyRule(r rule) []bool {
	mask := make([]bool, len(rec.rows))
	for i := range rec.rows {
		mask[i] = r.matches(&rec.rows[i])
	}
	return mask
}

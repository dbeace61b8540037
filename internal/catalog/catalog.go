// Package catalog defines the song catalog model shared by the
// recommendation and clustering engines.
package catalog

import "math"

// FeatureNames lists the raw audio feature columns every engine-ready track
// must carry, in canonical column order.
var FeatureNames = []string{
	"valence",
	"energy",
	"danceability",
	"tempo",
	"acousticness",
	"instrumentalness",
	"liveness",
	"speechiness",
	"loudness",
}

// Track represents one catalog row: identity, descriptive metadata and the
// raw audio features. A missing feature value is represented as NaN; the
// engines drop such rows before use.
type Track struct {
	ID         string
	Name       string
	Artist     string
	Album      string
	Popularity float64
	URL        string

	Valence          float64
	Energy           float64
	Danceability     float64
	Tempo            float64 // BPM, unbounded
	Acousticness     float64
	Instrumentalness float64
	Liveness         float64
	Speechiness      float64
	Loudness         float64 // dB, unbounded
}

// Feature returns the raw audio feature with the given column name.
// Unknown names return NaN.
func (t *Track) Feature(name string) float64 {
	switch name {
	case "valence":
		return t.Valence
	case "energy":
		return t.Energy
	case "danceability":
		return t.Danceability
	case "tempo":
		return t.Tempo
	case "acousticness":
		return t.Acousticness
	case "instrumentalness":
		return t.Instrumentalness
	case "liveness":
		return t.Liveness
	case "speechiness":
		return t.Speechiness
	case "loudness":
		return t.Loudness
	}
	return math.NaN()
}

// setFeature assigns the raw audio feature with the given column name.
func (t *Track) setFeature(name string, v float64) {
	switch name {
	case "valence":
		t.Valence = v
	case "energy":
		t.Energy = v
	case "danceability":
		t.Danceability = v
	case "tempo":
		t.Tempo = v
	case "acousticness":
		t.Acousticness = v
	case "instrumentalness":
		t.Instrumentalness = v
	case "liveness":
		t.Liveness = v
	case "speechiness":
		t.Speechiness = v
	case "loudness":
		t.Loudness = v
	}
}

// HasAllFeatures reports whether every raw audio feature is present.
func (t *Track) HasAllFeatures() bool {
	for _, name := range FeatureNames {
		if math.IsNaN(t.Feature(name)) {
			return false
		}
	}
	return true
}

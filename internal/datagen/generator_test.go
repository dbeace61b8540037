package datagen

import (
	"math"
	"testing"

	"github.com/jeff13in/VibeMap/internal/catalog"
)

// sameTrack compares rows treating NaN cells as equal.
func sameTrack(a, b catalog.Track) bool {
	if a.ID != b.ID || a.Name != b.Name || a.Artist != b.Artist ||
		a.Album != b.Album || a.Popularity != b.Popularity || a.URL != b.URL {
		return false
	}
	for _, name := range catalog.FeatureNames {
		x, y := a.Feature(name), b.Feature(name)
		if x != y && !(math.IsNaN(x) && math.IsNaN(y)) {
			return false
		}
	}
	return true
}

func TestGenerateReproducible(t *testing.T) {
	cfg := Config{Tracks: 50, Seed: 7, NullFrac: 0.1, DupFrac: 0.1, OutlierFrac: 0.1}

	a := Generate(cfg)
	b := Generate(cfg)
	if len(a) != len(b) {
		t.Fatalf("runs produced %d and %d rows for the same seed", len(a), len(b))
	}
	for i := range a {
		if !sameTrack(a[i], b[i]) {
			t.Fatalf("row %d differs between runs:\n%+v\n%+v", i, a[i], b[i])
		}
	}
}

func TestGenerateReproducibleWithNulls(t *testing.T) {
	cfg := Config{Tracks: 40, Seed: 11, NullFrac: 0.2}

	a := Generate(cfg)
	b := Generate(cfg)
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Fatalf("row %d: id %s vs %s", i, a[i].ID, b[i].ID)
		}
		if math.IsNaN(a[i].Tempo) != math.IsNaN(b[i].Tempo) {
			t.Fatalf("row %d: null injection differs between runs", i)
		}
	}
}

func TestGenerateCleanCatalog(t *testing.T) {
	tracks := Generate(Config{Tracks: 200, Seed: 42})

	if len(tracks) != 200 {
		t.Fatalf("got %d tracks, want 200", len(tracks))
	}

	seen := make(map[string]bool, len(tracks))
	for i, tr := range tracks {
		if !tr.HasAllFeatures() {
			t.Fatalf("row %d has missing features in a clean catalog", i)
		}
		if seen[tr.ID] {
			t.Errorf("duplicate id %s in a clean catalog", tr.ID)
		}
		seen[tr.ID] = true

		for _, v := range []float64{tr.Energy, tr.Valence, tr.Danceability, tr.Acousticness, tr.Instrumentalness, tr.Liveness, tr.Speechiness} {
			if v < 0 || v > 1 {
				t.Fatalf("row %d: bounded feature %v out of [0,1]", i, v)
			}
		}
		if tr.Tempo < 60 || tr.Tempo > 200 {
			t.Errorf("row %d: tempo %v out of [60,200]", i, tr.Tempo)
		}
		if tr.Loudness < -30 || tr.Loudness > 0 {
			t.Errorf("row %d: loudness %v out of [-30,0]", i, tr.Loudness)
		}
		if tr.Popularity < 0 || tr.Popularity > 100 {
			t.Errorf("row %d: popularity %v out of [0,100]", i, tr.Popularity)
		}
	}
}

func TestInjectNulls(t *testing.T) {
	tracks := Generate(Config{Tracks: 100, Seed: 42, NullFrac: 0.1})

	var nulls int
	for i := range tracks {
		for _, col := range nullTargets {
			if math.IsNaN(tracks[i].Feature(col)) {
				nulls++
			}
		}
	}
	// 10 rows hit per target column.
	if nulls != 40 {
		t.Errorf("got %d null cells, want 40", nulls)
	}
}

func TestInjectDuplicates(t *testing.T) {
	tracks := Generate(Config{Tracks: 100, Seed: 42, DupFrac: 0.1})

	if len(tracks) != 110 {
		t.Fatalf("got %d rows, want 110 after duplication", len(tracks))
	}
	ids := make(map[string]int)
	for i := range tracks {
		ids[tracks[i].ID]++
	}
	var dups int
	for _, n := range ids {
		dups += n - 1
	}
	if dups != 10 {
		t.Errorf("got %d duplicated rows, want 10", dups)
	}
}

func TestInjectOutliers(t *testing.T) {
	tracks := Generate(Config{Tracks: 100, Seed: 42, OutlierFrac: 0.2})

	var tempoOut, featureOut int
	for i := range tracks {
		if tracks[i].Tempo < 50 || tracks[i].Tempo > 200 {
			tempoOut++
		}
		for _, col := range boundedFeatures {
			if v := tracks[i].Feature(col); v < 0 || v > 1 {
				featureOut++
				break
			}
		}
	}
	if tempoOut == 0 {
		t.Error("no tempo outliers injected")
	}
	if featureOut == 0 {
		t.Error("no feature outliers injected")
	}
}

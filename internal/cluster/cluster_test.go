package cluster

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/jeff13in/VibeMap/internal/catalog"
)

// blobTracks builds three tight, well-separated groups of eight tracks
// each, designed so the groups land in the happy, melancholic and party
// regions of the label decision table.
func blobTracks() []catalog.Track {
	blobs := []struct {
		id       string
		valence  float64
		energy   float64
		dance    float64
		tempo    float64
		acoustic float64
	}{
		{id: "happy", valence: 0.85, energy: 0.85, dance: 0.8, tempo: 130, acoustic: 0.1},
		{id: "sad", valence: 0.15, energy: 0.2, dance: 0.3, tempo: 75, acoustic: 0.8},
		{id: "party", valence: 0.55, energy: 0.7, dance: 0.9, tempo: 122, acoustic: 0.15},
	}

	var tracks []catalog.Track
	for _, b := range blobs {
		for i := 0; i < 8; i++ {
			off := float64(i) * 0.004
			tracks = append(tracks, catalog.Track{
				ID:               fmt.Sprintf("%s-%d", b.id, i),
				Name:             fmt.Sprintf("Track %s %d", b.id, i),
				Artist:           "Artist " + b.id,
				Valence:          b.valence + off,
				Energy:           b.energy + off,
				Danceability:     b.dance + off,
				Tempo:            b.tempo + float64(i),
				Acousticness:     b.acoustic + off,
				Instrumentalness: 0.1,
				Liveness:         0.15,
				Speechiness:      0.05,
				Loudness:         -7,
			})
		}
	}
	return tracks
}

func fitted(t *testing.T, autoOptimize bool) *Engine {
	t.Helper()
	e := New(Config{Clusters: 3, Seed: 42})
	if err := e.Fit(blobTracks(), autoOptimize); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	return e
}

// groupsByPrefix maps each blob id prefix to the set of cluster ids its
// tracks were assigned.
func groupsByPrefix(assignments []Assignment) map[string]map[int]bool {
	groups := make(map[string]map[int]bool)
	for _, a := range assignments {
		prefix := a.ID[:len(a.ID)-2]
		if groups[prefix] == nil {
			groups[prefix] = make(map[int]bool)
		}
		groups[prefix][a.Cluster] = true
	}
	return groups
}

func TestFitAssignsEveryRow(t *testing.T) {
	e := fitted(t, false)

	assignments, err := e.Assignments()
	if err != nil {
		t.Fatalf("Assignments() error = %v", err)
	}
	if len(assignments) != 24 {
		t.Fatalf("got %d assignments, want 24", len(assignments))
	}
	for _, a := range assignments {
		if a.Cluster < 0 || a.Cluster >= e.K() {
			t.Errorf("track %s assigned to cluster %d, want 0..%d", a.ID, a.Cluster, e.K()-1)
		}
	}
}

func TestFitSeparatesBlobs(t *testing.T) {
	e := fitted(t, false)

	assignments, err := e.Assignments()
	if err != nil {
		t.Fatal(err)
	}

	groups := groupsByPrefix(assignments)
	seen := make(map[int]string)
	for prefix, ids := range groups {
		if len(ids) != 1 {
			t.Errorf("blob %q split across clusters %v", prefix, ids)
			continue
		}
		for id := range ids {
			if other, dup := seen[id]; dup {
				t.Errorf("blobs %q and %q merged into cluster %d", prefix, other, id)
			}
			seen[id] = prefix
		}
	}
}

func TestFitReproducible(t *testing.T) {
	a := fitted(t, false)
	b := fitted(t, false)

	aAssign, _ := a.Assignments()
	bAssign, _ := b.Assignments()
	for i := range aAssign {
		if aAssign[i].Cluster != bAssign[i].Cluster {
			t.Fatalf("row %d: cluster %d vs %d for identical data and seed", i, aAssign[i].Cluster, bAssign[i].Cluster)
		}
	}

	// A fit after an auto-optimize sweep must match a fit without one.
	c := New(Config{Clusters: 3, Seed: 42})
	if err := c.Fit(blobTracks(), true); err != nil {
		t.Fatal(err)
	}
	if c.K() != 3 {
		t.Skipf("sweep picked k=%d, cannot compare assignments", c.K())
	}
	cAssign, _ := c.Assignments()
	for i := range aAssign {
		if aAssign[i].Cluster != cAssign[i].Cluster {
			t.Fatalf("row %d: cluster %d vs %d depending on whether the sweep ran", i, aAssign[i].Cluster, cAssign[i].Cluster)
		}
	}
}

func TestAutoOptimize(t *testing.T) {
	e := fitted(t, true)

	if e.K() != 3 {
		t.Errorf("K() = %d, want 3 for three well-separated blobs", e.K())
	}

	sweep := e.Sweep()
	if len(sweep) != maxSweepK-minSweepK+1 {
		t.Fatalf("sweep has %d candidates, want %d", len(sweep), maxSweepK-minSweepK+1)
	}
	for i, cs := range sweep {
		if cs.K != minSweepK+i {
			t.Errorf("candidate %d has K=%d, want %d", i, cs.K, minSweepK+i)
		}
		if cs.Silhouette < -1 || cs.Silhouette > 1 {
			t.Errorf("k=%d: silhouette %v out of [-1,1]", cs.K, cs.Silhouette)
		}
		if cs.DaviesBouldin < 0 {
			t.Errorf("k=%d: Davies-Bouldin %v negative", cs.K, cs.DaviesBouldin)
		}
	}

	sil, db, err := e.Quality()
	if err != nil {
		t.Fatal(err)
	}
	if sil < 0.5 {
		t.Errorf("silhouette = %v, want high separation for tight blobs", sil)
	}
	if db < 0 {
		t.Errorf("Davies-Bouldin = %v, want non-negative", db)
	}
}

func TestFixedCountWithoutSweep(t *testing.T) {
	e := fitted(t, false)
	if sweep := e.Sweep(); len(sweep) != 0 {
		t.Errorf("Sweep() = %v, want empty without auto-optimize", sweep)
	}
	if e.K() != 3 {
		t.Errorf("K() = %d, want configured 3", e.K())
	}
}

func TestStateMachine(t *testing.T) {
	e := New(Config{})

	if _, err := e.Assignments(); !errors.Is(err, ErrNotFitted) {
		t.Errorf("Assignments() before Fit: error = %v, want ErrNotFitted", err)
	}
	if _, _, err := e.Quality(); !errors.Is(err, ErrNotFitted) {
		t.Errorf("Quality() before Fit: error = %v, want ErrNotFitted", err)
	}
	if _, err := e.Analyze(); !errors.Is(err, ErrNotFitted) {
		t.Errorf("Analyze() before Fit: error = %v, want ErrNotFitted", err)
	}

	if err := e.Fit(blobTracks(), false); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if _, err := e.Labels(); !errors.Is(err, ErrNotAnalyzed) {
		t.Errorf("Labels() before Analyze: error = %v, want ErrNotAnalyzed", err)
	}
	if _, err := e.Profiles(); !errors.Is(err, ErrNotAnalyzed) {
		t.Errorf("Profiles() before Analyze: error = %v, want ErrNotAnalyzed", err)
	}

	if _, err := e.Analyze(); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if _, err := e.Labels(); err != nil {
		t.Errorf("Labels() after Analyze: error = %v", err)
	}
}

func TestSelectFeatures(t *testing.T) {
	tracks := blobTracks()

	// Missing a projection feature drops the row; missing a feature
	// outside the projection does not.
	tracks[0].Valence = math.NaN()
	tracks[1].Liveness = math.NaN()

	kept, raw := SelectFeatures(tracks)
	if len(kept) != len(tracks)-1 {
		t.Fatalf("kept %d rows, want %d", len(kept), len(tracks)-1)
	}
	for i := range kept {
		if kept[i].ID == "happy-0" {
			t.Error("row missing valence survived the projection drop")
		}
	}

	// Tempo is min-max normalized over the kept rows.
	rows, cols := raw.Dims()
	if rows != len(kept) || cols != len(FeatureNames) {
		t.Fatalf("projection is %dx%d, want %dx%d", rows, cols, len(kept), len(FeatureNames))
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < rows; i++ {
		v := raw.At(i, 3)
		if v < 0 || v > 1 {
			t.Errorf("row %d: tempo_normalized = %v out of [0,1]", i, v)
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo != 0 || hi != 1 {
		t.Errorf("tempo_normalized spans [%v,%v], want [0,1]", lo, hi)
	}
}

func TestSelectFeaturesConstantTempo(t *testing.T) {
	tracks := blobTracks()
	for i := range tracks {
		tracks[i].Tempo = 115
	}

	_, raw := SelectFeatures(tracks)
	rows, _ := raw.Dims()
	for i := 0; i < rows; i++ {
		if raw.At(i, 3) != 0 {
			t.Fatalf("row %d: tempo_normalized = %v, want 0 for constant tempo", i, raw.At(i, 3))
		}
	}
}

func TestAnalyze(t *testing.T) {
	e := fitted(t, false)

	labels, err := e.Analyze()
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	got := make(map[string]bool)
	for _, l := range labels {
		got[l] = true
	}
	for _, want := range []string{"Energetic & Happy", "Melancholic", "Party & Dance"} {
		if !got[want] {
			t.Errorf("labels %v missing %q", labels, want)
		}
	}

	profiles, err := e.Profiles()
	if err != nil {
		t.Fatal(err)
	}
	var total int
	for _, p := range profiles {
		total += p.Size
		// Analyze reports raw BPM, not the normalized column.
		if p.Size > 0 && p.Means["tempo"] < 10 {
			t.Errorf("cluster %d: mean tempo %v looks normalized, want raw BPM", p.Cluster, p.Means["tempo"])
		}
		if p.Label != labels[p.Cluster] {
			t.Errorf("cluster %d: profile label %q != label map %q", p.Cluster, p.Label, labels[p.Cluster])
		}
	}
	if total != 24 {
		t.Errorf("profile sizes sum to %d, want 24", total)
	}
}

func TestAnalyzeReturnsFreshMap(t *testing.T) {
	e := fitted(t, false)

	labels, err := e.Analyze()
	if err != nil {
		t.Fatal(err)
	}
	labels[0] = "tampered"

	stored, err := e.Labels()
	if err != nil {
		t.Fatal(err)
	}
	if stored[0] == "tampered" {
		t.Error("mutating the returned label map changed the engine's stored labels")
	}
}

func TestFitTooFewRows(t *testing.T) {
	e := New(Config{Clusters: 3})
	if err := e.Fit(blobTracks()[:1], false); !errors.Is(err, ErrTooFewRows) {
		t.Errorf("Fit() with 1 row: error = %v, want ErrTooFewRows", err)
	}

	e = New(Config{Clusters: 30})
	if err := e.Fit(blobTracks(), false); !errors.Is(err, ErrTooFewRows) {
		t.Errorf("Fit() with k > rows: error = %v, want ErrTooFewRows", err)
	}
}

package recommend

import (
	"errors"
	"testing"

	"github.com/jeff13in/VibeMap/internal/catalog"
)

// testTracks is a small fixed catalog covering every mood rule and the
// tempo band boundaries.
func testTracks() []catalog.Track {
	base := func(id string) catalog.Track {
		return catalog.Track{
			ID: id, Name: "Track " + id, Artist: "Artist " + id,
			Instrumentalness: 0.1, Liveness: 0.15, Speechiness: 0.05, Loudness: -7,
		}
	}

	t1 := base("t1") // happy, party, fast
	t1.Valence, t1.Energy, t1.Danceability, t1.Tempo, t1.Acousticness = 0.8, 0.8, 0.8, 128, 0.1

	t2 := base("t2") // sad, slow
	t2.Valence, t2.Energy, t2.Danceability, t2.Tempo, t2.Acousticness = 0.2, 0.3, 0.4, 80, 0.45

	t3 := base("t3") // dark, angry, fast
	t3.Valence, t3.Energy, t3.Danceability, t3.Tempo, t3.Acousticness = 0.25, 0.75, 0.5, 140, 0.05

	t4 := base("t4") // calm, romantic, slow+medium boundary (100 BPM)
	t4.Valence, t4.Energy, t4.Danceability, t4.Tempo, t4.Acousticness = 0.55, 0.35, 0.45, 100, 0.7

	t5 := base("t5") // energetic, medium+fast boundary (120 BPM)
	t5.Valence, t5.Energy, t5.Danceability, t5.Tempo, t5.Acousticness = 0.5, 0.75, 0.6, 120, 0.2

	t6 := base("t6") // happy, medium
	t6.Valence, t6.Energy, t6.Danceability, t6.Tempo, t6.Acousticness = 0.65, 0.55, 0.5, 110, 0.3

	return []catalog.Track{t1, t2, t3, t4, t5, t6}
}

func prepared(t *testing.T) *Recommender {
	t.Helper()
	rec := New(Config{})
	if err := rec.Prepare(testTracks()); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	return rec
}

func ids(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.ID
	}
	return out
}

func equalIDs(a []string, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestByMood(t *testing.T) {
	tests := []struct {
		mood string
		want []string
	}{
		{mood: "happy", want: []string{"t1", "t6"}},
		{mood: "sad", want: []string{"t2"}},
		{mood: "energetic", want: []string{"t1", "t3", "t5"}},
		{mood: "calm", want: []string{"t4"}},
		{mood: "dark", want: []string{"t3"}},
		{mood: "romantic", want: []string{"t4"}},
		{mood: "angry", want: []string{"t3"}},
		{mood: "party", want: []string{"t1"}},
	}

	rec := prepared(t)
	for _, tt := range tests {
		t.Run(tt.mood, func(t *testing.T) {
			got, err := rec.ByMood(tt.mood, 10)
			if err != nil {
				t.Fatalf("ByMood(%q) error = %v", tt.mood, err)
			}
			if !equalIDs(ids(got), tt.want) {
				t.Errorf("ByMood(%q) = %v, want %v", tt.mood, ids(got), tt.want)
			}
		})
	}
}

// Every row a mood rule returns must satisfy every threshold of that rule.
func TestByMoodRowsSatisfyThresholds(t *testing.T) {
	rec := prepared(t)
	for _, mood := range Moods() {
		t.Run(mood, func(t *testing.T) {
			results, err := rec.ByMood(mood, 100)
			if err != nil {
				t.Fatalf("ByMood(%q) error = %v", mood, err)
			}
			r := moodRules[mood]
			for _, res := range results {
				row := row{Track: res.Track, TempoNormalized: res.TempoNormalized, LoudnessNormalized: res.LoudnessNormalized}
				for feature, v := range r.mins {
					if row.Feature(feature) < v {
						t.Errorf("%s: %s = %v below min %v", res.ID, feature, row.Feature(feature), v)
					}
				}
				for feature, v := range r.maxs {
					if row.Feature(feature) > v {
						t.Errorf("%s: %s = %v above max %v", res.ID, feature, row.Feature(feature), v)
					}
				}
			}
		})
	}
}

func TestByTempo(t *testing.T) {
	tests := []struct {
		tempo string
		want  []string
	}{
		{tempo: "slow", want: []string{"t2", "t4"}},
		{tempo: "medium", want: []string{"t4", "t5", "t6"}},
		{tempo: "fast", want: []string{"t1", "t3", "t5"}},
	}

	rec := prepared(t)
	for _, tt := range tests {
		t.Run(tt.tempo, func(t *testing.T) {
			got, err := rec.ByTempo(tt.tempo, 10)
			if err != nil {
				t.Fatalf("ByTempo(%q) error = %v", tt.tempo, err)
			}
			if !equalIDs(ids(got), tt.want) {
				t.Errorf("ByTempo(%q) = %v, want %v", tt.tempo, ids(got), tt.want)
			}
		})
	}
}

// Tracks at exactly 100 BPM belong to both slow and medium; 120 BPM to
// both medium and fast. The overlap is part of the band definition.
func TestTempoBoundaryOverlap(t *testing.T) {
	rec := prepared(t)

	slow, _ := rec.ByTempo("slow", 10)
	medium, _ := rec.ByTempo("medium", 10)
	fast, _ := rec.ByTempo("fast", 10)

	contains := func(results []Result, id string) bool {
		for _, r := range results {
			if r.ID == id {
				return true
			}
		}
		return false
	}

	if !contains(slow, "t4") || !contains(medium, "t4") {
		t.Error("track at 100 BPM should appear in both slow and medium")
	}
	if !contains(medium, "t5") || !contains(fast, "t5") {
		t.Error("track at 120 BPM should appear in both medium and fast")
	}
}

func TestByMoodAndTempo(t *testing.T) {
	rec := prepared(t)

	got, err := rec.ByMoodAndTempo("happy", "fast", 10)
	if err != nil {
		t.Fatalf("ByMoodAndTempo() error = %v", err)
	}
	if !equalIDs(ids(got), []string{"t1"}) {
		t.Errorf("ByMoodAndTempo(happy, fast) = %v, want [t1]", ids(got))
	}

	// Overly restrictive combination: empty result, no error.
	got, err = rec.ByMoodAndTempo("sad", "fast", 10)
	if err != nil {
		t.Fatalf("ByMoodAndTempo() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result, got %v", ids(got))
	}
}

func TestUnknownRuleNames(t *testing.T) {
	rec := prepared(t)

	if _, err := rec.ByMood("furious", 5); !errors.Is(err, ErrUnknownMood) {
		t.Errorf("ByMood error = %v, want ErrUnknownMood", err)
	}
	if _, err := rec.ByTempo("allegro", 5); !errors.Is(err, ErrUnknownTempo) {
		t.Errorf("ByTempo error = %v, want ErrUnknownTempo", err)
	}
	if _, err := rec.ByMoodAndTempo("happy", "allegro", 5); !errors.Is(err, ErrUnknownTempo) {
		t.Errorf("ByMoodAndTempo error = %v, want ErrUnknownTempo", err)
	}
}

func TestResultCountCap(t *testing.T) {
	rec := prepared(t)

	got, err := rec.ByTempo("fast", 2)
	if err != nil {
		t.Fatalf("ByTempo() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected exactly 2 rows, got %d", len(got))
	}
	// Catalog order preserved: first two fast tracks.
	if !equalIDs(ids(got), []string{"t1", "t3"}) {
		t.Errorf("ByTempo(fast, 2) = %v, want [t1 t3]", ids(got))
	}
}

func TestQueriesBeforePrepare(t *testing.T) {
	rec := New(Config{})
	if _, err := rec.ByMood("happy", 5); !errors.Is(err, ErrNotReady) {
		t.Errorf("ByMood error = %v, want ErrNotReady", err)
	}
	if _, err := rec.BySong("t1", MethodKNN, 5); !errors.Is(err, ErrNotReady) {
		t.Errorf("BySong error = %v, want ErrNotReady", err)
	}
}

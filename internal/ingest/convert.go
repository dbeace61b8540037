package ingest

import (
	"math"
	"strings"

	"github.com/zmb3/spotify/v2"

	"github.com/jeff13in/VibeMap/internal/catalog"
)

// convertTrack maps a Spotify track to a catalog row. All feature values
// start as NaN until audio features arrive.
func convertTrack(full *spotify.FullTrack) catalog.Track {
	artists := make([]string, len(full.Artists))
	for i, a := range full.Artists {
		artists[i] = a.Name
	}

	return catalog.Track{
		ID:               full.ID.String(),
		Name:             full.Name,
		Artist:           strings.Join(artists, ", "),
		Album:            full.Album.Name,
		Popularity:       float64(full.Popularity),
		URL:              full.ExternalURLs["spotify"],
		Valence:          math.NaN(),
		Energy:           math.NaN(),
		Danceability:     math.NaN(),
		Tempo:            math.NaN(),
		Acousticness:     math.NaN(),
		Instrumentalness: math.NaN(),
		Liveness:         math.NaN(),
		Speechiness:      math.NaN(),
		Loudness:         math.NaN(),
	}
}

// applyAudioFeatures copies audio feature values onto a catalog row.
func applyAudioFeatures(t *catalog.Track, f *spotify.AudioFeatures) {
	t.Valence = float64(f.Valence)
	t.Energy = float64(f.Energy)
	t.Danceability = float64(f.Danceability)
	t.Tempo = float64(f.Tempo)
	t.Acousticness = float64(f.Acousticness)
	t.Instrumentalness = float64(f.Instrumentalness)
	t.Liveness = float64(f.Liveness)
	t.Speechiness = float64(f.Speechiness)
	t.Loudness = float64(f.Loudness)
}

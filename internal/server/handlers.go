package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/jeff13in/VibeMap/internal/cluster"
	"github.com/jeff13in/VibeMap/internal/recommend"
)

const (
	defaultRecommendCount = 10
	defaultSearchLimit    = 20
)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	rec *recommend.Recommender
	clu *cluster.Engine
	log zerolog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(rec *recommend.Recommender, clu *cluster.Engine, logger zerolog.Logger) *Handlers {
	return &Handlers{rec: rec, clu: clu, log: logger}
}

// song is the JSON row shape shared by every endpoint that returns
// tracks.
type song struct {
	TrackID          string   `json:"track_id"`
	TrackName        string   `json:"track_name"`
	Artist           string   `json:"artist"`
	Album            string   `json:"album"`
	Popularity       float64  `json:"popularity"`
	Valence          float64  `json:"valence"`
	Energy           float64  `json:"energy"`
	Danceability     float64  `json:"danceability"`
	Tempo            float64  `json:"tempo"`
	Acousticness     float64  `json:"acousticness"`
	Instrumentalness float64  `json:"instrumentalness"`
	Liveness         float64  `json:"liveness"`
	Speechiness      float64  `json:"speechiness"`
	Loudness         float64  `json:"loudness"`
	SpotifyURL       string   `json:"spotify_url"`
	SimilarityScore  *float64 `json:"similarity_score,omitempty"`
}

func toSong(r recommend.Result, withScore bool) song {
	s := song{
		TrackID:          r.ID,
		TrackName:        r.Name,
		Artist:           r.Artist,
		Album:            r.Album,
		Popularity:       r.Popularity,
		Valence:          r.Valence,
		Energy:           r.Energy,
		Danceability:     r.Danceability,
		Tempo:            r.Tempo,
		Acousticness:     r.Acousticness,
		Instrumentalness: r.Instrumentalness,
		Liveness:         r.Liveness,
		Speechiness:      r.Speechiness,
		Loudness:         r.Loudness,
		SpotifyURL:       r.URL,
	}
	if withScore {
		score := r.SimilarityScore
		s.SimilarityScore = &score
	}
	return s
}

func toSongs(results []recommend.Result, withScore bool) []song {
	songs := make([]song, len(results))
	for i, r := range results {
		songs[i] = toSong(r, withScore)
	}
	return songs
}

// Health reports server liveness and the loaded catalog size
// (GET / and GET /health).
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"songs_loaded": h.rec.Len(),
	})
}

// Moods lists the valid mood filter names (GET /api/moods).
func (h *Handlers) Moods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"moods": recommend.Moods()})
}

// Tempos lists the valid tempo band names (GET /api/tempos).
func (h *Handlers) Tempos(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tempos": recommend.Tempos()})
}

// RecommendByMood handles GET /api/recommendations/mood.
func (h *Handlers) RecommendByMood(w http.ResponseWriter, r *http.Request) {
	mood := r.URL.Query().Get("mood")
	if mood == "" {
		h.writeError(w, http.StatusBadRequest, "Missing 'mood' parameter")
		return
	}
	count := queryInt(r, "count", defaultRecommendCount)

	results, err := h.rec.ByMood(mood, count)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"count":           len(results),
		"filters":         map[string]any{"mood": mood, "count": count},
		"recommendations": toSongs(results, false),
	})
}

// RecommendByTempo handles GET /api/recommendations/tempo.
func (h *Handlers) RecommendByTempo(w http.ResponseWriter, r *http.Request) {
	tempo := r.URL.Query().Get("tempo")
	if tempo == "" {
		h.writeError(w, http.StatusBadRequest, "Missing 'tempo' parameter")
		return
	}
	count := queryInt(r, "count", defaultRecommendCount)

	results, err := h.rec.ByTempo(tempo, count)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"count":           len(results),
		"filters":         map[string]any{"tempo": tempo, "count": count},
		"recommendations": toSongs(results, false),
	})
}

// RecommendCombined handles GET /api/recommendations/combined.
func (h *Handlers) RecommendCombined(w http.ResponseWriter, r *http.Request) {
	mood := r.URL.Query().Get("mood")
	tempo := r.URL.Query().Get("tempo")
	if mood == "" || tempo == "" {
		h.writeError(w, http.StatusBadRequest, "Missing 'mood' and/or 'tempo' parameter")
		return
	}
	count := queryInt(r, "count", defaultRecommendCount)

	results, err := h.rec.ByMoodAndTempo(mood, tempo, count)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"count":           len(results),
		"filters":         map[string]any{"mood": mood, "tempo": tempo, "count": count},
		"recommendations": toSongs(results, false),
	})
}

// RecommendSimilar handles GET /api/recommendations/similar.
func (h *Handlers) RecommendSimilar(w http.ResponseWriter, r *http.Request) {
	songID := r.URL.Query().Get("song_id")
	if songID == "" {
		h.writeError(w, http.StatusBadRequest, "Missing 'song_id' parameter")
		return
	}
	methodName := r.URL.Query().Get("method")
	if methodName == "" {
		methodName = "knn"
	}
	count := queryInt(r, "count", defaultRecommendCount)

	method, err := recommend.ParseMethod(methodName)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	results, err := h.rec.BySong(songID, method, count)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"count":           len(results),
		"filters":         map[string]any{"method": methodName, "count": count},
		"recommendations": toSongs(results, true),
	})
}

// SearchSongs handles GET /api/songs/search.
func (h *Handlers) SearchSongs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "Missing 'query' parameter")
		return
	}
	limit := queryInt(r, "limit", defaultSearchLimit)

	results, err := h.rec.SearchTracks(query, limit)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"query":   query,
		"count":   len(results),
		"results": toSongs(results, false),
	})
}

// GetSong handles GET /api/songs/{trackID}.
func (h *Handlers) GetSong(w http.ResponseWriter, r *http.Request) {
	trackID := chi.URLParam(r, "trackID")

	result, err := h.rec.TrackByID(trackID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"song":    toSong(result, false),
	})
}

// Clusters handles GET /api/clusters.
func (h *Handlers) Clusters(w http.ResponseWriter, r *http.Request) {
	if h.clu == nil {
		h.writeError(w, http.StatusServiceUnavailable, "clustering is not enabled")
		return
	}

	profiles, err := h.clu.Profiles()
	if err != nil {
		h.respondErr(w, err)
		return
	}
	sil, db, err := h.clu.Quality()
	if err != nil {
		h.respondErr(w, err)
		return
	}

	rows := make([]map[string]any, len(profiles))
	for i, p := range profiles {
		rows[i] = map[string]any{
			"cluster": p.Cluster,
			"label":   p.Label,
			"size":    p.Size,
			"means":   p.Means,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"count":          len(rows),
		"clusters":       rows,
		"silhouette":     sil,
		"davies_bouldin": db,
	})
}

// respondErr maps engine sentinels to HTTP statuses: bad rule or method
// names are client errors, unknown tracks are 404, unfit cluster state is
// 503, everything else is a logged 500.
func (h *Handlers) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, recommend.ErrUnknownMood),
		errors.Is(err, recommend.ErrUnknownTempo),
		errors.Is(err, recommend.ErrUnknownMethod):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, recommend.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, cluster.ErrNotFitted), errors.Is(err, cluster.ErrNotAnalyzed):
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.log.Error().Err(err).Msg("request failed")
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// queryInt parses an integer query parameter, falling back to def when
// absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return def
	}
	return n
}

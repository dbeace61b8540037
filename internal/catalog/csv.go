package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
)

// ErrMissingColumn indicates the input is missing a required column.
var ErrMissingColumn = errors.New("missing required column")

// requiredColumns must be present in the CSV header. Descriptive columns
// (track_name, artist, album, popularity, spotify_url) are optional and
// pass through when present.
var requiredColumns = append([]string{"track_id"}, FeatureNames...)

// LoadCSV reads a catalog from CSV. Empty or unparseable feature cells load
// as NaN; the engines are responsible for dropping incomplete rows.
func LoadCSV(r io.Reader) ([]Track, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
	}

	var tracks []Track
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}

		t := Track{
			ID:     cell(record, col, "track_id"),
			Name:   cell(record, col, "track_name"),
			Artist: cell(record, col, "artist"),
			Album:  cell(record, col, "album"),
			URL:    cell(record, col, "spotify_url"),
		}
		if p, err := strconv.ParseFloat(cell(record, col, "popularity"), 64); err == nil {
			t.Popularity = p
		}
		for _, name := range FeatureNames {
			t.setFeature(name, parseFloat(cell(record, col, name)))
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}

// LoadCSVFile reads a catalog from a CSV file on disk.
func LoadCSVFile(path string) ([]Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog file: %w", err)
	}
	defer f.Close()
	return LoadCSV(f)
}

// WriteCSV writes a catalog in the same column layout LoadCSV accepts.
// NaN features are written as empty cells.
func WriteCSV(w io.Writer, tracks []Track) error {
	cw := csv.NewWriter(w)

	header := []string{"track_id", "track_name", "artist", "album", "popularity", "spotify_url"}
	header = append(header, FeatureNames...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for i := range tracks {
		t := &tracks[i]
		record := []string{t.ID, t.Name, t.Artist, t.Album, strconv.FormatFloat(t.Popularity, 'g', -1, 64), t.URL}
		for _, name := range FeatureNames {
			record = append(record, formatFloat(t.Feature(name)))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func cell(record []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}

func parseFloat(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

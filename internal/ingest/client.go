// Package ingest fetches a song catalog from the Spotify Web API.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/jeff13in/VibeMap/internal/catalog"
)

// maxTracksPerRequest is the Spotify API limit for batch audio feature
// requests.
const maxTracksPerRequest = 100

// Client wraps the Spotify API client with catalog fetch methods.
type Client struct {
	api *spotify.Client
}

// New creates a client authenticated with the client-credentials flow.
// No user consent is involved; only public catalog data is reachable.
func New(ctx context.Context, clientID, clientSecret string) (*Client, error) {
	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	token, err := config.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("requesting spotify token: %w", err)
	}

	httpClient := spotifyauth.New().Client(ctx, token)
	return &Client{api: spotify.New(httpClient)}, nil
}

// FetchPlaylist retrieves every track of a playlist with its audio
// features. Tracks whose features are unavailable keep NaN feature
// values, which downstream consumers drop.
func (c *Client) FetchPlaylist(ctx context.Context, playlistID string) ([]catalog.Track, error) {
	tracks, err := c.fetchPlaylistTracks(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if err := c.fetchAudioFeatures(ctx, tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

func (c *Client) fetchPlaylistTracks(ctx context.Context, playlistID string) ([]catalog.Track, error) {
	page, err := c.api.GetPlaylistItems(ctx, spotify.ID(playlistID))
	if err != nil {
		return nil, fmt.Errorf("fetching playlist %s: %w", playlistID, err)
	}

	var tracks []catalog.Track
	for {
		for _, item := range page.Items {
			if item.Track.Track == nil {
				continue
			}
			tracks = append(tracks, convertTrack(item.Track.Track))
		}

		err = c.api.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("fetching next playlist page: %w", err)
		}
	}
	return tracks, nil
}

// fetchAudioFeatures fills in feature values for the given tracks,
// batching requests per the API limit. Tracks are updated in place.
func (c *Client) fetchAudioFeatures(ctx context.Context, tracks []catalog.Track) error {
	if len(tracks) == 0 {
		return nil
	}

	ids := make([]spotify.ID, len(tracks))
	indexByID := make(map[string]int, len(tracks))
	for i := range tracks {
		ids[i] = spotify.ID(tracks[i].ID)
		indexByID[tracks[i].ID] = i
	}

	for i := 0; i < len(ids); i += maxTracksPerRequest {
		end := min(i+maxTracksPerRequest, len(ids))
		features, err := c.api.GetAudioFeatures(ctx, ids[i:end]...)
		if err != nil {
			return fmt.Errorf("fetching audio features (batch %d-%d): %w", i+1, end, err)
		}

		for _, f := range features {
			if f == nil {
				continue
			}
			idx, ok := indexByID[f.ID.String()]
			if !ok {
				continue
			}
			applyAudioFeatures(&tracks[idx], f)
		}
	}
	return nil
}

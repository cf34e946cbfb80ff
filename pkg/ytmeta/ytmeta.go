// Package ytmeta resolves YouTube search queries and video ids to track
// metadata. Search needs a Data API key; single-video lookups fall back to
// the public oEmbed endpoint and finally to scraping the watch page.
package ytmeta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

var (
	ErrVideoNotFound = errors.New("video not found")
	ErrNoAPIKey      = errors.New("youtube api key is not configured")
)

type TrackData struct {
	Id          string `json:"id"`
	Title       string `json:"title"`
	Thumbnail   string `json:"thumbnail"`
	Channel     string `json:"channel"`
	Duration    string `json:"duration,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
}

type Client struct {
	apiKey string
	httpc  *http.Client
}

func New(apiKey string) *Client {
	return &Client{
		apiKey: apiKey,
		httpc:  &http.Client{Timeout: 10 * time.Second},
	}
}

type searchResponse struct {
	Items []struct {
		Id struct {
			Kind    string `json:"kind"`
			VideoId string `json:"videoId"`
		} `json:"id"`
		Snippet snippet `json:"snippet"`
	} `json:"items"`
}

type snippet struct {
	Title        string `json:"title"`
	ChannelTitle string `json:"channelTitle"`
	PublishedAt  string `json:"publishedAt"`
	Thumbnails   struct {
		Default struct {
			Url string `json:"url"`
		} `json:"default"`
	} `json:"thumbnails"`
}

// Search queries the Data API v3 search endpoint. Channel results are
// skipped; only plain videos become tracks.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]TrackData, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("maxResults", fmt.Sprintf("%d", maxResults))
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://www.googleapis.com/youtube/v3/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	tracks := make([]TrackData, 0, len(result.Items))
	for _, item := range result.Items {
		if item.Id.VideoId == "" || item.Id.Kind == "youtube#channel" {
			continue
		}

		tracks = append(tracks, TrackData{
			Id:          item.Id.VideoId,
			Title:       item.Snippet.Title,
			Thumbnail:   item.Snippet.Thumbnails.Default.Url,
			Channel:     item.Snippet.ChannelTitle,
			PublishedAt: item.Snippet.PublishedAt,
		})
	}

	return tracks, nil
}

// Details resolves one video id. The oEmbed endpoint covers embeddable
// videos; everything else goes through the watch page parser.
func (c *Client) Details(ctx context.Context, videoId string) (*TrackData, error) {
	track, err := c.getWithEmbed(ctx, videoId)
	if err != nil {
		if errors.Is(err, ErrVideoNotFound) {
			return nil, err
		}

		track, err = c.getFromPage(ctx, videoId)
		if err != nil {
			return nil, fmt.Errorf("failed to get video data from page: %w", err)
		}
	}

	return track, nil
}

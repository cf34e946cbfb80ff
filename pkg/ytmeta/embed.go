package ytmeta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var errVideoNotEmbeddable = errors.New("video is not embeddable")

func (c *Client) getWithEmbed(ctx context.Context, videoId string) (*TrackData, error) {
	url := fmt.Sprintf("https://www.youtube.com/oembed?url=https://www.youtube.com/watch?v=%s", videoId)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		switch resp.StatusCode {
		case http.StatusBadRequest, http.StatusNotFound:
			return nil, ErrVideoNotFound
		case http.StatusUnauthorized:
			return nil, errVideoNotEmbeddable
		default:
			return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}
	}

	var result struct {
		Title        string `json:"title"`
		AuthorName   string `json:"author_name"`
		ThumbnailUrl string `json:"thumbnail_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode oembed response: %w", err)
	}

	return &TrackData{
		Id:        videoId,
		Title:     result.Title,
		Thumbnail: result.ThumbnailUrl,
		Channel:   result.AuthorName,
	}, nil
}

package ytmeta

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/net/html"
)

func (c *Client) getFromPage(ctx context.Context, videoId string) (*TrackData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://youtu.be/"+videoId, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, err
	}

	return &TrackData{
		Id:        videoId,
		Title:     pageTitle(doc),
		Thumbnail: fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", videoId),
		Channel:   channelName(doc),
	}, nil
}

func pageTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
		return n.FirstChild.Data
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if title := pageTitle(c); title != "" {
			return title
		}
	}

	return ""
}

// channelName finds <link itemprop="name" content="..."> in the watch page.
func channelName(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "link" {
		var isName bool
		var content string
		for _, attr := range n.Attr {
			if attr.Key == "itemprop" && attr.Val == "name" {
				isName = true
			}
			if attr.Key == "content" {
				content = attr.Val
			}
		}
		if isName {
			return content
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if name := channelName(c); name != "" {
			return name
		}
	}

	return ""
}

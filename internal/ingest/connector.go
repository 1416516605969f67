package ingest

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"marketintel/internal/model"
)

// Connector fetches raw content for one source URL, grounded on
// original_source/connectors/base.py's BaseConnector.
type Connector interface {
	Fetch(ctx context.Context, sourceURL string) (string, error)
}

// ConnectorRegistry resolves a model.ConnectorType to its Connector,
// grounded on original_source/connectors/registry.py's get_connector.
type ConnectorRegistry struct {
	web *WebConnector
	rss *RSSConnector
}

func NewConnectorRegistry(http *resty.Client) *ConnectorRegistry {
	return &ConnectorRegistry{
		web: &WebConnector{http: http},
		rss: &RSSConnector{http: http},
	}
}

func (r *ConnectorRegistry) Get(connectorType model.ConnectorType) (Connector, error) {
	switch connectorType {
	case model.ConnectorWeb:
		return r.web, nil
	case model.ConnectorRSS:
		return r.rss, nil
	default:
		return nil, fmt.Errorf("unsupported connector type: %s", connectorType)
	}
}

// WebConnector fetches a page's raw HTML, grounded on
// original_source/connectors/web/http_connector.py's HttpConnector.
type WebConnector struct {
	http *resty.Client
}

func (c *WebConnector) Fetch(ctx context.Context, sourceURL string) (string, error) {
	resp, err := c.http.R().SetContext(ctx).Get(sourceURL)
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("http %d fetching %s", resp.StatusCode(), sourceURL)
	}
	return resp.String(), nil
}

// rssFeed is the minimal RSS 2.0 shape this connector needs.
type rssFeed struct {
	Channel struct {
		Title string `xml:"title"`
		Items []struct {
			Title   string `xml:"title"`
			Summary string `xml:"description"`
			Link    string `xml:"link"`
		} `xml:"item"`
	} `xml:"channel"`
}

// RSSConnector fetches and flattens an RSS feed's first 20 items into
// one text blob, grounded on
// original_source/connectors/api/rss_connector.py's RssConnector. The
// original uses Python's feedparser; encoding/xml covers the same RSS
// 2.0 shape directly and no pack repo carries a dedicated feed-parsing
// library, so this is a deliberate stdlib choice.
type RSSConnector struct {
	http *resty.Client
}

func (c *RSSConnector) Fetch(ctx context.Context, sourceURL string) (string, error) {
	resp, err := c.http.R().SetContext(ctx).Get(sourceURL)
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("http %d fetching feed %s", resp.StatusCode(), sourceURL)
	}

	var feed rssFeed
	if err := xml.Unmarshal(resp.Body(), &feed); err != nil {
		return "", fmt.Errorf("unable to parse RSS feed: %s: %w", sourceURL, err)
	}

	items := feed.Channel.Items
	if len(items) > 20 {
		items = items[:20]
	}

	if len(items) == 0 {
		return fmt.Sprintf("feed_title=%s\nno_entries=true", feed.Channel.Title), nil
	}

	var blocks []string
	for _, item := range items {
		blocks = append(blocks, fmt.Sprintf("title=%s\nsummary=%s\nlink=%s", item.Title, item.Summary, item.Link))
	}
	return strings.Join(blocks, "\n\n"), nil
}

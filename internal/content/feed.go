package content

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/nikhilbhutani/neuralnarrative/pkg/textextract"
)

const noSummary = "No summary available"

// FeedProvider reads an RSS/Atom endpoint.
type FeedProvider struct {
	url    string
	parser *gofeed.Parser
}

func NewFeedProvider(feedURL string, client *http.Client) *FeedProvider {
	parser := gofeed.NewParser()
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	parser.Client = client
	parser.UserAgent = "NeuralNarrative/1.0 (+feed fetcher)"
	return &FeedProvider{url: feedURL, parser: parser}
}

// NewFeedProviders builds one provider per endpoint sharing a single client.
func NewFeedProviders(urls []string, client *http.Client) []Provider {
	providers := make([]Provider, 0, len(urls))
	for _, u := range urls {
		providers = append(providers, NewFeedProvider(u, client))
	}
	return providers
}

func (p *FeedProvider) Name() string { return p.url }

// Items parses the feed and returns its first PerProviderLimit entries.
func (p *FeedProvider) Items(ctx context.Context) ([]Topic, error) {
	feed, err := p.parser.ParseURLWithContext(p.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	if feed == nil {
		return nil, nil
	}

	items := feed.Items
	if len(items) > PerProviderLimit {
		items = items[:PerProviderLimit]
	}

	topics := make([]Topic, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		topics = append(topics, Topic{
			Title:   strings.TrimSpace(item.Title),
			Link:    strings.TrimSpace(item.Link),
			Summary: summaryOf(item),
			Source:  p.url,
		})
	}
	return topics, nil
}

func summaryOf(item *gofeed.Item) string {
	raw := item.Description
	if strings.TrimSpace(raw) == "" {
		raw = item.Content
	}
	if s := textextract.FromHTML(raw); s != "" {
		return s
	}
	return noSummary
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	mediaEndpoint     = "/wp-json/wp/v2/media"
	userAgent         = "wp-alt-tagger/1.0"
	invalidPageCode   = "rest_post_invalid_page_number"
	maxErrorBodyBytes = 512
)

// WordPressClient talks to the WordPress REST API media endpoints
type WordPressClient struct {
	baseURL  string
	perPage  int
	username string
	password string
	http     *http.Client
	logger   *slog.Logger
}

// NewWordPressClient creates a client for the site in cfg. A nil httpClient uses http.DefaultClient.
func NewWordPressClient(cfg *Config, httpClient *http.Client, logger *slog.Logger) *WordPressClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	perPage := cfg.PerPage
	if perPage <= 0 || perPage > maxPerPage {
		perPage = maxPerPage
	}
	return &WordPressClient{
		baseURL:  strings.TrimRight(cfg.SiteURL, "/"),
		perPage:  perPage,
		username: cfg.WPUsername,
		password: cfg.WPAppPassword,
		http:     httpClient,
		logger:   logger,
	}
}

// wpError is the error body WordPress returns for REST failures
type wpError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ListMissingAlt pages through the media collection and returns images with empty alt text.
// At most limit items are returned; limit 0 returns all of them.
func (c *WordPressClient) ListMissingAlt(ctx context.Context, limit int) ([]MediaItem, error) {
	var missing []MediaItem
	seen := make(map[int]bool)
	scanned := 0

	for page := 1; ; page++ {
		items, totalPages, done, err := c.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		if done || len(items) == 0 {
			break
		}

		fresh := 0
		for _, item := range items {
			scanned++
			if seen[item.ID] {
				continue
			}
			seen[item.ID] = true
			fresh++
			if !needsAltText(item) {
				continue
			}
			missing = append(missing, item)
			if limit > 0 && len(missing) >= limit {
				c.logger.Debug("media limit reached", "limit", limit, "scanned", scanned, "page", page)
				return missing, nil
			}
		}

		// Without X-WP-TotalPages a server that ignores ?page would be paged forever
		if fresh == 0 {
			return nil, fmt.Errorf("%w: page %d repeated earlier results", ErrListMedia, page)
		}

		c.logger.Debug("media page fetched",
			"page", page,
			"total_pages", totalPages,
			"items", len(items),
			"missing_alt", len(missing))

		if totalPages > 0 && page >= totalPages {
			break
		}
	}

	c.logger.Debug("media listing complete", "scanned", scanned, "missing_alt", len(missing))
	return missing, nil
}

// fetchPage returns the items of one page and the X-WP-TotalPages value (0 when absent).
// done is true when WordPress reports the page is past the end of the collection.
func (c *WordPressClient) fetchPage(ctx context.Context, page int) ([]MediaItem, int, bool, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(c.perPage))
	params.Set("media_type", "image")
	params.Set("orderby", "id")
	params.Set("order", "asc")
	endpoint := c.baseURL + mediaEndpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, false, fmt.Errorf("%w: error creating request: %v", ErrListMedia, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, false, fmt.Errorf("%w: request to %s failed: %v", ErrListMedia, c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		if resp.StatusCode == http.StatusBadRequest && page > 1 {
			var werr wpError
			if json.Unmarshal(body, &werr) == nil && werr.Code == invalidPageCode {
				return nil, 0, true, nil
			}
		}
		return nil, 0, false, fmt.Errorf("%w: page %d returned status %d: %s",
			ErrListMedia, page, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var items []MediaItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, 0, false, fmt.Errorf("%w: error decoding page %d: %v", ErrListMedia, page, err)
	}

	totalPages, _ := strconv.Atoi(resp.Header.Get("X-WP-TotalPages"))
	return items, totalPages, false, nil
}

// UpdateAltText sets alt_text on the media item with the given id
func (c *WordPressClient) UpdateAltText(ctx context.Context, id int, altText string) error {
	payload, err := json.Marshal(map[string]string{"alt_text": altText})
	if err != nil {
		return fmt.Errorf("%w: failed to marshal request body: %v", ErrUpdate, err)
	}

	endpoint := fmt.Sprintf("%s%s/%d", c.baseURL, mediaEndpoint, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: error creating request: %v", ErrUpdate, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request for media %d failed: %v", ErrUpdate, id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return fmt.Errorf("%w: media %d returned status %d: %s",
			ErrUpdate, id, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func needsAltText(item MediaItem) bool {
	return item.MediaType == "image" && strings.TrimSpace(item.AltText) == ""
}

// plainTitle converts a rendered WordPress title to plain text.
// Titles come back as HTML with encoded entities (&#8217;, <em>...).
func plainTitle(rendered string) string {
	if !strings.ContainsAny(rendered, "<&") {
		return strings.TrimSpace(rendered)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rendered))
	if err != nil {
		return strings.TrimSpace(rendered)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path"
	"strconv"
	"strings"
	"sync"
	"testing"
)

const (
	testWPUser     = "editor"
	testWPPassword = "abcd efgh ijkl mnop"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mediaItem(id int, mediaType, altText, title string) MediaItem {
	item := MediaItem{
		ID:        id,
		MediaType: mediaType,
		AltText:   altText,
		SourceURL: fmt.Sprintf("https://cdn.example.com/uploads/%d.jpg", id),
	}
	item.Title.Rendered = title
	return item
}

type altUpdate struct {
	ID      int
	AltText string
}

// fakeWordPress serves the media collection and media update endpoints from memory
type fakeWordPress struct {
	mu sync.Mutex

	items []MediaItem

	// listStatus forces every list request to fail with this status
	listStatus int
	// omitTotalPages drops the X-WP-TotalPages header so clients must detect the end themselves
	omitTotalPages bool

	listRequests int
	updates      []altUpdate
	changes      int
}

func newFakeWordPress(t *testing.T, items []MediaItem) (*fakeWordPress, *httptest.Server) {
	t.Helper()
	f := &fakeWordPress{items: append([]MediaItem(nil), items...)}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeWordPress) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == mediaEndpoint:
		f.serveList(w, r)
	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, mediaEndpoint+"/"):
		f.serveUpdate(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"code":"rest_no_route","message":"No route was found matching the URL and request method."}`)
	}
}

func (f *fakeWordPress) serveList(w http.ResponseWriter, r *http.Request) {
	f.listRequests++
	if f.listStatus != 0 {
		w.WriteHeader(f.listStatus)
		fmt.Fprint(w, `{"code":"rest_forbidden","message":"Sorry, you are not allowed to do that."}`)
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if perPage < 1 {
		perPage = 10
	}

	var visible []MediaItem
	for _, item := range f.items {
		if mt := q.Get("media_type"); mt != "" && item.MediaType != mt {
			continue
		}
		visible = append(visible, item)
	}

	totalPages := (len(visible) + perPage - 1) / perPage
	if page > 1 && page > totalPages {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"code":"rest_post_invalid_page_number","message":"The page number requested is larger than the number of pages available.","data":{"status":400}}`)
		return
	}

	start := (page - 1) * perPage
	end := min(start+perPage, len(visible))
	out := []MediaItem{}
	if start < end {
		out = append(out, visible[start:end]...)
	}

	w.Header().Set("X-WP-Total", strconv.Itoa(len(visible)))
	if !f.omitTotalPages {
		w.Header().Set("X-WP-TotalPages", strconv.Itoa(totalPages))
	}
	_ = json.NewEncoder(w).Encode(out)
}

func (f *fakeWordPress) serveUpdate(w http.ResponseWriter, r *http.Request) {
	user, pass, ok := r.BasicAuth()
	if !ok || user != testWPUser || pass != testWPPassword {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"code":"rest_cannot_edit","message":"Sorry, you are not allowed to edit this post."}`)
		return
	}

	id, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, mediaEndpoint+"/"))
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var body struct {
		AltText string `json:"alt_text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	for i := range f.items {
		if f.items[i].ID != id {
			continue
		}
		f.updates = append(f.updates, altUpdate{ID: id, AltText: body.AltText})
		if f.items[i].AltText != body.AltText {
			f.changes++
			f.items[i].AltText = body.AltText
		}
		_ = json.NewEncoder(w).Encode(f.items[i])
		return
	}

	w.WriteHeader(http.StatusNotFound)
	fmt.Fprint(w, `{"code":"rest_post_invalid_id","message":"Invalid post ID."}`)
}

func (f *fakeWordPress) altText(id int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items {
		if item.ID == id {
			return item.AltText
		}
	}
	return ""
}

// fakeGenerator returns a deterministic caption derived from the image file name
type fakeGenerator struct {
	calls  []string
	fail   map[string]bool
	onCall func(n int)

	// watchContext makes a call fail once ctx is canceled, like a real HTTP client
	watchContext bool
}

func (g *fakeGenerator) GenerateAltText(ctx context.Context, imageURL string) (string, error) {
	g.calls = append(g.calls, imageURL)
	if g.onCall != nil {
		g.onCall(len(g.calls))
	}
	if g.watchContext && ctx.Err() != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, ctx.Err())
	}
	if g.fail[imageURL] {
		return "", fmt.Errorf("%w: quota exceeded", ErrGeneration)
	}
	return "Photo " + strings.TrimSuffix(path.Base(imageURL), path.Ext(imageURL)), nil
}

func testConfig(siteURL string) *Config {
	cfg := DefaultConfig()
	cfg.SiteURL = siteURL
	cfg.APIKey = "test-key"
	cfg.Model = defaultOpenAIModel
	cfg.WPUsername = testWPUser
	cfg.WPAppPassword = testWPPassword
	return cfg
}

// newStatusServer answers every request with the same status and body
func newStatusServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

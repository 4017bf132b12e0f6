package main

// MediaItem is the subset of a WordPress media object the tagger reads
type MediaItem struct {
	ID        int    `json:"id"`
	MediaType string `json:"media_type"`
	AltText   string `json:"alt_text"`
	SourceURL string `json:"source_url"`
	Title     struct {
		Rendered string `json:"rendered"`
	} `json:"title"`
}

// ItemStatus describes what happened to a media item during a run
type ItemStatus string

const (
	StatusDryRun           ItemStatus = "dry-run"
	StatusUpdated          ItemStatus = "updated"
	StatusGenerationFailed ItemStatus = "generation-failed"
	StatusUpdateFailed     ItemStatus = "update-failed"
)

// AltTextResult is one processed image, kept in memory until the report is written
type AltTextResult struct {
	ID           int
	Title        string
	OriginalAlt  string
	GeneratedAlt string
	URL          string
	Status       ItemStatus
}

// RunSummary counts the outcomes of a single run
type RunSummary struct {
	Processed int
	Generated int
	Failed    int
	Updated   int
}

package models

// SourceRecord is one scraped decision as stored in the JSONL dataset
type SourceRecord struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
	Text  string `json:"text"`
	Year  int    `json:"year,omitempty"`
	Month string `json:"month,omitempty"`
}

// CheckpointState is the durable ingestion cursor
type CheckpointState struct {
	LastProcessedURL *string `json:"last_processed_url,omitempty"`
}

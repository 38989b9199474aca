package domain

// FilterSet carries the structured retrieval constraints extracted from one
// free-text question. UserID is always present; the rest is best effort.
type FilterSet struct {
	UserID    string   `json:"user_id"`
	StartDate string   `json:"start_date,omitempty"`
	EndDate   string   `json:"end_date,omitempty"`
	Keywords  []string `json:"keywords,omitempty"`
}

// HasDateRange reports whether the extractor found a usable date window.
func (f FilterSet) HasDateRange() bool {
	return f.StartDate != "" && f.EndDate != ""
}

// Match is one ranked hit from the vector store. Only its metadata text is
// consumed, to build prompt context.
type Match struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

// QueryResult is the caller-facing success shape, relayed verbatim by the
// HTTP boundary.
type QueryResult struct {
	Answer      string    `json:"answer"`
	ContextUsed string    `json:"context_used"`
	Metadata    FilterSet `json:"metadata"`
	NumChunks   int       `json:"num_chunks"`
}

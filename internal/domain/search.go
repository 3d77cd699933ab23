package domain

// ReviewedFilter narrows a search to proposals the caller has or has not
// reviewed yet.
type ReviewedFilter string

const (
	FilterReviewed    ReviewedFilter = "REVIEWED"
	FilterNotReviewed ReviewedFilter = "NOT_REVIEWED"
)

// SortOrder for proposal search results
type SortOrder string

const (
	// SortNewest orders by submission time, most recent first.
	SortNewest SortOrder = "newest"
	// SortHighest orders by materialized review average, unrated
	// proposals last regardless of direction.
	SortHighest SortOrder = "highest"
)

// SearchFilters are conjunctive, all optional
type SearchFilters struct {
	Query        string             `json:"query,omitempty"`
	Status       DeliberationStatus `json:"status,omitempty"`
	FormatID     string             `json:"format_id,omitempty"`
	CategoryID   string             `json:"category_id,omitempty"`
	TagID        string             `json:"tag_id,omitempty"`
	ReviewedByMe ReviewedFilter     `json:"reviewed_by_me,omitempty"`
	Sort         SortOrder          `json:"sort,omitempty"`
}

// ProposalCard is one search result row. Speaker and review fields are
// omitted at query time, not redacted afterwards, when the caller's role
// may not see them.
type ProposalCard struct {
	ID                 string             `json:"id"`
	Title              string             `json:"title"`
	DeliberationStatus DeliberationStatus `json:"deliberation_status"`
	ConfirmationStatus ConfirmationStatus `json:"confirmation_status"`

	Speakers []Speaker `json:"speakers,omitempty"`

	ReviewAverage   *float64 `json:"review_average,omitempty"`
	ReviewPositives *int     `json:"review_positives,omitempty"`
	ReviewNegatives *int     `json:"review_negatives,omitempty"`

	MyFeeling *Feeling `json:"my_feeling,omitempty"`
	MyNote    *int     `json:"my_note,omitempty"`

	CreatedAt string `json:"created_at"`
}

// SearchResult is a page of proposals plus the size of the whole
// filtered set, so a client can offer "select all N results".
type SearchResult struct {
	Items      []ProposalCard `json:"items"`
	TotalCount int            `json:"total_count"`
	PageCount  int            `json:"page_count"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
}

// Selection names the proposals a bulk operation applies to: either an
// explicit ID list, or every proposal matching the filters minus the
// explicitly deselected ones. AllMatching is re-resolved at execution
// time; the matching set may have changed since the client queried.
type Selection struct {
	IDs         []string       `json:"ids,omitempty"`
	AllMatching *SearchFilters `json:"all_matching,omitempty"`
	ExcludeIDs  []string       `json:"exclude_ids,omitempty"`
}

// IsAllMatching reports whether the selection is filter-based
func (s *Selection) IsAllMatching() bool {
	return s.AllMatching != nil
}

// BulkResult reports partial-success counts for a bulk operation.
// Bulk operations never return all-or-nothing booleans; partial success
// is the steady state at scale.
type BulkResult struct {
	Updated  int `json:"updated,omitempty"`
	Notified int `json:"notified,omitempty"`
	Skipped  int `json:"skipped"`
}

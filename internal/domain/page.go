package domain

// ListingPage is one rendered page of item summaries within a category.
type ListingPage struct {
	Items   []ItemSummary `json:"items"`
	HasNext bool          `json:"has_next"`
}

// DetailPage is what one snapshot of a detail page yields.
// Menu holds only the rows visible in that snapshot.
type DetailPage struct {
	Tag  string     `json:"tag"`
	Menu []MenuLine `json:"menu"`
}

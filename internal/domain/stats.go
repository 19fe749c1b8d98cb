package domain

// CrawlStats counts what a crawl run did.
type CrawlStats struct {
	RunID        string `json:"run_id"`
	Categories   int    `json:"categories"`
	Pages        int    `json:"pages"`
	PageTimeouts int    `json:"page_timeouts"`
	Seen         int    `json:"seen"`
	Skipped      int    `json:"skipped"`
	Captured     int    `json:"captured"`
	Failed       int    `json:"failed"`
}

// SyncReport counts index writes of one sync run.
type SyncReport struct {
	RunID     string `json:"run_id"`
	Attempted int    `json:"attempted"`
	Created   int    `json:"created"`
	Updated   int    `json:"updated"`
}

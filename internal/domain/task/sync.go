package task

import (
	"time"

	"foody/indexer/internal/domain"
)

const SyncTaskType = "SyncTask"

// SyncTask asks a worker to push the whole document store into the index.
type SyncTask struct {
	Reason      string             `json:"reason"`       // "crawl", "manual"
	CrawlRunID  string             `json:"crawl_run_id"` // empty unless Reason is "crawl"
	Crawl       *domain.CrawlStats `json:"crawl,omitempty"`
	RequestedAt time.Time          `json:"requested_at"`
}

func (t *SyncTask) TaskType() string {
	return SyncTaskType
}

func (t *SyncTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}

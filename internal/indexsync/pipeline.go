// Package indexsync copies every document of record into the search index.
package indexsync

import (
	"context"
	"fmt"

	"foody/indexer/internal/domain"
	"foody/indexer/internal/search"
	"foody/indexer/internal/store"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Index is the write side of the search index.
type Index interface {
	Upsert(ctx context.Context, id string, body any) (search.Result, error)
}

// Pipeline is a one-shot full pass: no cursor is kept between runs.
type Pipeline struct {
	store store.DocumentStore
	index Index
}

func NewPipeline(store store.DocumentStore, index Index) *Pipeline {
	return &Pipeline{
		store: store,
		index: index,
	}
}

// Run upserts each stored document into the index in store order. A write
// that reports anything but "created" is logged and the run goes on; a failed
// write halts the run. The report is returned in both cases.
func (p *Pipeline) Run(ctx context.Context) (*domain.SyncReport, error) {
	report := &domain.SyncReport{RunID: uuid.NewString()}
	logger := log.WithField("run_id", report.RunID)

	logger.Info("🔄 Starting sync from document store to search index")

	err := p.store.Scan(ctx, func(detail *domain.ItemDetail) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		report.Attempted++
		result, err := p.index.Upsert(ctx, detail.ID, detail.ItemBody)
		if err != nil {
			return fmt.Errorf("sync halted at document %s: %w", detail.ID, err)
		}

		if result == search.ResultCreated {
			report.Created++
			logger.Debugf("Inserted doc with id = %s", detail.ID)
			return nil
		}

		report.Updated++
		logger.WithField("result", result).Warnf("⚠️ Doc with id = %s was not created", detail.ID)
		return nil
	})
	if err != nil {
		logger.Errorf("❌ Sync stopped after %d documents: %v", report.Attempted, err)
		return report, err
	}

	logger.Infof("✅ Sync finished: %d documents, %d created, %d updated",
		report.Attempted, report.Created, report.Updated)
	return report, nil
}

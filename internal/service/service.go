// Package service runs sync requests taken from the queue.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"foody/indexer/internal/domain"
	"foody/indexer/internal/domain/task"
	"foody/indexer/internal/queue"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Syncer performs one full store-to-index pass.
type Syncer interface {
	Run(ctx context.Context) (*domain.SyncReport, error)
}

type Service struct {
	syncer      Syncer
	queue       queue.Queue
	minIdleTime time.Duration
	consumer    string

	// One sync at a time, whether it came from the stream or was claimed.
	syncMu sync.Mutex

	// Messages being processed here; auto-claim skips them.
	inFlightMu sync.Mutex
	inFlight   map[string]struct{}
}

func NewService(syncer Syncer, queue queue.Queue, minIdleTime time.Duration) *Service {
	return &Service{
		syncer:      syncer,
		queue:       queue,
		minIdleTime: minIdleTime,
		consumer:    "sync-worker-" + uuid.NewString()[:8],
		inFlight:    make(map[string]struct{}),
	}
}

// RequestSync queues a sync for the worker and returns the message id.
func (s *Service) RequestSync(ctx context.Context, t *task.SyncTask) (string, error) {
	if t.RequestedAt.IsZero() {
		t.RequestedAt = time.Now().UTC()
	}
	id, err := s.queue.AddTask(ctx, t)
	if err != nil {
		return "", fmt.Errorf("failed to request sync: %w", err)
	}
	log.Infof("📨 Sync requested (%s) as message %s", t.Reason, id)
	return id, nil
}

// RunWorkers consumes sync requests until ctx is done. A request whose sync
// fails stays unacknowledged and is claimed again after minIdleTime.
func (s *Service) RunWorkers(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.consume(ctx)
		return nil
	})

	g.Go(func() error {
		s.autoClaim(ctx)
		return nil
	})

	return g.Wait()
}

func (s *Service) consume(ctx context.Context) {
	log.Infof("🚀 Starting sync worker as consumer %s", s.consumer)
	for {
		select {
		case <-ctx.Done():
			log.Info("🛑 Sync worker stopping")
			return
		default:
		}

		msg, err := s.queue.GetTask(ctx, s.consumer, task.SyncTaskType)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Errorf("❌ Failed to get sync task: %v", err)
			wait(ctx, time.Second)
			continue
		}
		if msg == nil {
			continue
		}

		if err := s.processMessage(ctx, msg); err != nil {
			log.Errorf("❌ Failed to process message %s: %v", msg.ID, err)
		}
	}
}

func (s *Service) autoClaim(ctx context.Context) {
	ticker := time.NewTicker(s.minIdleTime)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			claimed, err := s.queue.AutoClaim(ctx, s.consumer+"-autoclaimer", task.SyncTaskType, s.minIdleTime)
			if err != nil {
				log.Errorf("❌ Failed to auto-claim sync tasks: %v", err)
				continue
			}
			if len(claimed) > 0 {
				log.Infof("🔄 Auto-claimed %d sync tasks", len(claimed))
			}
			for _, msg := range claimed {
				if err := s.processMessage(ctx, &msg); err != nil {
					log.Errorf("❌ Failed to process auto-claimed message %s: %v", msg.ID, err)
				}
			}
		}
	}
}

func (s *Service) processMessage(ctx context.Context, msg *queue.Message) error {
	if !s.begin(msg.ID) {
		log.Debugf("Message %s is already being processed, skipping", msg.ID)
		return nil
	}
	defer s.finish(msg.ID)

	if msg.TaskType != task.SyncTaskType {
		s.ack(ctx, msg)
		return fmt.Errorf("unknown task type: %s", msg.TaskType)
	}

	syncTask, err := task.UnmarshalTask[*task.SyncTask](msg.Data)
	if err != nil {
		s.ack(ctx, msg)
		return fmt.Errorf("failed to unmarshal sync task data: %w", err)
	}

	logger := log.WithFields(log.Fields{"message_id": msg.ID, "reason": syncTask.Reason})
	if syncTask.CrawlRunID != "" {
		logger = logger.WithField("crawl_run_id", syncTask.CrawlRunID)
	}

	s.syncMu.Lock()
	report, err := s.syncer.Run(ctx)
	s.syncMu.Unlock()
	if err != nil {
		return fmt.Errorf("sync failed, leaving message for retry: %w", err)
	}

	logger.Infof("✅ Sync %s finished: %d documents, %d created, %d updated",
		report.RunID, report.Attempted, report.Created, report.Updated)
	s.ack(ctx, msg)
	return nil
}

// begin marks id in flight and reports whether it was not already.
func (s *Service) begin(id string) bool {
	s.inFlightMu.Lock()
	defer s.inFlightMu.Unlock()
	if _, ok := s.inFlight[id]; ok {
		return false
	}
	s.inFlight[id] = struct{}{}
	return true
}

func (s *Service) finish(id string) {
	s.inFlightMu.Lock()
	defer s.inFlightMu.Unlock()
	delete(s.inFlight, id)
}

func (s *Service) ack(ctx context.Context, msg *queue.Message) {
	if err := s.queue.AckTask(ctx, msg.TaskType, msg.ID); err != nil {
		log.Errorf("❌ Failed to ack message %s: %v", msg.ID, err)
	}
}

func wait(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

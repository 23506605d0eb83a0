// internal/historian/historian.go drains the room action log from a Redis
// list and persists it to Postgres in batches.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	finalFlushTimeout = 5 * time.Second
	// batches beyond this many records are dropped while the database is failing
	maxPendingBatches = 10
)

// Queue is the subset of a Redis client the historian pops from.
type Queue interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// Inserter persists a batch of action records.
type Inserter interface {
	InsertActions(ctx context.Context, records []cache.GameActionRecord) error
}

type Options struct {
	QueueName  string
	BatchSize  int
	FlushDelay time.Duration
	Logger     *logrus.Logger
}

// Service pops records one at a time and flushes them once BatchSize have
// accumulated or FlushDelay has passed.
type Service struct {
	queue    Queue
	inserter Inserter
	opts     Options
	log      *logrus.Entry

	batch []cache.GameActionRecord
}

func New(queue Queue, inserter Inserter, opts Options) *Service {
	if opts.QueueName == "" {
		opts.QueueName = cache.DefaultQueueName
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	if opts.FlushDelay <= 0 {
		opts.FlushDelay = 500 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Service{
		queue:    queue,
		inserter: inserter,
		opts:     opts,
		log:      opts.Logger.WithField("queue", opts.QueueName),
		batch:    make([]cache.GameActionRecord, 0, opts.BatchSize),
	}
}

// Run consumes until ctx is cancelled, then flushes what is left.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.FlushDelay)
	defer ticker.Stop()

	s.log.Info("historian started.")
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), finalFlushTimeout)
			s.flush(flushCtx)
			cancel()
			s.log.Info("historian stopped.")
			return nil

		case <-ticker.C:
			s.flush(ctx)

		default:
			// Block for at most one flush interval so the ticker keeps firing.
			res, err := s.queue.BLPop(ctx, s.opts.FlushDelay, s.opts.QueueName).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					s.log.Errorf("BLPop: %v", err)
				}
				continue
			}
			if len(res) < 2 {
				continue
			}

			// res[0] is the queue name and res[1] the payload.
			var record cache.GameActionRecord
			if err := json.Unmarshal([]byte(res[1]), &record); err != nil {
				s.log.Warnf("invalid action record: %v", err)
				continue
			}
			s.batch = append(s.batch, record)
			if len(s.batch) >= s.opts.BatchSize {
				s.flush(ctx)
			}
		}
	}
}

// flush writes the pending batch. On failure the records are kept for the
// next attempt, up to maxPendingBatches worth.
func (s *Service) flush(ctx context.Context) {
	if len(s.batch) == 0 {
		return
	}
	if err := s.inserter.InsertActions(ctx, s.batch); err != nil {
		s.log.Errorf("flush of %d actions failed: %v", len(s.batch), err)
		if limit := s.opts.BatchSize * maxPendingBatches; len(s.batch) > limit {
			dropped := len(s.batch) - limit
			s.batch = append(s.batch[:0], s.batch[dropped:]...)
			s.log.Errorf("dropped %d oldest actions.", dropped)
		}
		return
	}
	s.log.Debugf("Flushed %d actions to DB.", len(s.batch))
	s.batch = s.batch[:0]
}

package analytics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fekuna/omnipos-aisle-service/internal/model"
	"github.com/fekuna/omnipos-aisle-service/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// refreshOverlap widens each refresh window to catch rows committed late or stamped by a skewed clock.
// Entries already in the log are skipped by id.
const refreshOverlap = time.Minute

type Options struct {
	// WarmupDays bounds the history loaded on a store's first read. Zero loads everything.
	WarmupDays int

	// RefreshInterval bounds how long reads trust the in-memory log before pulling searches
	// recorded by other replicas. Zero pulls on every read.
	RefreshInterval time.Duration
}

type storeLog struct {
	log    *Log
	warm   bool
	synced time.Time
}

// Service owns one Log per store. Recorded entries are appended in memory before they are persisted
// and forwarded to sinks. Reads warm a store's log from the repository and then keep pulling newer
// entries, so searches served by other replicas are counted too.
type Service struct {
	repo   Repository
	sinks  []Sink
	opts   Options
	clock  func() time.Time
	logger logger.ZapLogger

	mu    sync.RWMutex
	logs  map[string]*storeLog
	group singleflight.Group
}

// NewService accepts a nil repository, in which case logs live only in memory.
func NewService(repo Repository, opts Options, log logger.ZapLogger, sinks ...Sink) *Service {
	return &Service{
		repo:   repo,
		sinks:  sinks,
		opts:   opts,
		clock:  time.Now,
		logger: log,
		logs:   make(map[string]*storeLog),
	}
}

func (s *Service) store(storeID string) *storeLog {
	s.mu.RLock()
	st, ok := s.logs[storeID]
	s.mu.RUnlock()
	if ok {
		return st
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.logs[storeID]; ok {
		return st
	}
	st = &storeLog{log: NewLog()}
	s.logs[storeID] = st
	return st
}

// sync brings the store's log up to date for a read. Until the first load succeeds reads fail;
// after that a failed refresh is logged and the log is served as is.
func (s *Service) sync(ctx context.Context, storeID string) (*Log, error) {
	st := s.store(storeID)
	if s.repo == nil {
		return st.log, nil
	}

	s.mu.RLock()
	warm, synced := st.warm, st.synced
	s.mu.RUnlock()
	if warm && s.opts.RefreshInterval > 0 && s.clock().Sub(synced) < s.opts.RefreshInterval {
		return st.log, nil
	}

	// Callers joining this load must not fail because the first caller went away
	loadCtx := context.WithoutCancel(ctx)
	_, err, _ := s.group.Do(storeID, func() (any, error) {
		started := s.clock()
		var since time.Time
		switch {
		case warm:
			since = synced.Add(-refreshOverlap)
		case s.opts.WarmupDays > 0:
			since = started.AddDate(0, 0, -s.opts.WarmupDays)
		}

		entries, err := s.repo.ListSince(loadCtx, storeID, since)
		if err != nil {
			return nil, fmt.Errorf("failed to load search log: %w", err)
		}
		added := st.log.Merge(entries)

		s.mu.Lock()
		st.warm = true
		st.synced = started
		s.mu.Unlock()

		if !warm {
			s.logger.Info("search log warmed", zap.String("store_id", storeID), zap.Int("entries", added))
		}
		return nil, nil
	})
	if err != nil {
		if warm {
			s.logger.Warn("failed to refresh search log, serving cached log", zap.String("store_id", storeID), zap.Error(err))
			return st.log, nil
		}
		return nil, err
	}
	return st.log, nil
}

// Record appends entry to its store's log. Sink failures are logged; a repository failure is returned
// after the in-memory append so aggregation still sees the search.
func (s *Service) Record(ctx context.Context, entry model.SearchLogEntry) error {
	s.store(entry.StoreID).log.Record(entry)

	for _, sink := range s.sinks {
		if err := sink.Index(ctx, entry); err != nil {
			s.logger.Warn("search log sink failed", zap.String("entry_id", entry.ID), zap.Error(err))
		}
	}

	if s.repo == nil {
		return nil
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		return fmt.Errorf("failed to persist search log: %w", err)
	}
	return nil
}

func (s *Service) TopQueries(ctx context.Context, storeID string, modes []model.SearchMode, limit int, now time.Time, windowDays int) ([]QueryCount, error) {
	l, err := s.sync(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return l.TopQueries(modes, limit, now, windowDays), nil
}

func (s *Service) Unfulfilled(ctx context.Context, storeID string, limit int) ([]UnfulfilledQuery, error) {
	l, err := s.sync(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return l.Unfulfilled(limit), nil
}

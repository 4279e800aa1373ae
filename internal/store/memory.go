package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/weather-reader/internal/pipeline"
)

var (
	// ErrNoRuns is returned when no run has completed yet.
	ErrNoRuns = errors.New("no completed runs")
)

// MemoryStore is a concurrency-safe in-memory history of run summaries.
type MemoryStore struct {
	mu sync.RWMutex

	// time-ordered, oldest first
	runs []pipeline.RunSummary

	// retention configuration
	maxHistory int           // max number of summaries kept
	maxAge     time.Duration // optional max age for summaries
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// SaveRun appends a run summary and enforces retention.
func (s *MemoryStore) SaveRun(summary pipeline.RunSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = append(s.runs, summary)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(s.runs) > s.maxHistory {
		over := len(s.runs) - s.maxHistory
		s.runs = s.runs[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(s.runs); i++ {
			if !s.runs[i].Started.Before(cutoff) {
				break
			}
		}
		if i > 0 && i < len(s.runs) {
			s.runs = s.runs[i:]
		}
	}
}

// Latest returns the most recent run summary.
func (s *MemoryStore) Latest() (pipeline.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.runs) == 0 {
		return pipeline.RunSummary{}, ErrNoRuns
	}
	return s.runs[len(s.runs)-1], nil
}

// Range returns all run summaries started between from and to (inclusive).
func (s *MemoryStore) Range(from, to time.Time) ([]pipeline.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.runs) == 0 {
		return nil, ErrNoRuns
	}

	var result []pipeline.RunSummary
	for _, run := range s.runs {
		if !run.Started.Before(from) && !run.Started.After(to) {
			result = append(result, run)
		}
	}

	if len(result) == 0 {
		return nil, ErrNoRuns
	}

	return result, nil
}

// Package docstore holds the indexed document of each session in memory.
package docstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"docqa/internal/pipeline"
)

// ErrSuperseded is returned by Load when a newer upload or a drop replaced
// the session's document while this one was being indexed.
var ErrSuperseded = errors.New("document superseded by a newer upload")

// Indexer turns raw text into a Ready index.
type Indexer interface {
	Index(ctx context.Context, rawText string) (*pipeline.Index, error)
}

// DefaultIndexTimeout bounds one shared indexing run.
const DefaultIndexTimeout = 10 * time.Minute

type entry struct {
	generation uint64
	hash       string
	index      *pipeline.Index
}

// Store maps sessions to their current index. Indexing of identical text is
// shared between concurrent callers, and an index is only published once it
// is Ready.
type Store struct {
	indexer Indexer
	timeout time.Duration
	group   singleflight.Group

	mu      sync.Mutex
	entries map[uint]*entry
}

type Option func(*Store)

// WithIndexTimeout replaces DefaultIndexTimeout.
func WithIndexTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func New(indexer Indexer, opts ...Option) *Store {
	s := &Store{
		indexer: indexer,
		timeout: DefaultIndexTimeout,
		entries: make(map[uint]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load indexes rawText as the current document of sessionID. Whatever the
// session held before is discarded immediately, so a failed load leaves the
// session empty.
func (s *Store) Load(ctx context.Context, sessionID uint, rawText string) (*pipeline.Index, error) {
	hash := pipeline.HashText(rawText)

	s.mu.Lock()
	current := s.entries[sessionID]
	var generation uint64
	switch {
	case current != nil && current.hash == hash && current.index != nil:
		idx := current.index
		s.mu.Unlock()
		return idx, nil
	case current != nil && current.hash == hash:
		// same text already being indexed for this session: wait for it
		generation = current.generation
	case current != nil:
		generation = current.generation + 1
		s.entries[sessionID] = &entry{generation: generation, hash: hash}
	default:
		generation = 1
		s.entries[sessionID] = &entry{generation: generation, hash: hash}
	}
	s.mu.Unlock()

	// Waiters share the run, so it must outlive the caller that started it.
	ch := s.group.DoChan(hash, func() (interface{}, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.indexer.Index(runCtx, rawText)
	})

	var idx *pipeline.Index
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		idx = res.Val.(*pipeline.Index)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	latest := s.entries[sessionID]
	if latest == nil || latest.generation != generation {
		return nil, ErrSuperseded
	}
	latest.index = idx
	return idx, nil
}

// Get returns the Ready index of sessionID, if any.
func (s *Store) Get(sessionID uint) (*pipeline.Index, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[sessionID]
	if e == nil || e.index == nil {
		return nil, false
	}
	return e.index, true
}

// Drop forgets the session's document and invalidates any load in flight.
func (s *Store) Drop(sessionID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.entries[sessionID]; e != nil {
		s.entries[sessionID] = &entry{generation: e.generation + 1}
	}
}

// Hash returns the content hash of the session's document, whether its
// index is Ready or still being built.
func (s *Store) Hash(sessionID uint) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[sessionID]
	if e == nil || e.hash == "" {
		return "", false
	}
	return e.hash, true
}

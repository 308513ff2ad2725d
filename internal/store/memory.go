package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryConfig configures a MemoryStore.
type MemoryConfig struct {
	// TTL expires documents this long after they are stored. Zero keeps
	// them for the lifetime of the process.
	TTL time.Duration
	// CleanupInterval controls how often expired documents are removed.
	CleanupInterval time.Duration
}

type memoryItem struct {
	doc       *Document
	expiresAt time.Time
}

func (i memoryItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

// MemoryStore keeps documents in process memory.
type MemoryStore struct {
	config    MemoryConfig
	items     map[string]memoryItem
	lock      sync.RWMutex
	closeChan chan struct{}
	closed    bool
	now       func() time.Time
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore(config MemoryConfig) *MemoryStore {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = time.Minute
	}
	s := &MemoryStore{
		config:    config,
		items:     make(map[string]memoryItem),
		closeChan: make(chan struct{}),
		now:       time.Now,
	}

	if config.TTL > 0 {
		go s.cleanupRoutine()
	}

	return s
}

// Put adds or replaces a document
func (s *MemoryStore) Put(_ context.Context, doc *Document) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return ErrClosed
	}

	item := memoryItem{doc: doc}
	if s.config.TTL > 0 {
		item.expiresAt = s.now().Add(s.config.TTL)
	}
	s.items[doc.ID] = item

	return nil
}

// Get retrieves a document by ID
func (s *MemoryStore) Get(_ context.Context, id string) (*Document, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	item, exists := s.items[id]
	if !exists || item.expired(s.now()) {
		return nil, ErrNotFound
	}

	return item.doc, nil
}

// Delete removes a document
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return ErrClosed
	}

	item, exists := s.items[id]
	if !exists || item.expired(s.now()) {
		return ErrNotFound
	}
	delete(s.items, id)

	return nil
}

// List returns summaries of all live documents
func (s *MemoryStore) List(_ context.Context) ([]Summary, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	now := s.now()
	summaries := make([]Summary, 0, len(s.items))
	for _, item := range s.items {
		if item.expired(now) {
			continue
		}
		summaries = append(summaries, item.doc.Summary())
	}
	sortSummaries(summaries)

	return summaries, nil
}

// Close closes the store and stops the cleanup routine
func (s *MemoryStore) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	close(s.closeChan)
	s.items = nil

	return nil
}

// cleanupRoutine periodically removes expired documents
func (s *MemoryStore) cleanupRoutine() {
	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanupExpired()
		case <-s.closeChan:
			return
		}
	}
}

func (s *MemoryStore) cleanupExpired() {
	s.lock.Lock()
	defer s.lock.Unlock()

	now := s.now()
	for id, item := range s.items {
		if item.expired(now) {
			delete(s.items, id)
		}
	}
}

func sortSummaries(summaries []Summary) {
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].UploadTime.Equal(summaries[j].UploadTime) {
			return summaries[i].ID < summaries[j].ID
		}
		return summaries[i].UploadTime.Before(summaries[j].UploadTime)
	})
}

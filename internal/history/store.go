// Package history keeps the append-only, capacity-bounded list of surfaced
// notifications and derives the unread badge count from it. The list is
// mirrored to the device store best-effort; the in-memory view is the
// source of truth when persistence fails.
package history

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/talkio/realtime-client/internal/domain/model"
	"github.com/talkio/realtime-client/internal/metrics"
	"github.com/talkio/realtime-client/internal/storage"
)

const storageKey = "notification_history"

type Store struct {
	kv      storage.KV
	logger  *slog.Logger
	metrics *metrics.Set
	cap     int

	mu      sync.Mutex
	records []model.NotificationRecord // newest first
}

func New(kv storage.KV, cap int, logger *slog.Logger, m *metrics.Set) *Store {
	if cap <= 0 {
		cap = 100
	}
	s := &Store{kv: kv, logger: logger, metrics: m, cap: cap}
	s.load()
	return s
}

func (s *Store) load() {
	data, ok, err := s.kv.Get(context.Background(), storageKey)
	if err != nil {
		s.logger.Error("history load failed, starting empty", "error", err)
		s.metrics.PersistenceErrors.Inc()
		return
	}
	if !ok {
		return
	}
	var records []model.NotificationRecord
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Error("history payload corrupt, starting empty", "error", err)
		s.metrics.PersistenceErrors.Inc()
		return
	}
	if len(records) > s.cap {
		records = records[:s.cap]
	}
	s.records = records
}

// Append inserts at the head and evicts past the cap.
func (s *Store) Append(rec model.NotificationRecord) {
	s.mu.Lock()
	s.records = append([]model.NotificationRecord{rec}, s.records...)
	if len(s.records) > s.cap {
		s.records = s.records[:s.cap]
	}
	s.persistLocked()
	s.mu.Unlock()
}

// History returns the records newest-first. The slice is a copy; mutating
// it cannot corrupt the store.
func (s *Store) History() []model.NotificationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.NotificationRecord, len(s.records))
	copy(out, s.records)
	return out
}

// MarkAsRead is idempotent: an already-read or unknown id is a no-op.
func (s *Store) MarkAsRead(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == id {
			if !s.records[i].IsRead {
				s.records[i].IsRead = true
				s.persistLocked()
			}
			return
		}
	}
}

// MarkAllAsRead is expressed as repeated single-item marks so that any
// per-item persistence side effect still occurs.
func (s *Store) MarkAllAsRead() {
	for _, id := range s.unreadIDs() {
		s.MarkAsRead(id)
	}
}

func (s *Store) unreadIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for i := range s.records {
		if !s.records[i].IsRead {
			ids = append(ids, s.records[i].ID)
		}
	}
	return ids
}

// Clear empties the store; the unread count follows to zero by derivation.
func (s *Store) Clear() {
	s.mu.Lock()
	s.records = nil
	s.persistLocked()
	s.mu.Unlock()
}

// UnreadCount is always derived by filtering the current records. There is
// deliberately no separately-maintained counter to drift from it.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unreadLocked()
}

func (s *Store) unreadLocked() int {
	n := 0
	for i := range s.records {
		if !s.records[i].IsRead {
			n++
		}
	}
	return n
}

func (s *Store) Stats() model.HistoryStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.HistoryStats{Records: len(s.records), Unread: s.unreadLocked()}
}

// persistLocked mirrors the current view to the device store. Failure is
// logged and ignored; the session continues on the in-memory view.
func (s *Store) persistLocked() {
	data, err := json.Marshal(s.records)
	if err != nil {
		s.logger.Error("history marshal failed", "error", err)
		s.metrics.PersistenceErrors.Inc()
		return
	}
	if err := s.kv.Put(context.Background(), storageKey, data); err != nil {
		s.logger.Error("history persist failed", "error", err)
		s.metrics.PersistenceErrors.Inc()
	}
}

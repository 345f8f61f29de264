package ledger

import (
	"slices"
	"sync"

	"github.com/zaman-app/zaman-cli/internal/models"
)

// Store holds the current, de-duplicated set of aims for the signed-in user.
// It is the single source of truth for everything downstream; all mutation
// goes through Upsert and Remove, never by reaching into records directly.
//
// Records are kept in arrival order. Partition views are recomputed on every
// read so they can never go stale relative to the records.
type Store struct {
	mu    sync.RWMutex
	aims  map[int64]models.Aim
	order []int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{aims: make(map[int64]models.Aim)}
}

// Replace swaps the entire store contents for the given set, preserving the
// given order. Used after a successful full load.
func (s *Store) Replace(aims []models.Aim) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aims = make(map[int64]models.Aim, len(aims))
	s.order = s.order[:0]
	for _, a := range aims {
		if _, seen := s.aims[a.ID]; !seen {
			s.order = append(s.order, a.ID)
		}
		s.aims[a.ID] = a
	}
}

// Upsert inserts the record if its id is unseen, else replaces the existing
// record. This is the only mutation primitive; the applier and reconciler
// both call through it.
func (s *Store) Upsert(aim models.Aim) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.aims[aim.ID]; !seen {
		s.order = append(s.order, aim.ID)
	}
	s.aims[aim.ID] = aim
}

// Remove deletes the record with the given id. No-op if absent.
func (s *Store) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.aims[id]; !seen {
		return
	}
	delete(s.aims, id)
	s.order = slices.DeleteFunc(s.order, func(v int64) bool { return v == id })
}

// Get returns the record for id and whether it exists.
func (s *Store) Get(id int64) (models.Aim, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	aim, ok := s.aims[id]
	return aim, ok
}

// Len returns the number of records held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.aims)
}

// All returns every record in arrival order.
func (s *Store) All() []models.Aim {
	return s.filter(func(models.Aim) bool { return true })
}

// InProgress returns the aims not yet completed, in arrival order.
func (s *Store) InProgress() []models.Aim {
	return s.filter(func(a models.Aim) bool { return !a.IsCompleted })
}

// Completed returns the completed aims, in arrival order.
func (s *Store) Completed() []models.Aim {
	return s.filter(func(a models.Aim) bool { return a.IsCompleted })
}

func (s *Store) filter(keep func(models.Aim) bool) []models.Aim {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Aim, 0, len(s.order))
	for _, id := range s.order {
		if a := s.aims[id]; keep(a) {
			out = append(out, a)
		}
	}
	return out
}

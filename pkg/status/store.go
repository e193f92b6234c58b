// Package status holds dispatch statuses on behalf of UI consumers. The
// dispatcher writes through the narrow Store interface; retention and
// clearing are the caller's concern.
package status

import (
	"sync"

	"github.com/dukex/rowactions/pkg/models"
)

// Store is the update surface the dispatcher needs. Implementations must be
// safe for concurrent use: individual-mode dispatches update item statuses
// from in-flight requests.
type Store interface {
	SetActionStatus(actionName string, status models.ActionStatus)
	SetItemStatus(actionName, itemID string, status models.ItemActionStatus)
	ClearActionStatus(actionName string)
	GetActionStatus(actionName string) (models.ActionStatus, bool)
}

// MemoryStore is the in-process Store.
type MemoryStore struct {
	mu       sync.RWMutex
	statuses map[string]models.ActionStatus
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{statuses: make(map[string]models.ActionStatus)}
}

// SetActionStatus replaces action-level state but keeps the existing item
// status map: the two substructures are independent by contract.
func (s *MemoryStore) SetActionStatus(actionName string, status models.ActionStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if status.ItemStatuses == nil {
		status.ItemStatuses = s.statuses[actionName].ItemStatuses
	}

	s.statuses[actionName] = status
}

// SetItemStatus updates one row's status without touching action-level
// state.
func (s *MemoryStore) SetItemStatus(actionName, itemID string, status models.ItemActionStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.statuses[actionName]
	if current.ItemStatuses == nil {
		current.ItemStatuses = make(map[string]models.ItemActionStatus)
	}

	current.ItemStatuses[itemID] = status
	s.statuses[actionName] = current
}

func (s *MemoryStore) ClearActionStatus(actionName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.statuses, actionName)
}

// GetActionStatus returns a snapshot; the item map is copied so readers
// never observe in-flight mutation.
func (s *MemoryStore) GetActionStatus(actionName string) (models.ActionStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status, ok := s.statuses[actionName]
	if ok && status.ItemStatuses != nil {
		items := make(map[string]models.ItemActionStatus, len(status.ItemStatuses))
		for id, item := range status.ItemStatuses {
			items[id] = item
		}

		status.ItemStatuses = items
	}

	return status, ok
}

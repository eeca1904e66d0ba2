package api

import (
	"container/list"
	"sync"
)

// DefaultStoreCapacity bounds how many forward results are retained.
const DefaultStoreCapacity = 256

// ForwardStore keeps the most recent forward results in memory so clients
// can fetch them again by id.  The oldest entry is evicted once the store is
// full.
type ForwardStore struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = newest
	entries  map[string]*list.Element
}

func NewForwardStore(capacity int) *ForwardStore {
	if capacity < 1 {
		capacity = DefaultStoreCapacity
	}
	return &ForwardStore{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

func (s *ForwardStore) Put(resp ForwardResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.entries[resp.ID]; ok {
		el.Value = resp
		s.order.MoveToFront(el)
		return
	}
	s.entries[resp.ID] = s.order.PushFront(resp)
	for s.order.Len() > s.capacity {
		oldest := s.order.Back()
		s.order.Remove(oldest)
		delete(s.entries, oldest.Value.(ForwardResponse).ID)
	}
}

func (s *ForwardStore) Get(id string) (ForwardResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.entries[id]
	if !ok {
		return ForwardResponse{}, false
	}
	return el.Value.(ForwardResponse), true
}

func (s *ForwardStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.entries[id]
	if !ok {
		return false
	}
	s.order.Remove(el)
	delete(s.entries, id)
	return true
}

func (s *ForwardStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

package enrollment

import (
	"sort"
	"sync"
	"time"
)

// Entry is one enrollment made by this process
type Entry struct {
	UserID     int64     `json:"user_id"`
	FaceID     string    `json:"face_id,omitempty"`
	IDNumber   string    `json:"id_number"`
	FullName   string    `json:"full_name"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// Registry keeps the enrollments completed during the lifetime of the process.
// It is created once by the caller and shared by reference with every workflow.
type Registry struct {
	mu      sync.RWMutex
	entries map[int64]Entry
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{entries: make(map[int64]Entry)}
}

// Record stores an enrollment, replacing an earlier entry for the same user
func (r *Registry) Record(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.UserID] = e
}

// Forget removes a user, e.g. after it was deleted on the backend.
// It reports whether the user was known.
func (r *Registry) Forget(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[userID]
	delete(r.entries, userID)
	return ok
}

// Get returns the entry for a user
func (r *Registry) Get(userID int64) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[userID]
	return e, ok
}

// Entries returns all entries, oldest first
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].EnrolledAt.Equal(out[j].EnrolledAt) {
			return out[i].UserID < out[j].UserID
		}
		return out[i].EnrolledAt.Before(out[j].EnrolledAt)
	})
	return out
}

// Len returns the number of recorded enrollments
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

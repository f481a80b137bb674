// Package contacts holds the per-contact conversation state for the
// intake flow. State lives for the process lifetime only; there is no
// persistence and no expiry.
package contacts

import "sync"

// Stage is the contact's position in the booking conversation.
type Stage int

const (
	// StageCollectingInfo gathers name, email, and phone.
	StageCollectingInfo Stage = iota
	// StageWaitingForTime waits for a date/time expression to book.
	StageWaitingForTime
)

func (s Stage) String() string {
	switch s {
	case StageWaitingForTime:
		return "waiting_for_time"
	default:
		return "collecting_info"
	}
}

// Record is the state kept for one contact identifier during a booking
// cycle. Fields follow first-write-wins: once set, a field is frozen
// until the cycle resets.
type Record struct {
	Name    string
	Email   string
	Phone   string
	Stage   Stage
	Engaged bool
}

// Merge applies newly extracted values under first-write-wins and
// reports whether anything changed.
func (r *Record) Merge(name, email, phone string) bool {
	changed := false
	if r.Name == "" && name != "" {
		r.Name = name
		changed = true
	}
	if r.Email == "" && email != "" {
		r.Email = email
		changed = true
	}
	if r.Phone == "" && phone != "" {
		r.Phone = phone
		changed = true
	}
	return changed
}

// Missing returns which of the three required fields are still empty,
// in prompt-priority order.
func (r *Record) Missing() []string {
	var missing []string
	if r.Name == "" {
		missing = append(missing, "name")
	}
	if r.Email == "" {
		missing = append(missing, "email")
	}
	if r.Phone == "" {
		missing = append(missing, "phone")
	}
	return missing
}

// Complete reports whether all three required fields are present.
func (r *Record) Complete() bool {
	return r.Name != "" && r.Email != "" && r.Phone != ""
}

// Reset clears collected fields and returns the record to the start of
// the cycle. Called after a booking attempt, success or failure.
func (r *Record) Reset() {
	*r = Record{Stage: StageCollectingInfo}
}

type entry struct {
	mu  sync.Mutex
	rec Record
}

// Store maps contact identifiers to conversation records. Mutations to
// a single record are serialized by a per-identifier lock; access across
// different identifiers is safe concurrently.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewStore creates an empty contact store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// Update runs fn with exclusive access to the record for id, creating a
// fresh record in StageCollectingInfo on first contact. The whole
// read-merge-write-transition sequence happens under the per-identifier
// lock, so concurrent messages from the same contact cannot interleave.
func (s *Store) Update(id string, fn func(rec *Record)) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok {
		e = &entry{rec: Record{Stage: StageCollectingInfo}}
		s.entries[id] = e
	}
	s.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.rec)
}

// Get returns a copy of the record for id and whether it exists.
func (s *Store) Get(id string) (Record, bool) {
	s.mu.Lock()
	e, ok := s.entries[id]
	s.mu.Unlock()
	if !ok {
		return Record{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rec, true
}

// Len returns the number of known contacts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

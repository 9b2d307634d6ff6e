// Package storage keeps the most recent fleet assessments in memory
// for the API and dashboard layers. The scorer worker overwrites the
// snapshot on every run; readers always see a complete run, never a
// partially written one.
package storage

import (
	"sync"
	"time"

	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/scoring"
)

// assessmentHistoryCap bounds the per-machine trail of past
// assessments kept for trend views
const assessmentHistoryCap = 100

// AssessmentStore holds the latest assessment per machine plus a
// bounded trail of earlier ones
type AssessmentStore struct {
	mu        sync.RWMutex
	latest    map[string]scoring.Assessment
	trail     map[string][]scoring.Assessment
	updatedAt time.Time
}

func NewAssessmentStore() *AssessmentStore {
	return &AssessmentStore{
		latest: make(map[string]scoring.Assessment),
		trail:  make(map[string][]scoring.Assessment),
	}
}

// PutRun replaces the latest assessment for every machine in the run
// and appends to each machine's trail. Machines absent from the run
// keep their previous assessment.
func (s *AssessmentStore) PutRun(run map[string][]scoring.Assessment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for machineID, assessments := range run {
		if len(assessments) == 0 {
			continue
		}
		newest := assessments[len(assessments)-1]
		s.latest[machineID] = newest

		trail := append(s.trail[machineID], newest)
		if len(trail) > assessmentHistoryCap {
			trail = trail[len(trail)-assessmentHistoryCap:]
		}
		s.trail[machineID] = trail
	}
	s.updatedAt = time.Now().UTC()
}

// Latest returns the newest assessment for one machine
func (s *AssessmentStore) Latest(machineID string) (scoring.Assessment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.latest[machineID]
	return a, ok
}

// All returns a copy of the newest assessment per machine
func (s *AssessmentStore) All() map[string]scoring.Assessment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]scoring.Assessment, len(s.latest))
	for id, a := range s.latest {
		out[id] = a
	}
	return out
}

// Trail returns up to count past assessments for one machine, oldest
// first. A non-positive or oversized count returns the whole trail.
func (s *AssessmentStore) Trail(machineID string, count int) []scoring.Assessment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trail := s.trail[machineID]
	if count <= 0 || count > len(trail) {
		count = len(trail)
	}
	out := make([]scoring.Assessment, count)
	copy(out, trail[len(trail)-count:])
	return out
}

// UpdatedAt reports when the store last absorbed a scoring run
func (s *AssessmentStore) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// Len reports the number of machines with a stored assessment
func (s *AssessmentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.latest)
}

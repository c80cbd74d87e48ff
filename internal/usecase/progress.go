package usecase

import (
	"sync"
	"time"
)

// Progress stages with a fixed meaning
const (
	StageQueued = "queued"
	StageStart  = "start"
	StageDone   = "done"
	StageError  = "error"
)

// subscriberBuffer is the number of snapshots a slow subscriber may lag behind before updates are dropped
const subscriberBuffer = 16

// ProgressSnapshot is the state of a job at one point in time
type ProgressSnapshot struct {
	JobID     string    `json:"jobId"`
	Progress  int       `json:"progress"`
	Stage     string    `json:"stage"`
	Message   string    `json:"message"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Final reports whether no further snapshots follow
func (s ProgressSnapshot) Final() bool {
	return s.Stage == StageDone || s.Stage == StageError
}

type progressState struct {
	totalWeight     int
	completedWeight int
	snapshot        ProgressSnapshot
}

// ProgressTracker reports weighted progress of long analyses to subscribers.
// Progress never exceeds 99 until Complete is called. It is the only shared mutable state
// of the analysis path and is safe for concurrent use.
type ProgressTracker struct {
	mu          sync.Mutex
	states      map[string]*progressState
	subscribers map[string][]chan ProgressSnapshot
	now         func() time.Time
}

// NewProgressTracker creates an empty tracker
func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{
		states:      make(map[string]*progressState),
		subscribers: make(map[string][]chan ProgressSnapshot),
		now:         time.Now,
	}
}

// Init starts tracking jobID. A blank job id is ignored.
func (t *ProgressTracker) Init(jobID string, totalWeight int) {
	if jobID == "" {
		return
	}
	if totalWeight < 1 {
		totalWeight = 1
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	state := &progressState{
		totalWeight: totalWeight,
		snapshot: ProgressSnapshot{
			JobID:     jobID,
			Stage:     StageStart,
			Message:   "started",
			UpdatedAt: t.now(),
		},
	}
	t.states[jobID] = state
	t.publishLocked(jobID, state.snapshot)
}

// Step records delta completed weight under stage
func (t *ProgressTracker) Step(jobID string, delta int, stage, message string) {
	if jobID == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.states[jobID]
	if !ok {
		return
	}
	if delta < 0 {
		delta = 0
	}
	state.completedWeight = min(state.totalWeight, state.completedWeight+delta)
	next := state.completedWeight * 100 / state.totalWeight
	state.snapshot.Progress = min(99, max(state.snapshot.Progress, next))
	state.snapshot.Stage = stage
	state.snapshot.Message = message
	state.snapshot.UpdatedAt = t.now()
	t.publishLocked(jobID, state.snapshot)
}

// Complete marks jobID as done, notifies and releases its subscribers
func (t *ProgressTracker) Complete(jobID string) {
	t.finish(jobID, 100, StageDone, "completed")
}

// Fail marks jobID as failed, notifies and releases its subscribers
func (t *ProgressTracker) Fail(jobID, message string) {
	if message == "" {
		message = "failed"
	}
	t.finish(jobID, -1, StageError, message)
}

func (t *ProgressTracker) finish(jobID string, progress int, stage, message string) {
	if jobID == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.states[jobID]
	if !ok {
		return
	}
	if progress >= 0 {
		state.completedWeight = state.totalWeight
		state.snapshot.Progress = progress
	}
	state.snapshot.Stage = stage
	state.snapshot.Message = message
	state.snapshot.UpdatedAt = t.now()
	t.publishLocked(jobID, state.snapshot)

	for _, ch := range t.subscribers[jobID] {
		close(ch)
	}
	delete(t.subscribers, jobID)
	delete(t.states, jobID)
}

// Snapshot returns the current state of jobID, or a queued snapshot when it has not started
func (t *ProgressTracker) Snapshot(jobID string) ProgressSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked(jobID)
}

func (t *ProgressTracker) snapshotLocked(jobID string) ProgressSnapshot {
	if state, ok := t.states[jobID]; ok {
		return state.snapshot
	}
	return ProgressSnapshot{JobID: jobID, Stage: StageQueued, Message: "waiting", UpdatedAt: t.now()}
}

// Subscribe returns a channel that first receives the current snapshot and then every update.
// The channel is closed when the job completes or fails, or when cancel is called.
func (t *ProgressTracker) Subscribe(jobID string) (<-chan ProgressSnapshot, func()) {
	ch := make(chan ProgressSnapshot, subscriberBuffer)

	t.mu.Lock()
	ch <- t.snapshotLocked(jobID)
	t.subscribers[jobID] = append(t.subscribers[jobID], ch)
	t.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			subs := t.subscribers[jobID]
			for i, c := range subs {
				if c == ch {
					t.subscribers[jobID] = append(subs[:i], subs[i+1:]...)
					close(ch)
					break
				}
			}
			if len(t.subscribers[jobID]) == 0 {
				delete(t.subscribers, jobID)
			}
		})
	}
	return ch, cancel
}

// publishLocked delivers without blocking; a full subscriber misses the update
func (t *ProgressTracker) publishLocked(jobID string, snapshot ProgressSnapshot) {
	for _, ch := range t.subscribers[jobID] {
		select {
		case ch <- snapshot:
		default:
		}
	}
}

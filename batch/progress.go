package batch

import "sync"

// ProgressSnapshot is one observation of a run's progress. Current never
// exceeds Total.
type ProgressSnapshot struct {
	Current uint64 `json:"current"`
	Total   uint64 `json:"total"`
}

// Progress is the shared progress state of the orchestrator. It has a single
// writer (the active run) and any number of readers. Outside an active run
// both fields are zero.
type Progress struct {
	mtx      sync.RWMutex
	current  uint64
	total    uint64
	watchers []chan ProgressSnapshot
}

// NewProgress creates an idle progress reporter.
func NewProgress() *Progress {
	return &Progress{}
}

// Snapshot returns the current progress for polling.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	return ProgressSnapshot{Current: p.current, Total: p.total}
}

// Subscribe registers a watcher channel. Updates that a slow watcher cannot
// keep up with are dropped, never blocking the run.
func (p *Progress) Subscribe() <-chan ProgressSnapshot {
	ch := make(chan ProgressSnapshot, 8)
	p.mtx.Lock()
	p.watchers = append(p.watchers, ch)
	p.mtx.Unlock()
	return ch
}

// begin resets the counters for a run over total operations.
func (p *Progress) begin(total uint64) {
	p.set(0, total)
}

// advance moves the current counter forward by n processed operations.
func (p *Progress) advance(n uint64) {
	p.mtx.Lock()
	p.current += n
	if p.current > p.total {
		p.current = p.total
	}
	snap := ProgressSnapshot{Current: p.current, Total: p.total}
	watchers := p.watchers
	p.mtx.Unlock()
	notify(watchers, snap)
}

// reset returns the reporter to its idle zero state.
func (p *Progress) reset() {
	p.set(0, 0)
}

func (p *Progress) set(current, total uint64) {
	p.mtx.Lock()
	p.current = current
	p.total = total
	snap := ProgressSnapshot{Current: current, Total: total}
	watchers := p.watchers
	p.mtx.Unlock()
	notify(watchers, snap)
}

func notify(watchers []chan ProgressSnapshot, snap ProgressSnapshot) {
	for _, ch := range watchers {
		select {
		case ch <- snap:
		default:
		}
	}
}

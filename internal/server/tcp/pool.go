package tcp

import (
	"sync"
	"time"
)

// DefaultIdleTimeout is how long a spare worker waits for work before it
// exits.
const DefaultIdleTimeout = 60 * time.Second

// Pool is a direct-handoff worker pool: core workers stay resident, spare
// workers are spawned on demand up to a cap and retire after an idle period,
// and there is no task queue at all. Submit fails immediately when every
// worker is busy and the cap is reached, which bounds memory under load at
// the cost of rejected connections during bursts.
type Pool struct {
	tasks chan func()
	idle  time.Duration

	mu      sync.Mutex
	max     int
	workers int
	closed  bool
	wg      sync.WaitGroup
}

// NewPool creates a pool with core resident workers growing up to max.
func NewPool(core, max int, idle time.Duration) *Pool {
	if core < 1 {
		core = 1
	}
	if max < core {
		max = core
	}
	p := &Pool{
		tasks: make(chan func()),
		idle:  idle,
		max:   max,
	}
	p.mu.Lock()
	for i := 0; i < core; i++ {
		p.spawnLocked(nil, true)
	}
	p.mu.Unlock()
	return p
}

// Submit hands the task to an idle worker, spawning a spare one when none is
// free and the cap allows it. Returns false when the pool is saturated or
// closed; the task is then not executed.
func (p *Pool) Submit(task func()) bool {
	select {
	case p.tasks <- task:
		return true
	default:
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}
	// Re-check under the lock: a worker may have gone idle meanwhile.
	select {
	case p.tasks <- task:
		return true
	default:
	}
	if p.workers >= p.max {
		return false
	}
	p.spawnLocked(task, false)
	return true
}

// Close stops accepting tasks and waits for running ones to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()
	p.wg.Wait()
}

// Workers returns the current worker count.
func (p *Pool) Workers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.workers
}

// spawnLocked starts a worker, optionally seeded with an initial task.
// Resident workers block for work indefinitely; spare ones retire after the
// idle timeout.
func (p *Pool) spawnLocked(initial func(), resident bool) {
	p.workers++
	p.wg.Add(1)

	go func() {
		defer p.wg.Done()
		defer func() {
			p.mu.Lock()
			p.workers--
			p.mu.Unlock()
		}()

		if initial != nil {
			initial()
		}

		if resident {
			for task := range p.tasks {
				task()
			}
			return
		}

		idleTimer := time.NewTimer(p.idle)
		defer idleTimer.Stop()
		for {
			select {
			case task, ok := <-p.tasks:
				if !ok {
					return
				}
				task()
				if !idleTimer.Stop() {
					select {
					case <-idleTimer.C:
					default:
					}
				}
				idleTimer.Reset(p.idle)
			case <-idleTimer.C:
				return
			}
		}
	}()
}

// Package dispatch implements the call dispatcher: a worker pool that
// runs each arriving datagram to completion, deferring full frames
// that would otherwise race another worker on the same call (spec
// §4.1).
package dispatch

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("package", "dispatch")

// DefaultPoolSize and DefaultMaxDynamic are the worker-pool sizing
// defaults (spec §4.1 "fixed pool of N threads, default 10... cap,
// default 100").
const (
	DefaultPoolSize  = 10
	DefaultMaxDynamic = 100

	// DynamicIdleTimeout is how long an overflow worker waits for a
	// new job before retiring (spec §4.1 "self-retire after 30s idle").
	DynamicIdleTimeout = 30 * time.Second
)

// Job is one unit of work handed to a worker: decode-and-process a
// single datagram.
type Job func()

// Pool is a fixed set of long-lived goroutines plus a bounded set of
// overflow goroutines created on demand, modeled on the teacher's
// job-channel worker pool (group/chat.go sendToConnectedPeers) but
// long-running rather than one-shot, with dynamic growth and retirement.
type Pool struct {
	jobs chan Job

	mu          sync.Mutex
	dynamic     int
	maxDynamic  int
	wg          sync.WaitGroup
	stopped     bool
	stopCh      chan struct{}
}

// NewPool starts size fixed workers immediately; maxDynamic bounds the
// number of additional overflow workers spawned under load.
func NewPool(size, maxDynamic int) *Pool {
	if size <= 0 {
		size = DefaultPoolSize
	}
	if maxDynamic <= 0 {
		maxDynamic = DefaultMaxDynamic
	}
	p := &Pool{
		jobs:       make(chan Job),
		maxDynamic: maxDynamic,
		stopCh:     make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.fixedWorker()
	}
	return p
}

func (p *Pool) fixedWorker() {
	defer p.wg.Done()
	for {
		select {
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			job()
		case <-p.stopCh:
			return
		}
	}
}

func (p *Pool) dynamicWorker() {
	defer func() {
		p.mu.Lock()
		p.dynamic--
		p.mu.Unlock()
		p.wg.Done()
	}()
	timer := time.NewTimer(DynamicIdleTimeout)
	defer timer.Stop()
	for {
		select {
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			job()
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(DynamicIdleTimeout)
		case <-timer.C:
			return
		case <-p.stopCh:
			return
		}
	}
}

// Submit hands a job to the pool. If the queue is full and a dynamic
// worker can still be spawned, one is started to absorb the job;
// if the pool is fully saturated the job is dropped and Submit
// returns false (spec §4.1 "if no worker is available, the datagram
// is dropped; the protocol handles retransmission").
func (p *Pool) Submit(job Job) bool {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return false
	}
	select {
	case p.jobs <- job:
		p.mu.Unlock()
		return true
	default:
	}
	if p.dynamic < p.maxDynamic {
		p.dynamic++
		p.wg.Add(1)
		p.mu.Unlock()
		go p.dynamicWorker()
		p.jobs <- job
		return true
	}
	p.mu.Unlock()
	log.Warn("dispatch pool saturated, dropping datagram")
	return false
}

// Stop halts all workers; queued jobs are abandoned.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()
	close(p.stopCh)
	p.wg.Wait()
}

// DynamicCount reports the current number of overflow workers, for
// tests/metrics.
func (p *Pool) DynamicCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dynamic
}

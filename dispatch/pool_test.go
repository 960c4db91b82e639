package dispatch

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoolRunsFixedWorkers(t *testing.T) {
	p := NewPool(3, 10)
	defer p.Stop()

	var n int32
	var wg sync.WaitGroup
	wg.Add(5)
	for i := 0; i < 5; i++ {
		ok := p.Submit(func() {
			atomic.AddInt32(&n, 1)
			wg.Done()
		})
		assert.True(t, ok)
	}
	wg.Wait()
	assert.EqualValues(t, 5, atomic.LoadInt32(&n))
}

func TestPoolGrowsDynamicallyWhenSaturated(t *testing.T) {
	p := NewPool(1, 5)
	defer p.Stop()

	block := make(chan struct{})
	var wg sync.WaitGroup
	const jobs = 4
	wg.Add(jobs)
	for i := 0; i < jobs; i++ {
		p.Submit(func() {
			<-block
			wg.Done()
		})
	}
	time.Sleep(50 * time.Millisecond)
	assert.Greater(t, p.DynamicCount(), 0)
	close(block)
	wg.Wait()
}

func TestPoolStopStopsAcceptingWork(t *testing.T) {
	p := NewPool(2, 2)
	p.Stop()
	ok := p.Submit(func() {})
	assert.False(t, ok)
}

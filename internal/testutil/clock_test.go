package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockAdvancesPerReading(t *testing.T) {
	c := NewClock()
	first := c.Now()
	second := c.Now()
	assert.Equal(t, Epoch, first)
	assert.Equal(t, time.Second, second.Sub(first))

	c.Advance(time.Hour)
	assert.Equal(t, second.Add(time.Second+time.Hour), c.Peek())
}

func TestClockConcurrentReadingsAreDistinct(t *testing.T) {
	c := NewClock()
	var (
		mu   sync.Mutex
		seen = map[time.Time]bool{}
		wg   sync.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ts := c.Now()
			mu.Lock()
			seen[ts] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 50)
}

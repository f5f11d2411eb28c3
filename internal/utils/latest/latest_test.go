package latest

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_LastRequestWins(t *testing.T) {
	tr := NewTracker()

	slow := tr.Begin("project-a")
	fast := tr.Begin("project-a")

	var applied []string
	assert.True(t, tr.Apply(fast, func() { applied = append(applied, "fast") }))
	assert.False(t, tr.Apply(slow, func() { applied = append(applied, "slow") }))
	assert.Equal(t, []string{"fast"}, applied)
}

func TestTracker_KeysAreIndependent(t *testing.T) {
	tr := NewTracker()

	a := tr.Begin("a")
	b := tr.Begin("b")

	assert.True(t, tr.IsCurrent(a))
	assert.True(t, tr.IsCurrent(b))
}

func TestTracker_Forget(t *testing.T) {
	tr := NewTracker()

	old := tr.Begin("a")
	newer := tr.Begin("a")
	tr.Forget(old)
	assert.True(t, tr.IsCurrent(newer))

	tr.Forget(newer)
	assert.False(t, tr.IsCurrent(newer))
}

func TestTracker_Concurrent(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	tickets := make(chan Ticket, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tickets <- tr.Begin("k")
		}()
	}
	wg.Wait()
	close(tickets)

	current := 0
	for tk := range tickets {
		if tr.IsCurrent(tk) {
			current++
		}
	}
	assert.Equal(t, 1, current)
}

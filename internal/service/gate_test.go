package service

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReentrancyGate_EnterExit(t *testing.T) {
	var g ReentrancyGate

	assert.True(t, g.Enter())
	assert.False(t, g.Enter(), "second entry must fail while held")

	g.Exit()
	assert.True(t, g.Enter(), "gate must be reusable after exit")
	g.Exit()
}

func TestReentrancyGate_AtMostOneWinner(t *testing.T) {
	var g ReentrancyGate
	var winners atomic.Int32
	var wg sync.WaitGroup

	start := make(chan struct{})
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if g.Enter() {
				winners.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}

package game

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlayerLocksSerializeAndRelease(t *testing.T) {
	locks := newPlayerLocks()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("p")
			counter++
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, locks.size())
}

func TestPlayerLocksIndependentKeys(t *testing.T) {
	locks := newPlayerLocks()
	unlockA := locks.lock("a")
	// "b" must not wait on "a"
	unlockB := locks.lock("b")
	assert.Equal(t, 2, locks.size())
	unlockB()
	unlockA()
	assert.Equal(t, 0, locks.size())
}

func TestReasonIsError(t *testing.T) {
	var err error = ReasonWrongLetter
	assert.Equal(t, "wrong_letter", err.Error())
}

package service

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestWorkspaceLocksSerialize(t *testing.T) {
	locks := newWorkspaceLocks()
	id := uuid.New()

	var counter int
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locks.lock(id)
			defer locks.unlock(id)
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestWorkspaceLocksReleaseEntries(t *testing.T) {
	locks := newWorkspaceLocks()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		id := uuid.New()
		wg.Add(1)
		go func() {
			defer wg.Done()
			locks.lock(id)
			locks.unlock(id)
		}()
	}
	wg.Wait()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.locks, "released locks leave no map entries behind")
}

func TestWorkspaceLocksIndependentPerWorkspace(t *testing.T) {
	locks := newWorkspaceLocks()
	first := uuid.New()
	second := uuid.New()

	locks.lock(first)
	defer locks.unlock(first)

	done := make(chan struct{})
	go func() {
		locks.lock(second)
		locks.unlock(second)
		close(done)
	}()

	<-done
}

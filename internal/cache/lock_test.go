package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_MutualExclusion(t *testing.T) {
	cache, _ := setupTestCache(t)
	locker := NewLocker(cache, 5*time.Second, 5*time.Second)

	var (
		inside  int32
		maxSeen int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), "lot-1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxSeen)
				if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen)
}

func TestLocker_Timeout(t *testing.T) {
	cache, _ := setupTestCache(t)
	locker := NewLocker(cache, 5*time.Second, 100*time.Millisecond)

	unlock, err := locker.Lock(context.Background(), "lot-1")
	require.NoError(t, err)
	defer unlock()

	_, err = locker.Lock(context.Background(), "lot-1")
	assert.ErrorIs(t, err, ErrLockTimeout)

	other, err := locker.Lock(context.Background(), "lot-2")
	require.NoError(t, err)
	other()
}

func TestLocker_ReleaseKeepsForeignLock(t *testing.T) {
	cache, mr := setupTestCache(t)
	locker := NewLocker(cache, time.Second, time.Second)

	unlock, err := locker.Lock(context.Background(), "lot-1")
	require.NoError(t, err)

	// блокировка истекла и перехвачена другим владельцем
	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set(lockPrefix+"lot-1", "someone-else"))

	unlock()

	val, err := mr.Get(lockPrefix + "lot-1")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", val)
}

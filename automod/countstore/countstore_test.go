package countstore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemCountStoreBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cs := NewMemCountStore()

	c, err := cs.GetCount(ctx, "member-join", "guild1", PeriodTotal)
	assert.NoError(err)
	assert.Equal(0, c)
	assert.NoError(cs.Increment(ctx, "member-join", "guild1"))
	assert.NoError(cs.Increment(ctx, "member-join", "guild1"))
	assert.NoError(cs.Increment(ctx, "member-join", "guild2"))

	for _, period := range []string{PeriodTotal, PeriodDay, PeriodHour} {
		c, err = cs.GetCount(ctx, "member-join", "guild1", period)
		assert.NoError(err)
		assert.Equal(2, c)
	}
	c, err = cs.GetCount(ctx, "member-join", "guild2", PeriodTotal)
	assert.NoError(err)
	assert.Equal(1, c)
}

func TestMemCountStoreConcurrent(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cs := NewMemCountStore()

	// run with -race
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				assert.NoError(cs.Increment(ctx, "automod-ban", "guild1"))
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_, err := cs.GetCount(ctx, "automod-ban", "guild1", PeriodDay)
				assert.NoError(err)
			}
		}()
	}
	wg.Wait()

	c, err := cs.GetCount(ctx, "automod-ban", "guild1", PeriodTotal)
	assert.NoError(err)
	assert.Equal(200, c)
}

func TestRedisCountStoreBasics(t *testing.T) {
	t.Skip("live test, need redis running locally")
	assert := assert.New(t)
	ctx := context.Background()

	cs, err := NewRedisCountStore("redis://localhost:6379/0")
	if err != nil {
		t.Fatal(err)
	}
	defer cs.Close()

	before, err := cs.GetCount(ctx, "test-count", "val1", PeriodTotal)
	assert.NoError(err)
	assert.NoError(cs.Increment(ctx, "test-count", "val1"))
	after, err := cs.GetCount(ctx, "test-count", "val1", PeriodTotal)
	assert.NoError(err)
	assert.Equal(before+1, after)
}

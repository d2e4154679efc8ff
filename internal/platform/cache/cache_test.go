// Copyright (c) 2026 SaveState. All rights reserved.
// Author: dev@savestate.social

package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/savestate/savestate-go/internal/platform/cache"
)

/*
TestCache_GetSet verifies the basic read/write contract.
*/
func TestCache_GetSet(t *testing.T) {
	c := cache.New()
	key := cache.Key{Resource: "rating", ID: "123"}

	// 1. Missing key
	_, ok := c.Get(key)
	assert.False(t, ok)

	// 2. Stored value is readable
	c.Set(key, 4.5)
	value, ok := c.Get(key)
	assert.True(t, ok)
	assert.Equal(t, 4.5, value)

	// 3. Last writer wins
	c.Set(key, 3.0)
	value, _ = c.Get(key)
	assert.Equal(t, 3.0, value)
}

/*
TestCache_InvalidateGroup verifies that coarse invalidation drops every key
of the named resource groups and nothing else.
*/
func TestCache_InvalidateGroup(t *testing.T) {
	c := cache.New()
	statusKey := cache.Key{Resource: "game_list_status", ID: "123"}
	listsKey := cache.Key{Resource: "user_lists"}
	ratingKey := cache.Key{Resource: "rating", ID: "123"}

	c.Set(statusKey, "a")
	c.Set(listsKey, "b")
	c.Set(ratingKey, "c")

	c.Invalidate("game_list_status", "user_lists")

	_, ok := c.Get(statusKey)
	assert.False(t, ok)
	_, ok = c.Get(listsKey)
	assert.False(t, ok)

	// Unrelated group survives
	value, ok := c.Get(ratingKey)
	assert.True(t, ok)
	assert.Equal(t, "c", value)
}

/*
TestCache_CancelInflight verifies the generation protocol: a read that
captured its generation before a cancellation cannot write its result.
*/
func TestCache_CancelInflight(t *testing.T) {
	c := cache.New()
	key := cache.Key{Resource: "rating", ID: "9"}

	// Reader captures the generation, then a mutation cancels in-flight reads.
	generation := c.Generation(key)
	c.CancelInflight(key)
	c.Set(key, 5.0) // optimistic value

	// The stale read's write is discarded.
	assert.False(t, c.SetIfCurrent(key, generation, 1.0))
	value, _ := c.Get(key)
	assert.Equal(t, 5.0, value)

	// A reader with the current generation may write.
	current := c.Generation(key)
	assert.True(t, c.SetIfCurrent(key, current, 4.0))
	value, _ = c.Get(key)
	assert.Equal(t, 4.0, value)
}

/*
TestCache_InvalidateKeyPreservesGeneration verifies that dropping a single
entry does not reset its generation counter.
*/
func TestCache_InvalidateKeyPreservesGeneration(t *testing.T) {
	c := cache.New()
	key := cache.Key{Resource: "review", ID: "7"}

	c.Set(key, "first")
	generation := c.CancelInflight(key)
	c.InvalidateKey(key)

	_, ok := c.Get(key)
	assert.False(t, ok)
	assert.Equal(t, generation, c.Generation(key))
}

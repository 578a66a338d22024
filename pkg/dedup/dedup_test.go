package dedup_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexibly/quotakit/pkg/dedup"
)

func TestMemoryDeduper_Seen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("first sighting is fresh", func(t *testing.T) {
		t.Parallel()
		d := dedup.NewMemoryDeduper()

		seen, err := d.Seen(ctx, "evt_1")
		require.NoError(t, err)
		assert.False(t, seen)

		seen, err = d.Seen(ctx, "evt_1")
		require.NoError(t, err)
		assert.True(t, seen)
	})

	t.Run("distinct ids do not collide", func(t *testing.T) {
		t.Parallel()
		d := dedup.NewMemoryDeduper()

		_, err := d.Seen(ctx, "evt_1")
		require.NoError(t, err)

		seen, err := d.Seen(ctx, "evt_2")
		require.NoError(t, err)
		assert.False(t, seen)
	})

	t.Run("exactly one concurrent caller wins", func(t *testing.T) {
		t.Parallel()
		d := dedup.NewMemoryDeduper()

		const callers = 32
		fresh := make(chan bool, callers)

		var wg sync.WaitGroup
		for range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				seen, err := d.Seen(ctx, "evt_race")
				assert.NoError(t, err)
				fresh <- !seen
			}()
		}
		wg.Wait()
		close(fresh)

		winners := 0
		for isFresh := range fresh {
			if isFresh {
				winners++
			}
		}
		assert.Equal(t, 1, winners)
	})
}

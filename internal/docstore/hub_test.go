package docstore

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubDropsStaleSnapshots(t *testing.T) {
	h := newHub()
	var got []string
	h.add("tasks", func(records []Record) {
		got = append(got, records[0]["v"].(string))
	})

	older, newer := h.stamp(), h.stamp()
	h.publish("tasks", newer, []Record{{"id": "1", "v": "new"}})
	h.publish("tasks", older, []Record{{"id": "1", "v": "old"}})
	h.publish("tasks", newer, []Record{{"id": "1", "v": "again"}})

	assert.Equal(t, []string{"new"}, got)
}

func TestHubRefreshSkipsUnwatched(t *testing.T) {
	h := newHub()
	loads := 0
	load := func() ([]Record, error) {
		loads++
		return []Record{}, nil
	}

	require.NoError(t, h.refresh("tasks", load))
	assert.Zero(t, loads)

	h.add("tasks", func([]Record) {})
	require.NoError(t, h.refresh("tasks", load))
	assert.Equal(t, 1, loads)
}

// A subscriber must end on the state LoadAll reports, however the
// notifications of concurrent writers interleave.
func TestConcurrentWritersConverge(t *testing.T) {
	const writers, rounds = 8, 15

	for name, c := range openClients(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()

			var mu sync.Mutex
			var last []Record
			unsubscribe, err := c.Subscribe(ctx, "tasks", func(records []Record) {
				mu.Lock()
				defer mu.Unlock()
				last = records
			})
			require.NoError(t, err)
			defer unsubscribe()

			var wg sync.WaitGroup
			for w := range writers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for r := range rounds {
						id, err := c.Add(ctx, "tasks", Record{"title": fmt.Sprintf("w%d-r%d", w, r)})
						if !assert.NoError(t, err) {
							return
						}
						assert.NoError(t, c.Update(ctx, "tasks", id, Record{"round": float64(r)}))
						if r%3 == 0 {
							assert.NoError(t, c.Delete(ctx, "tasks", id))
						}
					}
				}()
			}
			wg.Wait()

			want, err := c.LoadAll(ctx, "tasks")
			require.NoError(t, err)
			require.Len(t, want, writers*(rounds-5))

			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, want, last)
		})
	}
}

package workflow

import (
	"context"
	"sync"
	"testing"

	"nutrisense"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCheckpointer(t *testing.T) {
	cps := NewMemoryCheckpointer()
	ctx := context.Background()

	require.NoError(t, cps.Save(ctx, Checkpoint{SessionID: "a", Sequence: 1, Step: "clinical_check"}))
	require.NoError(t, cps.Save(ctx, Checkpoint{SessionID: "a", Sequence: 2, Step: "extract_intent"}))
	require.NoError(t, cps.Save(ctx, Checkpoint{SessionID: "b", Sequence: 1, Step: "clinical_check"}))

	assert.Equal(t, 2, cps.Sessions())
	assert.Len(t, cps.List("a"), 2)
	assert.Empty(t, cps.List("missing"))

	latest, ok := cps.Latest("a")
	require.True(t, ok)
	assert.Equal(t, "extract_intent", latest.Step)

	cps.Delete("a")
	_, ok = cps.Latest("a")
	assert.False(t, ok)
	assert.Equal(t, 1, cps.Sessions())
}

func TestMemoryCheckpointer_ListIsACopy(t *testing.T) {
	cps := NewMemoryCheckpointer()
	require.NoError(t, cps.Save(context.Background(), Checkpoint{SessionID: "a", Step: "x"}))

	list := cps.List("a")
	list[0].Step = "mutated"
	assert.Equal(t, "x", cps.List("a")[0].Step)
}

func TestMemoryCheckpointer_Concurrent(t *testing.T) {
	cps := NewMemoryCheckpointer()
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = cps.Save(context.Background(), Checkpoint{
				SessionID: "shared",
				Sequence:  i,
				State:     *nutrisense.NewState("shared", "q"),
			})
		}(i)
	}
	wg.Wait()
	assert.Len(t, cps.List("shared"), 20)
}

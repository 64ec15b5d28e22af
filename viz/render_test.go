package viz

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "parseable summary", text: "Calories: Approximately 476 calories, Protein: 38.15g, Fat: 12 g"},
		{name: "single nutrient", text: "Protein: 20g"},
		{name: "text fallback", text: "not parseable"},
		{name: "empty text", text: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "charts", "plot.png")
			r := NewRenderer(path)

			got, err := r.Render("Nutritional Information", tt.text)
			require.NoError(t, err)
			assert.Equal(t, path, got)

			data, err := os.ReadFile(got)
			require.NoError(t, err)
			_, err = png.Decode(bytes.NewReader(data))
			assert.NoError(t, err, "output should be a PNG")
		})
	}
}

func TestRender_OverwritesSamePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plot.png")
	r := NewRenderer(path)

	first, err := r.Render("one", "not parseable")
	require.NoError(t, err)
	before, err := os.ReadFile(first)
	require.NoError(t, err)

	second, err := r.Render("two", "Protein: 30g, Carbs: 60g")
	require.NoError(t, err)
	after, err := os.ReadFile(second)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotEqual(t, before, after)
}

func TestRender_Concurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plot.png")
	r := NewRenderer(path)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Render("t", "Protein: 10g")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(data))
	assert.NoError(t, err)
}

func TestWrap(t *testing.T) {
	assert.Equal(t, []string{"aaa bbb", "ccc"}, wrap("aaa bbb ccc", 7))
	assert.Equal(t, []string{"one", "two"}, wrap("one\ntwo", 20))
}

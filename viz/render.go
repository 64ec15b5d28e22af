package viz

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	chart "github.com/wcharczuk/go-chart/v2"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	defaultWidth  = 1000
	defaultHeight = 700
	barWidth      = 60
	barSpacing    = 40
	textMargin    = 24
	lineHeight    = 16
)

// writeMu serializes chart writes across every Renderer in the process,
// since they may share a path.
var writeMu sync.Mutex

// Renderer writes charts to a single path. Every render overwrites the
// previous image.
type Renderer struct {
	path   string
	width  int
	height int
}

func NewRenderer(path string) *Renderer {
	return &Renderer{path: path, width: defaultWidth, height: defaultHeight}
}

func (r *Renderer) Path() string { return r.path }

// Render draws a bar chart of the nutrients in text. When nothing parses, or
// the chart cannot be drawn, the raw text is rendered instead. It returns the
// image path.
func (r *Renderer) Render(title, text string) (string, error) {
	var img []byte

	series, err := Parse(text)
	if err == nil {
		img, err = r.renderBars(title, series)
		if err != nil {
			slog.Warn("VIZ: Bar chart failed, rendering text", "error", err)
		}
	} else {
		slog.Info("VIZ: Nothing to plot, rendering text", "reason", err)
	}

	if img == nil {
		img, err = r.renderText(title, text)
		if err != nil {
			return "", fmt.Errorf("render text chart: %w", err)
		}
	}

	writeMu.Lock()
	defer writeMu.Unlock()

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create chart dir: %w", err)
		}
	}
	if err := os.WriteFile(r.path, img, 0o644); err != nil {
		return "", fmt.Errorf("write chart: %w", err)
	}
	return r.path, nil
}

func (r *Renderer) renderBars(title string, series *orderedmap.OrderedMap[string, Amount]) ([]byte, error) {
	bars := make([]chart.Value, 0, series.Len())
	maxValue := 0.0
	for pair := series.Oldest(); pair != nil; pair = pair.Next() {
		bars = append(bars, chart.Value{
			Value: pair.Value.Value,
			Label: fmt.Sprintf("%s %s", titleCase(pair.Key), pair.Value),
		})
		maxValue = max(maxValue, pair.Value.Value)
	}
	if maxValue <= 0 {
		maxValue = 1
	}

	width := max(r.width, len(bars)*(barWidth+barSpacing)+200)
	graph := chart.BarChart{
		Title:      title,
		Width:      width,
		Height:     r.height,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		Background: chart.Style{
			Padding: chart.Box{Top: 60, Left: 20, Right: 20, Bottom: 20},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: maxValue * 1.15},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Renderer) renderText(title, text string) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	d := &font.Drawer{Dst: img, Src: image.Black, Face: basicfont.Face7x13}
	y := textMargin + lineHeight
	d.Dot = fixed.P(textMargin, y)
	d.DrawString(title)
	y += lineHeight

	cols := (r.width - 2*textMargin) / basicfont.Face7x13.Advance
	for _, line := range wrap(text, cols) {
		y += lineHeight
		if y > r.height-textMargin {
			break
		}
		d.Dot = fixed.P(textMargin, y)
		d.DrawString(line)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// wrap breaks text into lines of at most cols runes on word boundaries.
func wrap(text string, cols int) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		var line strings.Builder
		for _, word := range strings.Fields(para) {
			if line.Len() > 0 && len([]rune(line.String()))+1+len([]rune(word)) > cols {
				lines = append(lines, line.String())
				line.Reset()
			}
			if line.Len() > 0 {
				line.WriteByte(' ')
			}
			line.WriteString(word)
		}
		lines = append(lines, line.String())
	}
	return lines
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

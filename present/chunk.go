package present

import (
	"strings"
	"unicode/utf8"
)

// MaxMessageLen is the longest message posted to a chat surface.
const MaxMessageLen = 2000

const continuedPrefix = "**Continued...**\n\n"

// minChunkLen leaves room for the continuation marker plus one rune and a
// newline in every piece.
const minChunkLen = len(continuedPrefix) + utf8.UTFMax + 1

// Chunk splits content on line boundaries into pieces of at most max bytes,
// continuation marker included. Every piece after the first carries the
// marker. A single line too long for a piece is split at rune boundaries.
// A max below minChunkLen falls back to MaxMessageLen.
func Chunk(content string, max int) []string {
	if max < minChunkLen {
		max = MaxMessageLen
	}
	if len(content) <= max {
		return []string{content}
	}

	var chunks []string
	var cur strings.Builder
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			chunks = append(chunks, s)
		}
		cur.Reset()
	}
	budget := func() int {
		if len(chunks) == 0 {
			return max
		}
		return max - len(continuedPrefix)
	}

	for _, line := range strings.Split(content, "\n") {
		for {
			// Leave room for the trailing newline.
			room := budget() - cur.Len() - 1
			if len(line) <= room {
				cur.WriteString(line)
				cur.WriteByte('\n')
				break
			}
			if cur.Len() > 0 {
				flush()
				continue
			}
			cut := runeCut(line, room)
			cur.WriteString(line[:cut])
			flush()
			line = line[cut:]
		}
	}
	flush()

	for i := 1; i < len(chunks); i++ {
		chunks[i] = continuedPrefix + chunks[i]
	}
	return chunks
}

// runeCut returns the largest index no greater than limit that starts a rune.
func runeCut(s string, limit int) int {
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		return limit
	}
	return cut
}

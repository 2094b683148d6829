package textproc

import (
	"regexp"
	"strings"

	"github.com/docuseek/docrag/internal/domain"
)

// Default chunking parameters, tuned for multi-page documents.
const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200
)

// sentenceRegex matches sentence-like runs ending in '.', '!' or '?'.
var sentenceRegex = regexp.MustCompile(`[^.!?]+[.!?]+`)

// Chunker splits text into overlapping sentence-aware chunks. Chunk size
// is a soft bound: a single sentence longer than chunkSize is kept whole,
// never split mid-sentence.
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker creates a chunker. Non-positive chunkSize falls back to
// DefaultChunkSize; an overlap that is negative or not smaller than the
// chunk size is clamped to chunkSize/4.
func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

// Chunk splits text into chunks. Each chunk is an exact substring of the
// input, so Start/End offsets are byte-true. A new chunk begins overlap
// bytes before the sentence that overflowed the previous one, which makes
// consecutive chunks share content. Empty input yields no chunks.
func (c *Chunker) Chunk(text string) []domain.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	spans := sentenceSpans(text)

	var chunks []domain.Chunk
	curStart, curEnd := 0, 0
	empty := true

	flush := func() {
		start, end := trimSpan(text, curStart, curEnd)
		if start >= end {
			return
		}
		chunks = append(chunks, domain.Chunk{
			Text:  text[start:end],
			Start: start,
			End:   end,
			Seq:   len(chunks),
		})
	}

	for _, span := range spans {
		s, e := span[0], span[1]

		if !empty && e-curStart > c.chunkSize {
			flush()
			// Seed the next chunk with the trailing overlap of the text
			// just covered, then the sentence that triggered the overflow.
			next := s - c.overlap
			if next < curStart {
				next = curStart
			}
			curStart = next
			curEnd = e
			continue
		}

		if empty {
			curStart = s
			empty = false
		}
		curEnd = e
	}

	if !empty {
		flush()
	}
	return chunks
}

// sentenceSpans returns [start, end) index pairs of sentence-like units.
// A trailing fragment without a terminator becomes a final unit, and text
// with no terminators at all is a single unit, so every byte of input is
// covered by some span.
func sentenceSpans(text string) [][]int {
	spans := sentenceRegex.FindAllStringIndex(text, -1)
	if len(spans) == 0 {
		return [][]int{{0, len(text)}}
	}
	if tail := spans[len(spans)-1][1]; tail < len(text) {
		if strings.TrimSpace(text[tail:]) != "" {
			spans = append(spans, []int{tail, len(text)})
		}
	}
	return spans
}

// trimSpan narrows [start, end) so it excludes surrounding whitespace.
func trimSpan(text string, start, end int) (int, int) {
	for start < end && isSpace(text[start]) {
		start++
	}
	for end > start && isSpace(text[end-1]) {
		end--
	}
	return start, end
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

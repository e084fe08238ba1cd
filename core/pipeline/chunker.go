package pipeline

import (
	"regexp"
	"strings"

	"github.com/siherrmann/graphrag/model"
)

var (
	whitespaceRegex     = regexp.MustCompile(`\s+`)
	disallowedRegex     = regexp.MustCompile(`[^\w\s.,!?;:()\-']`)
	punctuationRunRegex = regexp.MustCompile(`([.,!?;:]){2,}`)
)

// Clean normalizes raw text: any run of whitespace collapses to a single
// space, characters outside the allow-list (word characters, whitespace and
// basic punctuation) are stripped, runs of consecutive punctuation collapse
// to one mark, and the result is trimmed. Pure function, no failure modes.
func Clean(text string) string {
	text = whitespaceRegex.ReplaceAllString(text, " ")
	text = disallowedRegex.ReplaceAllString(text, "")
	text = punctuationRunRegex.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}

// splitBoundaries is the descending preference list of split points: the
// chunker cuts at the most meaningful boundary available inside the size
// budget and falls back to a hard character cut only when none exists.
var splitBoundaries = []string{"\n\n", "\n", ". ", " "}

// Chunker splits text into overlapping, size-bounded segments with stable
// positional metadata.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker with the given target segment size and
// overlap in characters. Non-positive values fall back to the defaults
// (500/50); the overlap is clamped below the size.
func NewChunker(size int, overlap int) *Chunker {
	if size <= 0 {
		size = model.DefaultPipelineConfig().ChunkSize
	}
	if overlap < 0 {
		overlap = model.DefaultPipelineConfig().ChunkOverlap
	}
	if overlap >= size {
		overlap = size / 2
	}
	return &Chunker{size: size, overlap: overlap}
}

// Chunk splits text into ordered segments of at most the configured size.
// Input no longer than the size yields exactly one segment equal to the
// input (possibly empty). Each following segment re-includes the trailing
// overlap of the previous one, snapped forward to the nearest space so the
// overlap starts on a whole token when one exists.
func (c *Chunker) Chunk(text string, source string) []model.Chunk {
	if len(text) <= c.size {
		return []model.Chunk{c.segment(text, source, 0)}
	}

	var chunks []model.Chunk
	index := 0
	start := 0

	for start < len(text) {
		end := start + c.size
		if end >= len(text) {
			chunks = append(chunks, c.segment(text[start:], source, index))
			break
		}

		cut := end
		window := text[start:end]
		for _, boundary := range splitBoundaries {
			if idx := strings.LastIndex(window, boundary); idx > 0 {
				cut = start + idx + len(boundary)
				break
			}
		}

		chunks = append(chunks, c.segment(text[start:cut], source, index))
		index++

		next := cut - c.overlap
		if next <= start {
			next = cut
		} else if next < cut {
			// Snap the overlap to the next token boundary when one exists.
			if idx := strings.Index(text[next:cut], " "); idx >= 0 && next+idx+1 < cut {
				next += idx + 1
			}
		}
		start = next
	}

	return chunks
}

// segment builds one chunk with its positional metadata. The id is derived
// from source path and sequence index, so re-chunking the same file yields
// the same ids.
func (c *Chunker) segment(text string, source string, index int) model.Chunk {
	text = strings.TrimSpace(text)
	return model.Chunk{
		ID:     model.NewChunkID(source, index),
		Text:   text,
		Source: source,
		Index:  index,
		Size:   len(text),
	}
}

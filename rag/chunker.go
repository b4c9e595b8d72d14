package rag

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/taxrecall/taxrecall/rag/types"
)

// chunkSeparators is the boundary preference order: legal structure markers
// (articles, paragraph signs, enumerated items) first, generic paragraph and
// whitespace boundaries last. Fixed-width splitting would sever a rate rule
// from its governing article header.
var chunkSeparators = []string{"\nArt.", "\n§", "\nI -", "\nII -", "\n\n", " "}

// articlePattern extracts the article marker that scopes a chunk.
var articlePattern = regexp.MustCompile(`Art\.\s?\d+[ºA-Z]?`)

// unscopedContext labels chunks that carry no article marker of their own.
const unscopedContext = "Contexto Geral"

// Page is one block of extracted document text with its position metadata.
type Page struct {
	Number int
	Text   string
}

// Chunker splits legal text into overlapping, hierarchy-aware passages.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker returns a chunker producing passages of at most size runes with
// the given overlap between consecutive passages. Non-positive or oversized
// arguments fall back to 1000/200.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}
	return &Chunker{size: size, overlap: overlap}
}

// ChunkPages splits every page into passages and attaches provenance. Chunks
// never span pages, so each passage keeps the page number it came from.
func (c *Chunker) ChunkPages(pages []Page, source string) []Record {
	var records []Record
	for _, page := range pages {
		text := strings.TrimSpace(page.Text)
		if text == "" {
			continue
		}
		for _, chunk := range c.split(text, chunkSeparators) {
			chunk = strings.TrimSpace(chunk)
			if chunk == "" {
				continue
			}
			records = append(records, Record{
				ID:      uuid.NewString(),
				Content: chunk,
				Metadata: types.Metadata{
					Kind:          types.KindDocumentChunk,
					Source:        source,
					ParentContext: parentContext(chunk),
					Page:          page.Number,
				},
			})
		}
	}
	return records
}

// ChunkText splits unpaginated text, for sources without page structure.
func (c *Chunker) ChunkText(text, source string) []Record {
	return c.ChunkPages([]Page{{Number: 0, Text: text}}, source)
}

// parentContext returns the article marker scoping the chunk. The first
// marker inside the chunk is the nearest one preceding its content.
func parentContext(chunk string) string {
	if m := articlePattern.FindString(chunk); m != "" {
		return m
	}
	return unscopedContext
}

// split breaks text into pieces at the highest-priority separator present,
// recursing with lower-priority separators on oversized pieces, then packs
// the pieces into chunks of at most c.size runes with trailing overlap.
func (c *Chunker) split(text string, seps []string) []string {
	if utf8.RuneCountInString(text) <= c.size {
		return []string{text}
	}
	if len(seps) == 0 {
		return c.hardSplit(text)
	}

	parts := splitBefore(text, seps[0])
	if len(parts) == 1 {
		return c.split(text, seps[1:])
	}

	var pieces []string
	for _, p := range parts {
		if utf8.RuneCountInString(p) > c.size {
			pieces = append(pieces, c.split(p, seps[1:])...)
		} else {
			pieces = append(pieces, p)
		}
	}
	return c.merge(pieces)
}

// splitBefore splits text at each occurrence of sep, keeping the separator
// attached to the piece that follows it so structure markers stay with the
// text they introduce.
func splitBefore(text, sep string) []string {
	segs := strings.Split(text, sep)
	parts := make([]string, 0, len(segs))
	if segs[0] != "" {
		parts = append(parts, segs[0])
	}
	for _, seg := range segs[1:] {
		parts = append(parts, sep+seg)
	}
	if len(parts) == 0 {
		parts = append(parts, text)
	}
	return parts
}

// merge packs pieces into chunks, carrying the trailing overlap of each
// flushed chunk into the next so facts straddling a boundary survive whole in
// at least one chunk.
func (c *Chunker) merge(pieces []string) []string {
	var chunks []string
	var current strings.Builder
	currentLen := 0

	for _, p := range pieces {
		plen := utf8.RuneCountInString(p)
		if currentLen > 0 && currentLen+plen > c.size {
			chunk := current.String()
			chunks = append(chunks, chunk)
			current.Reset()
			if c.overlap > 0 {
				tail := tailRunes(chunk, c.overlap)
				current.WriteString(tail)
			}
			currentLen = utf8.RuneCountInString(current.String())
		}
		current.WriteString(p)
		currentLen += plen
	}

	if strings.TrimSpace(current.String()) != "" {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// hardSplit cuts text into fixed rune windows with overlap, the last resort
// when no separator is present.
func (c *Chunker) hardSplit(text string) []string {
	runes := []rune(text)
	stride := c.size - c.overlap
	var chunks []string
	for i := 0; i < len(runes); i += stride {
		end := i + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
		if end >= len(runes) {
			break
		}
	}
	return chunks
}

func tailRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

// Package chunker splits text into fixed-width chunks for services that
// cap the size of a single request.
package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"ytscribe/models"
)

const (
	// DefaultChunkSize is the default chunk width in characters.
	DefaultChunkSize = 1000

	// MinChunkSize is the minimum allowed chunk width.
	MinChunkSize = 1

	// MaxChunkSize is the maximum allowed chunk width.
	MaxChunkSize = 100000
)

// Chunker slices text into contiguous chunks of a fixed width.
//
// Width is counted in characters (runes), so a chunk never cuts a
// multi-byte character in two. Words and lines may still be split.
type Chunker struct {
	chunkSize int
}

// NewChunker creates a new Chunker with the default width.
func NewChunker() *Chunker {
	return &Chunker{chunkSize: DefaultChunkSize}
}

// SetChunkSize sets the chunk width.
func (c *Chunker) SetChunkSize(size int) *Chunker {
	c.chunkSize = size
	return c
}

// ChunkSize returns the configured width.
func (c *Chunker) ChunkSize() int {
	return c.chunkSize
}

// CreateChunks splits text into chunks.
//
// Every chunk except possibly the last holds exactly ChunkSize characters.
// Empty text yields no chunks.
//
// Example:
//
//	chunks, err := chunker.NewChunker().SetChunkSize(1000).CreateChunks(doc.Text())
func (c *Chunker) CreateChunks(text string) ([]*models.TextChunk, error) {
	if c.chunkSize < MinChunkSize {
		return nil, fmt.Errorf("chunk size must be at least %d", MinChunkSize)
	}
	if c.chunkSize > MaxChunkSize {
		return nil, fmt.Errorf("chunk size cannot exceed %d", MaxChunkSize)
	}
	if text == "" {
		return nil, nil
	}

	total := utf8.RuneCountInString(text)
	chunkCount := total / c.chunkSize
	if total%c.chunkSize != 0 {
		chunkCount++
	}

	chunks := make([]*models.TextChunk, 0, chunkCount)
	offset := 0
	for i := 0; i < chunkCount; i++ {
		end := offset
		for n := 0; n < c.chunkSize && end < len(text); n++ {
			_, width := utf8.DecodeRuneInString(text[end:])
			end += width
		}

		chunk, err := models.NewTextChunk(i, offset, text[offset:end])
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		chunks = append(chunks, chunk)
		offset = end
	}

	return chunks, nil
}

// Split is shorthand for NewChunker().SetChunkSize(size).CreateChunks(text).
func Split(text string, size int) ([]*models.TextChunk, error) {
	return NewChunker().SetChunkSize(size).CreateChunks(text)
}

// Join concatenates chunk texts in order. Join(Split(t, n)) == t.
func Join(chunks []*models.TextChunk) string {
	var b strings.Builder
	for _, chunk := range chunks {
		b.WriteString(chunk.Text)
	}
	return b.String()
}

// ValidateChunks checks that chunks cover a text contiguously with the
// given width.
func ValidateChunks(chunks []*models.TextChunk, size int) error {
	if len(chunks) == 0 {
		return fmt.Errorf("chunk list is empty")
	}

	for i, chunk := range chunks {
		if err := chunk.Validate(); err != nil {
			return fmt.Errorf("chunk %d is invalid: %w", i, err)
		}
		if chunk.Index != i {
			return fmt.Errorf("chunk %d has incorrect index: expected %d, got %d", i, i, chunk.Index)
		}
		if !chunk.ValidUTF8() {
			return fmt.Errorf("chunk %d is not valid UTF-8", i)
		}

		width := utf8.RuneCountInString(chunk.Text)
		last := i == len(chunks)-1
		if width > size {
			return fmt.Errorf("chunk %d is %d characters wide, limit is %d", i, width, size)
		}
		if !last && width != size {
			return fmt.Errorf("chunk %d is %d characters wide, expected exactly %d", i, width, size)
		}
	}

	if chunks[0].Offset != 0 {
		return fmt.Errorf("first chunk starts at offset %d, expected 0", chunks[0].Offset)
	}

	// Check for gaps and overlaps
	for i := 0; i < len(chunks)-1; i++ {
		currentEnd := chunks[i].End()
		nextStart := chunks[i+1].Offset

		if currentEnd > nextStart {
			return fmt.Errorf("chunks %d and %d overlap: chunk %d ends at %d, chunk %d starts at %d",
				i, i+1, i, currentEnd, i+1, nextStart)
		}
		if nextStart > currentEnd {
			return fmt.Errorf("gap between chunks %d and %d: chunk %d ends at %d, chunk %d starts at %d",
				i, i+1, i, currentEnd, i+1, nextStart)
		}
	}

	return nil
}

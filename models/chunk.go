package models

import (
	"fmt"
	"unicode/utf8"
)

// TextChunk is a contiguous slice of a larger text submitted to a
// translation service in one request.
//
// Offset is the byte position of the chunk in the source text. Chunks of
// the same source never overlap and concatenate back to the source.
type TextChunk struct {
	Index  int    `json:"index"`
	Offset int    `json:"offset"`
	Text   string `json:"text"`
}

// NewTextChunk creates a validated chunk.
//
// Example:
//
//	chunk, err := models.NewTextChunk(0, 0, "0.00 - hello")
//	if err != nil {
//	    log.Fatal(err)
//	}
func NewTextChunk(index, offset int, text string) (*TextChunk, error) {
	c := &TextChunk{Index: index, Offset: offset, Text: text}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chunk: %w", err)
	}
	return c, nil
}

// Validate checks if the chunk has valid data.
//
// Returns an error if:
//   - Index or Offset is negative
//   - Text is empty
func (c *TextChunk) Validate() error {
	if c.Index < 0 {
		return fmt.Errorf("index cannot be negative")
	}
	if c.Offset < 0 {
		return fmt.Errorf("offset cannot be negative")
	}
	if c.Text == "" {
		return fmt.Errorf("text cannot be empty")
	}
	return nil
}

// End returns the byte offset just past the chunk.
func (c *TextChunk) End() int {
	return c.Offset + len(c.Text)
}

// ValidUTF8 reports whether the chunk boundaries fell on rune boundaries.
// Fixed-width slicing may cut a multi-byte rune in two.
func (c *TextChunk) ValidUTF8() bool {
	return utf8.ValidString(c.Text)
}

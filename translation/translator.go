// Package translation provides quick text translation over remote services.
package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// AutoDetect lets the service detect the source language.
const AutoDetect = "auto"

// ErrEmptyResult is returned when a service answers without a translation.
var ErrEmptyResult = errors.New("translation service returned no text")

// Translator converts text between languages.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(ctx context.Context, text, sourceLang, targetLang string) (string, error)

// Translate implements Translator.
func (f TranslatorFunc) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	return f(ctx, text, sourceLang, targetLang)
}

// Error reports the chunk whose translation failed. Chunks after it were
// never submitted.
type Error struct {
	ChunkIndex int
	ChunkCount int
	Partial    string // translations of the chunks before ChunkIndex
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("translation failed at chunk %d of %d: %v", e.ChunkIndex+1, e.ChunkCount, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// BaseLanguage strips the region from a language tag: "en-US" -> "en".
func BaseLanguage(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	return tag
}

// SameLanguage compares two tags by base language.
func SameLanguage(a, b string) bool {
	return BaseLanguage(a) == BaseLanguage(b)
}

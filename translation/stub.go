package translation

import (
	"context"
	"fmt"
	"strings"
)

// StubTranslator returns deterministic translations for offline runs and
// tests: "[target] text", or a dictionary entry when one matches.
type StubTranslator struct {
	Dictionary map[string]map[string]string // [target][source text]translation
}

// Translate implements Translator.
func (s *StubTranslator) Translate(ctx context.Context, text, _, targetLang string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if byText, ok := s.Dictionary[targetLang]; ok {
		if t, ok := byText[text]; ok {
			return t, nil
		}
	}
	return fmt.Sprintf("[%s] %s", strings.ToUpper(targetLang), text), nil
}

package translation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"ytscribe/chunker"
	"ytscribe/internal/logging"
)

// ChunkedTranslator splits text into fixed-width chunks and submits them
// one at a time to a Translator.
type ChunkedTranslator struct {
	translator Translator
	chunker    *chunker.Chunker
	logger     *zap.SugaredLogger
}

// NewChunkedTranslator creates a ChunkedTranslator with the given chunk width.
func NewChunkedTranslator(t Translator, chunkSize int, logger *zap.SugaredLogger) *ChunkedTranslator {
	return &ChunkedTranslator{
		translator: t,
		chunker:    chunker.NewChunker().SetChunkSize(chunkSize),
		logger:     logging.OrNop(logger),
	}
}

// Translate translates text chunk by chunk and joins the results with a
// single space. Empty text returns "" without contacting the service.
//
// The first failing chunk stops the translation: the returned *Error carries
// its index and the translations gathered so far. A cancelled context stops
// before the next chunk.
func (c *ChunkedTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if text == "" {
		return "", nil
	}

	chunks, err := c.chunker.CreateChunks(text)
	if err != nil {
		return "", err
	}
	if err := chunker.ValidateChunks(chunks, c.chunker.ChunkSize()); err != nil {
		return "", fmt.Errorf("invalid chunks: %w", err)
	}
	if chunker.Join(chunks) != text {
		return "", fmt.Errorf("chunks do not reassemble the input text")
	}

	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return "", c.fail(chunk.Index, len(chunks), parts, err)
		}

		translated, err := c.translator.Translate(ctx, chunk.Text, sourceLang, targetLang)
		if err != nil {
			return "", c.fail(chunk.Index, len(chunks), parts, err)
		}
		c.logger.Debugw("chunk translated", "chunk", chunk.Index+1, "of", len(chunks), "chars", len(chunk.Text))
		parts = append(parts, translated)
	}

	return strings.Join(parts, " "), nil
}

func (c *ChunkedTranslator) fail(index, total int, parts []string, err error) error {
	c.logger.Warnw("translation stopped", "chunk", index+1, "of", total, "error", err)
	return &Error{
		ChunkIndex: index,
		ChunkCount: total,
		Partial:    strings.Join(parts, " "),
		Err:        err,
	}
}

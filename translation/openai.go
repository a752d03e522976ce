package translation

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const systemPrompt = "You are a translation engine. Translate the user's text into the language with code %q. " +
	"Keep the line structure and the leading timestamps unchanged. Reply with the translation only."

// OpenAITranslator translates with a chat completion model.
type OpenAITranslator struct {
	client *openai.Client
	model  string
}

// NewOpenAITranslator creates a translator using apiKey and model.
func NewOpenAITranslator(apiKey, model string) *OpenAITranslator {
	return NewOpenAITranslatorWithConfig(openai.DefaultConfig(apiKey), model)
}

// NewOpenAITranslatorWithConfig allows a custom base URL or HTTP client.
func NewOpenAITranslatorWithConfig(cfg openai.ClientConfig, model string) *OpenAITranslator {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAITranslator{client: openai.NewClientWithConfig(cfg), model: model}
}

// Translate implements Translator.
func (o *OpenAITranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(systemPrompt, targetLang)},
	}
	if sourceLang != "" && sourceLang != AutoDetect {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: fmt.Sprintf("The source language code is %q.", sourceLang),
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text})

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("openai translate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResult
	}

	result := strings.TrimSpace(resp.Choices[0].Message.Content)
	if result == "" {
		return "", ErrEmptyResult
	}
	return result, nil
}

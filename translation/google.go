package translation

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

const googleBaseURL = "https://translate.google.com"

// GoogleOptions configures a GoogleTranslator.
type GoogleOptions struct {
	BaseURL string
	Client  *http.Client
	Timeout time.Duration
	// RequestsPerSecond paces requests; <= 0 disables pacing.
	RequestsPerSecond float64
}

// GoogleTranslator reads translations from the Google Translate mobile page.
type GoogleTranslator struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewGoogleTranslator creates a GoogleTranslator.
func NewGoogleTranslator(opts GoogleOptions) *GoogleTranslator {
	if opts.BaseURL == "" {
		opts.BaseURL = googleBaseURL
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return &GoogleTranslator{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		client:  client,
		limiter: limiter,
	}
}

// Translate implements Translator.
func (g *GoogleTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if sourceLang == "" {
		sourceLang = AutoDetect
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("sl", sourceLang)
	q.Set("tl", targetLang)
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/m?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Linux; Android 10) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Mobile Safari/537.36")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("google translate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("google translate: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse google translate page: %w", err)
	}

	result := strings.TrimSpace(doc.Find("div.result-container").First().Text())
	if result == "" {
		return "", ErrEmptyResult
	}
	return result, nil
}

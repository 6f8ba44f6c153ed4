// CLAUDE:SUMMARY Machine translation collaborators: LibreTranslate and DeepL HTTP clients with retries and pacing, plus a chain.
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hazyhaar/lessico/pkg/config"
)

const translateAttempts = 3

// DeepL answers 456 once the account's character quota is used up.
const statusQuotaExceeded = 456

// ErrQuotaExceeded is returned once the provider reports an exhausted quota.
// Every later call fails with it without contacting the provider.
var ErrQuotaExceeded = errors.New("translation quota exceeded")

// Translator renders English text in Italian. ok is false when the
// collaborator has no translation for text.
type Translator interface {
	Translate(ctx context.Context, text string) (translation string, ok bool, err error)
}

// TranslatorChain asks each translator in order and returns the first hit.
type TranslatorChain []Translator

func (c TranslatorChain) Translate(ctx context.Context, text string) (string, bool, error) {
	for _, t := range c {
		out, ok, err := t.Translate(ctx, text)
		if err != nil {
			return "", false, err
		}
		if ok {
			return out, true, nil
		}
	}
	return "", false, nil
}

// HTTPTranslator is a Translator backed by a LibreTranslate or DeepL endpoint.
type HTTPTranslator struct {
	provider  string
	url       string
	apiKey    string
	source    string
	target    string
	userAgent string
	backoff   time.Duration
	client    *http.Client
	logger    *slog.Logger
	pacer     pacer
	exhausted atomic.Bool
}

// NewTranslator builds a client from cfg. cfg is validated first, which fills
// the provider's default URL.
func NewTranslator(cfg config.TranslateConfig, logger *slog.Logger) (*HTTPTranslator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("translate: %w", err)
	}
	if cfg.Provider == "" {
		return nil, fmt.Errorf("translate: provider is required")
	}
	if u, err := url.Parse(cfg.URL); err != nil || u.Host == "" {
		return nil, fmt.Errorf("translate: invalid url %q", cfg.URL)
	}
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &HTTPTranslator{
		provider:  cfg.Provider,
		url:       cfg.URL,
		apiKey:    cfg.APIKey,
		source:    cfg.Source,
		target:    cfg.Target,
		userAgent: cfg.UserAgent,
		backoff:   1500 * time.Millisecond,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
		pacer:     pacer{delay: cfg.Delay},
	}, nil
}

// Translate implements Translator.
func (t *HTTPTranslator) Translate(ctx context.Context, text string) (string, bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false, nil
	}
	if t.exhausted.Load() {
		return "", false, ErrQuotaExceeded
	}
	out, err := t.post(ctx, text)
	if err != nil {
		return "", false, err
	}
	out = strings.TrimSpace(out)
	return out, out != "", nil
}

// post sends text with up to three attempts. Rate limits, server errors and
// transport failures are retried; other client errors are not.
func (t *HTTPTranslator) post(ctx context.Context, text string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < translateAttempts; attempt++ {
		if err := retryWait(ctx, t.backoff, attempt); err != nil {
			return "", err
		}
		if err := t.pacer.wait(ctx); err != nil {
			return "", err
		}

		req, err := t.newRequest(ctx, text)
		if err != nil {
			return "", fmt.Errorf("create request: %w", err)
		}
		resp, err := t.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			out, err := t.decode(io.LimitReader(resp.Body, 1<<20))
			resp.Body.Close()
			if err != nil {
				lastErr = fmt.Errorf("decode response: %w", err)
				continue
			}
			return out, nil
		case resp.StatusCode == statusQuotaExceeded:
			drain(resp)
			t.exhausted.Store(true)
			t.logger.Warn("translation quota exhausted", "provider", t.provider)
			return "", ErrQuotaExceeded
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			drain(resp)
			lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)
			t.logger.Debug("translate retry", "provider", t.provider, "attempt", attempt+1, "status", resp.StatusCode)
			continue
		default:
			msg := errorMessage(resp)
			return "", fmt.Errorf("%s: HTTP %d: %s", t.provider, resp.StatusCode, msg)
		}
	}
	return "", fmt.Errorf("%s translate %q failed after %d attempts: %w", t.provider, text, translateAttempts, lastErr)
}

func (t *HTTPTranslator) newRequest(ctx context.Context, text string) (*http.Request, error) {
	var (
		body        io.Reader
		contentType string
	)
	switch t.provider {
	case config.ProviderDeepL:
		form := url.Values{}
		form.Set("text", text)
		form.Set("source_lang", strings.ToUpper(t.source))
		form.Set("target_lang", strings.ToUpper(t.target))
		body, contentType = strings.NewReader(form.Encode()), "application/x-www-form-urlencoded"
	default:
		payload := libreRequest{Q: text, Source: t.source, Target: t.target, Format: "text", APIKey: t.apiKey}
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body, contentType = bytes.NewReader(data), "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	if t.provider == config.ProviderDeepL {
		req.Header.Set("Authorization", "DeepL-Auth-Key "+t.apiKey)
	}
	return req, nil
}

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type libreResponse struct {
	TranslatedText string `json:"translatedText"`
}

type deeplResponse struct {
	Translations []struct {
		Text string `json:"text"`
	} `json:"translations"`
}

func (t *HTTPTranslator) decode(r io.Reader) (string, error) {
	if t.provider == config.ProviderDeepL {
		var out deeplResponse
		if err := json.NewDecoder(r).Decode(&out); err != nil {
			return "", err
		}
		if len(out.Translations) == 0 {
			return "", nil
		}
		return out.Translations[0].Text, nil
	}
	var out libreResponse
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return "", err
	}
	return out.TranslatedText, nil
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}

// errorMessage returns the provider's error text: the "error" or "message"
// member of a JSON body, else the body itself, truncated.
func errorMessage(resp *http.Response) string {
	defer resp.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &body) == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	msg := strings.TrimSpace(string(data))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return msg
}

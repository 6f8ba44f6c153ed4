// CLAUDE:SUMMARY Tatoeba api_v0 search client: picks the shortest English sentence containing a term, with retries and request pacing.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/hazyhaar/lessico/pkg/config"
)

const tatoebaAttempts = 3

// Tatoeba is a SentenceSource backed by the public Tatoeba search API.
type Tatoeba struct {
	baseURL   string
	userAgent string
	minWords  int
	maxWords  int
	backoff   time.Duration
	client    *http.Client
	logger    *slog.Logger
	pacer     pacer
}

// NewTatoeba builds a client from cfg. A User-Agent is mandatory.
func NewTatoeba(cfg config.TatoebaConfig, logger *slog.Logger) (*Tatoeba, error) {
	if strings.TrimSpace(cfg.UserAgent) == "" {
		return nil, fmt.Errorf("tatoeba: user agent is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil || cfg.BaseURL == "" {
		return nil, fmt.Errorf("tatoeba: invalid base url %q", cfg.BaseURL)
	}
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Tatoeba{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		minWords:  cfg.MinWords,
		maxWords:  cfg.MaxWords,
		backoff:   time.Second,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
		pacer:     pacer{delay: cfg.Delay},
	}, nil
}

type tatoebaResponse struct {
	Results []struct {
		Text string `json:"text"`
	} `json:"results"`
}

// Sentence implements SentenceSource.
func (t *Tatoeba) Sentence(ctx context.Context, term string) (string, bool, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return "", false, nil
	}
	resp, err := t.search(ctx, term)
	if err != nil {
		return "", false, err
	}
	texts := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		texts = append(texts, r.Text)
	}
	s, ok := PickSentence(term, texts, t.minWords, t.maxWords)
	return s, ok, nil
}

// search queries the API with up to three attempts and exponential backoff.
func (t *Tatoeba) search(ctx context.Context, term string) (*tatoebaResponse, error) {
	q := url.Values{}
	q.Set("query", term)
	q.Set("from", "eng")
	q.Set("orphans", "no")
	q.Set("unapproved", "no")
	q.Set("sort", "random")
	q.Set("limit", "50")
	u := t.baseURL + "?" + q.Encode()

	var lastErr error
	for attempt := 0; attempt < tatoebaAttempts; attempt++ {
		if err := retryWait(ctx, t.backoff, attempt); err != nil {
			return nil, err
		}
		if err := t.pacer.wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", t.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := t.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		if resp.StatusCode != http.StatusOK {
			drain(resp)
			lastErr = fmt.Errorf("HTTP %d for %q", resp.StatusCode, term)
			t.logger.Debug("tatoeba retry", "term", term, "attempt", attempt+1, "status", resp.StatusCode)
			continue
		}

		var out tatoebaResponse
		decErr := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(&out)
		resp.Body.Close()
		if decErr != nil {
			lastErr = fmt.Errorf("decode response: %w", decErr)
			continue
		}
		return &out, nil
	}
	return nil, fmt.Errorf("tatoeba search %q failed after %d attempts: %w", term, tatoebaAttempts, lastErr)
}

// pacer keeps at least delay between consecutive requests.
type pacer struct {
	delay time.Duration

	mu   sync.Mutex
	next time.Time
}

func (p *pacer) wait(ctx context.Context) error {
	if p.delay <= 0 {
		return nil
	}
	p.mu.Lock()
	now := time.Now()
	wait := p.next.Sub(now)
	if wait < 0 {
		wait = 0
	}
	p.next = now.Add(wait + p.delay)
	p.mu.Unlock()

	if wait == 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

// retryWait sleeps backoff * 2^(attempt-1) before every attempt but the first.
func retryWait(ctx context.Context, backoff time.Duration, attempt int) error {
	if attempt == 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(backoff * time.Duration(1<<uint(attempt-1))):
		return nil
	}
}

// TermPattern matches term as a whole word, also accepting the 's, s and es tails.
func TermPattern(term string) *regexp.Regexp {
	q := regexp.QuoteMeta(term)
	return regexp.MustCompile(`(?i)\b` + q + `\b|\b` + q + `(?:'s|s|es)\b`)
}

// PickSentence returns the shortest candidate, by word count, that contains
// term and has between minWords and maxWords words. Whitespace is collapsed.
// Ties keep the earlier candidate.
func PickSentence(term string, candidates []string, minWords, maxWords int) (string, bool) {
	re := TermPattern(term)
	best, bestLen := "", 0
	for _, c := range candidates {
		words := strings.Fields(c)
		n := len(words)
		if n == 0 || n < minWords || (maxWords > 0 && n > maxWords) {
			continue
		}
		s := strings.Join(words, " ")
		if !re.MatchString(s) {
			continue
		}
		if best == "" || n < bestLen {
			best, bestLen = s, n
		}
	}
	return best, best != ""
}

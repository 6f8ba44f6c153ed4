// CLAUDE:SUMMARY Italian IPA labelers: tab-separated pronunciation dictionaries and an external eSpeak NG command.
package enrich

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/hazyhaar/lessico/pkg/config"
	"github.com/hazyhaar/lessico/pkg/dict"
)

// Pronunciations maps case-folded Italian words to one IPA transcription,
// stored without delimiters.
type Pronunciations map[string]string

// LoadPronunciations reads dictionaries of `word<TAB>pronunciations` lines.
// The pronunciation column may list alternatives as "a | b", "/a/, /b/" or
// "/a/ /b/"; the first one is kept. Earlier files and earlier lines win.
// Blank lines and lines starting with # are ignored.
func LoadPronunciations(paths []string) (Pronunciations, error) {
	out := make(Pronunciations)
	for _, p := range paths {
		if err := out.load(p); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (m Pronunciations) load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open pronunciations %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		word, prons, ok := strings.Cut(text, "\t")
		if !ok {
			return fmt.Errorf("pronunciations %s: line %d: missing tab separator", path, line)
		}
		id := dict.NormalizeCasefold(word)
		ipa := firstPronunciation(prons)
		if id == "" || ipa == "" {
			continue
		}
		if _, seen := m[id]; !seen {
			m[id] = ipa
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read pronunciations %s: %w", path, err)
	}
	return nil
}

func firstPronunciation(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "|,"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	if strings.HasPrefix(s, "/") {
		if end := strings.Index(s[1:], "/"); end >= 0 {
			s = s[1 : 1+end]
		}
	}
	return strings.TrimSpace(strings.Trim(s, "/"))
}

// Label implements Labeler. The transcription is returned between slashes.
func (m Pronunciations) Label(_ context.Context, term string) (string, bool, error) {
	ipa, ok := m[dict.NormalizeCasefold(term)]
	if !ok {
		return "", false, nil
	}
	return "/" + ipa + "/", true, nil
}

// Espeak is a Labeler that transcribes a term by running an eSpeak NG command
// with the term on stdin.
type Espeak struct {
	command []string
	timeout time.Duration
}

// NewEspeak builds the labeler from cfg. The binary is not looked up until
// the first call.
func NewEspeak(cfg config.EspeakConfig) (*Espeak, error) {
	if len(cfg.Command) == 0 || strings.TrimSpace(cfg.Command[0]) == "" {
		return nil, fmt.Errorf("espeak: command is required")
	}
	return &Espeak{command: cfg.Command, timeout: cfg.Timeout}, nil
}

// Label implements Labeler. Output lines are joined with single spaces and
// returned between slashes.
func (e *Espeak) Label(ctx context.Context, term string) (string, bool, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return "", false, nil
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, e.command[0], e.command[1:]...)
	cmd.Stdin = strings.NewReader(term + "\n")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", false, fmt.Errorf("%s %q: %w: %s", e.command[0], term, err, msg)
		}
		return "", false, fmt.Errorf("%s %q: %w", e.command[0], term, err)
	}
	ipa := strings.Join(strings.Fields(string(out)), " ")
	if ipa == "" {
		return "", false, nil
	}
	return "/" + ipa + "/", true, nil
}

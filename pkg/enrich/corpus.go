// CLAUDE:SUMMARY Offline Tatoeba sentence pairs: example sentences and their Italian translations from exported TSV files.
package enrich

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"unicode"
)

const maxCorpusSentence = 500

// Corpus holds English-Italian sentence pairs loaded from Tatoeba's
// "sentence pairs" export: id, English text, id, Italian text, tab separated.
// It serves as a SentenceSource for English terms and as a Translator for
// sentences it contains.
type Corpus struct {
	minWords int
	maxWords int

	english []string
	index   map[string][]int  // token -> positions in english
	italian map[string]string // whitespace-collapsed English -> Italian
}

// LoadCorpus reads every pair file in order. Malformed lines and sentences
// longer than 500 bytes are skipped. The first Italian translation of a
// sentence wins.
func LoadCorpus(paths []string, minWords, maxWords int) (*Corpus, error) {
	c := &Corpus{
		minWords: minWords,
		maxWords: maxWords,
		index:    make(map[string][]int),
		italian:  make(map[string]string),
	}
	for _, p := range paths {
		if err := c.load(p); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Corpus) load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open corpus %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fields := strings.SplitN(scanner.Text(), "\t", 4)
		if len(fields) < 4 {
			continue
		}
		en := strings.Join(strings.Fields(fields[1]), " ")
		it := strings.TrimSpace(fields[3])
		if en == "" || len(en) > maxCorpusSentence {
			continue
		}
		if _, seen := c.italian[en]; seen {
			continue
		}
		c.italian[en] = it
		pos := len(c.english)
		c.english = append(c.english, en)
		for _, tok := range tokenize(en) {
			c.index[tok] = append(c.index[tok], pos)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read corpus %s: %w", path, err)
	}
	return nil
}

// Len is the number of distinct English sentences.
func (c *Corpus) Len() int { return len(c.english) }

// Sentence implements SentenceSource with the same selection rules as the
// Tatoeba API client.
func (c *Corpus) Sentence(_ context.Context, term string) (string, bool, error) {
	toks := tokenize(term)
	if len(toks) == 0 {
		return "", false, nil
	}
	first := toks[0]
	seen := make(map[int]bool)
	var candidates []string
	for _, variant := range []string{first, first + "s", first + "es", first + "'s"} {
		for _, pos := range c.index[variant] {
			if !seen[pos] {
				seen[pos] = true
				candidates = append(candidates, c.english[pos])
			}
		}
	}
	s, ok := PickSentence(strings.TrimSpace(term), candidates, c.minWords, c.maxWords)
	return s, ok, nil
}

// Translate implements Translator for sentences present in the corpus.
func (c *Corpus) Translate(_ context.Context, text string) (string, bool, error) {
	it := c.italian[strings.Join(strings.Fields(text), " ")]
	return it, it != "", nil
}

// tokenize splits a sentence into unique lowercase word tokens. Apostrophes
// between letters stay inside the word.
func tokenize(sentence string) []string {
	seen := make(map[string]bool)
	var tokens []string
	var word strings.Builder
	flush := func() {
		if word.Len() == 0 {
			return
		}
		w := strings.ToLower(word.String())
		if !seen[w] {
			seen[w] = true
			tokens = append(tokens, w)
		}
		word.Reset()
	}

	runes := []rune(sentence)
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			word.WriteRune(r)
		case r == '\'' && word.Len() > 0 && i+1 < len(runes) && unicode.IsLetter(runes[i+1]):
			word.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return tokens
}

package enrich

import (
	"context"
	"slices"
	"testing"
)

const pairsTSV = "1\tI like apples very much indeed.\t10\tMi piacciono molto le mele.\n" +
	"2\tThe apple is on the kitchen table.\t11\tLa mela è sul tavolo della cucina.\n" +
	"3\tmalformed\n" +
	"4\tThe   apple is on the kitchen table.\t12\tduplicato\n" +
	"5\tMy dog's bowl is empty again today.\t13\tLa ciotola del mio cane è di nuovo vuota oggi.\n"

func TestCorpus_Sentence(t *testing.T) {
	c, err := LoadCorpus([]string{writeFile(t, "pairs.tsv", pairsTSV)}, 4, 12)
	if err != nil {
		t.Fatalf("LoadCorpus: %v", err)
	}
	if c.Len() != 3 {
		t.Errorf("Len = %d, want 3", c.Len())
	}
	ctx := context.Background()

	tests := []struct {
		term, want string
	}{
		{"apple", "I like apples very much indeed."},
		{"Dog", "My dog's bowl is empty again today."},
		{"kitchen table", "The apple is on the kitchen table."},
		{"cat", ""},
		{"  ", ""},
	}
	for _, tt := range tests {
		got, ok, err := c.Sentence(ctx, tt.term)
		if err != nil {
			t.Fatalf("Sentence(%q): %v", tt.term, err)
		}
		if got != tt.want || ok != (tt.want != "") {
			t.Errorf("Sentence(%q) = %q, %v, want %q", tt.term, got, ok, tt.want)
		}
	}
}

func TestCorpus_Translate(t *testing.T) {
	c, err := LoadCorpus([]string{writeFile(t, "pairs.tsv", pairsTSV)}, 0, 0)
	if err != nil {
		t.Fatalf("LoadCorpus: %v", err)
	}
	ctx := context.Background()
	if it, ok, _ := c.Translate(ctx, " The apple is on  the kitchen table. "); !ok || it != "La mela è sul tavolo della cucina." {
		t.Errorf("Translate = %q, %v; the first pair must win", it, ok)
	}
	if _, ok, _ := c.Translate(ctx, "The cat sleeps."); ok {
		t.Error("unknown sentence must miss")
	}
}

func TestLoadCorpus_MissingFile(t *testing.T) {
	if _, err := LoadCorpus([]string{"/nonexistent/pairs.tsv"}, 0, 0); err == nil {
		t.Fatal("expected error for a missing file")
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"The cat sat on the mat.", []string{"the", "cat", "sat", "on", "mat"}},
		{"I don't know, 2 cats!", []string{"i", "don't", "know", "2", "cats"}},
		{"My dog's 'bowl'", []string{"my", "dog's", "bowl"}},
		{"!!! ???", nil},
	}
	for _, tt := range tests {
		if got := tokenize(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("tokenize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

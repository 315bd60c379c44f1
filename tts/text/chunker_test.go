package text

import (
	"math/rand"
	"reflect"
	"strings"
	"testing"
)

func TestSplitScenario(t *testing.T) {
	chunks := Split("Hello world. This is a test.", 15)

	got := make([]string, len(chunks))
	for i, c := range chunks {
		got[i] = c.Text
	}
	want := []string{"Hello world.", "This is a", "test."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Split() = %q, want %q", got, want)
	}

	wantStarts := []int{0, 13, 23}
	for i, c := range chunks {
		if c.Start != wantStarts[i] {
			t.Errorf("chunk %d Start = %d, want %d", i, c.Start, wantStarts[i])
		}
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  []string
	}{
		{
			name:  "empty",
			input: "",
			max:   100,
			want:  nil,
		},
		{
			name:  "everything fits",
			input: "One. Two! Three?",
			max:   100,
			want:  []string{"One. Two! Three?"},
		},
		{
			name:  "sentences flush greedily",
			input: "Aaaa bbbb. Cccc dddd. Eeee ffff.",
			max:   21,
			want:  []string{"Aaaa bbbb. Cccc dddd.", "Eeee ffff."},
		},
		{
			name:  "no terminator",
			input: "just some words without an ending",
			max:   12,
			want:  []string{"just some", "words", "without an", "ending"},
		},
		{
			name:  "oversized word stands alone",
			input: "Tiny. Supercalifragilisticexpialidocious word.",
			max:   16,
			want:  []string{"Tiny.", "Supercalifragilisticexpialidocious", "word."},
		},
		{
			name:  "closing quote stays with sentence",
			input: `He said "stop." Then left.`,
			max:   16,
			want:  []string{`He said "stop."`, "Then left."},
		},
		{
			name:  "non-positive max uses default",
			input: "Short text.",
			max:   0,
			want:  []string{"Short text."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := Split(tt.input, tt.max)
			var got []string
			for _, c := range chunks {
				got = append(got, c.Text)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
		})
	}
}

func TestSplitIsDeterministic(t *testing.T) {
	input := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40)
	input = Collapse(input)

	first := Split(input, 120)
	for i := 0; i < 5; i++ {
		if again := Split(input, 120); !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d produced different chunks", i)
		}
	}
}

// randomText builds normalized text out of a small vocabulary, including
// multi-byte words and long tokens.
func randomText(r *rand.Rand) string {
	vocab := []string{
		"a", "to", "the", "chapter", "night.", "quiet!", "why?", "über",
		"café.", "naïve", "東京", "…", "end.\"", "(aside.)",
		"pneumonoultramicroscopicsilicovolcanoconiosis",
	}
	n := r.Intn(120)
	words := make([]string, n)
	for i := range words {
		words[i] = vocab[r.Intn(len(vocab))]
	}
	return strings.Join(words, " ")
}

func TestSplitProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		input := randomText(r)
		max := 5 + r.Intn(80)
		chunks := Split(input, max)

		if got := Join(chunks); got != input {
			t.Fatalf("round trip failed for max=%d:\n got %q\nwant %q", max, got, input)
		}

		offset := 0
		for _, c := range chunks {
			if c.Len() > max && strings.Contains(c.Text, " ") {
				t.Fatalf("chunk %q is %d runes, limit %d", c.Text, c.Len(), max)
			}
			if c.Start != offset {
				t.Fatalf("chunk %q Start = %d, want %d", c.Text, c.Start, offset)
			}
			if c.Text == "" {
				t.Fatal("empty chunk")
			}
			offset = c.End() + 1
		}
	}
}

func TestSentences(t *testing.T) {
	got := Sentences("Wait... what?! Fine. (Really.) ok")
	want := []string{"Wait...", "what?!", "Fine.", "(Really.)", "ok"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sentences() = %q, want %q", got, want)
	}
}

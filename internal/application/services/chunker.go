package services

import (
	"strings"
)

const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
)

// Chunker splits document text into overlapping windows along sentence
// boundaries. Sizes are in runes; a sentence longer than the window is
// emitted as its own oversized chunk rather than split mid-sentence.
type Chunker struct {
	Size    int
	Overlap int
}

func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
	}
	return &Chunker{Size: size, Overlap: overlap}
}

func (c *Chunker) Chunk(text string) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var window []string
	var windowLen int

	flush := func() {
		if len(window) == 0 {
			return
		}
		chunks = append(chunks, strings.Join(window, " "))

		// carry trailing sentences into the next window as overlap
		var kept []string
		var keptLen int
		for i := len(window) - 1; i >= 0; i-- {
			sl := len([]rune(window[i]))
			if keptLen+sl > c.Overlap {
				break
			}
			kept = append([]string{window[i]}, kept...)
			keptLen += sl + 1
		}
		window = kept
		windowLen = keptLen
	}

	for _, sentence := range sentences {
		sl := len([]rune(sentence))
		if windowLen > 0 && windowLen+sl+1 > c.Size {
			flush()
		}
		window = append(window, sentence)
		windowLen += sl + 1
	}
	if len(window) > 0 {
		// skip a trailing window that is pure overlap of the last chunk
		tail := strings.Join(window, " ")
		if len(chunks) == 0 || !strings.HasSuffix(chunks[len(chunks)-1], tail) {
			chunks = append(chunks, tail)
		}
	}
	return chunks
}

// splitSentences cuts on sentence-final punctuation and blank lines.
func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder

	emit := func() {
		if s := strings.TrimSpace(b.String()); s != "" {
			sentences = append(sentences, s)
		}
		b.Reset()
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		b.WriteRune(r)
		switch r {
		case '.', '!', '?':
			if i+1 == len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
				emit()
			}
		case '\n':
			if i+1 < len(runes) && runes[i+1] == '\n' {
				emit()
			}
		}
	}
	emit()
	return sentences
}

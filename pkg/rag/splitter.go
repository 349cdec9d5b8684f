package rag

import "strings"

const (
	defaultChunkSize    = 500
	defaultChunkOverlap = 50
)

// Splitter cuts text into overlapping chunks, preferring whitespace
// boundaries so words are not bisected.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter() Splitter {
	return Splitter{ChunkSize: defaultChunkSize, Overlap: defaultChunkOverlap}
}

func (s Splitter) Split(text string) []string {
	size := s.ChunkSize
	if size <= 0 {
		size = defaultChunkSize
	}
	overlap := s.Overlap
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			chunk := strings.TrimSpace(string(runes[start:]))
			if chunk != "" {
				chunks = append(chunks, chunk)
			}
			break
		}
		// Pull the cut back to the nearest whitespace when one is close by.
		cut := end
		for cut > start+size/2 && !isSpace(runes[cut-1]) {
			cut--
		}
		if cut == start+size/2 {
			cut = end
		}
		chunk := strings.TrimSpace(string(runes[start:cut]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		next := cut - overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}

package rag

import (
	"strings"
	"testing"
)

func TestSplitShortTextSingleChunk(t *testing.T) {
	s := NewSplitter()
	chunks := s.Split("a short document")
	if len(chunks) != 1 || chunks[0] != "a short document" {
		t.Fatalf("got %v", chunks)
	}
}

func TestSplitEmptyText(t *testing.T) {
	s := NewSplitter()
	if chunks := s.Split("   \n  "); chunks != nil {
		t.Fatalf("expected nil, got %v", chunks)
	}
}

func TestSplitLongTextOverlaps(t *testing.T) {
	s := Splitter{ChunkSize: 100, Overlap: 20}
	text := strings.Repeat("lorem ipsum dolor sit amet ", 30)
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len([]rune(c)) > 100 {
			t.Fatalf("chunk %d exceeds size: %d runes", i, len([]rune(c)))
		}
	}
	// Overlapping windows mean consecutive chunks share text.
	tail := chunks[0][len(chunks[0])-10:]
	if !strings.Contains(chunks[1], strings.TrimSpace(tail)) {
		t.Fatalf("expected overlap between chunks, tail %q not in %q", tail, chunks[1])
	}
}

func TestSplitPrefersWordBoundaries(t *testing.T) {
	s := Splitter{ChunkSize: 50, Overlap: 0}
	text := strings.Repeat("boundary ", 30)
	for i, c := range s.Split(text) {
		if strings.HasSuffix(c, "bound") || strings.HasSuffix(c, "bou") {
			t.Fatalf("chunk %d cuts mid-word: %q", i, c)
		}
	}
}

func TestSplitTerminates(t *testing.T) {
	// Degenerate overlap must not stall the loop.
	s := Splitter{ChunkSize: 10, Overlap: 9}
	chunks := s.Split(strings.Repeat("x", 200))
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
}

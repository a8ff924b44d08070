package retrieval

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const DefaultChunkSize = 800

// Chunk is one indexed slice of a corpus file.
type Chunk struct {
	ID     string
	Source string
	Text   string
}

// CleanText collapses all whitespace runs into single spaces.
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// SplitText cuts text into consecutive windows of at most size runes.
func SplitText(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}

	runes := []rune(text)
	parts := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		if part := strings.TrimSpace(string(runes[start:end])); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

// ChunkDocument cleans and splits a named document into chunks with ids "<source>_<i>".
func ChunkDocument(source, text string, size int) []Chunk {
	parts := SplitText(CleanText(text), size)
	chunks := make([]Chunk, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, Chunk{
			ID:     fmt.Sprintf("%s_%d", source, i),
			Source: source,
			Text:   part,
		})
	}
	return chunks
}

// LoadCorpus chunks every .txt file in dir, in name order.
func LoadCorpus(dir string, size int) ([]Chunk, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read corpus dir %q: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".txt") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var chunks []Chunk
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read corpus file %q: %w", name, err)
		}
		chunks = append(chunks, ChunkDocument(name, string(data), size)...)
	}

	return chunks, nil
}

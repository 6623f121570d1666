package tokenizer

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/everstacklabs/modelrouter/internal/cache"
)

const maxLineBytes = 1 << 20

// LoadCorpus reads text files and returns one sample per non-empty line.
func LoadCorpus(paths ...string) ([]string, error) {
	var samples []string
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening corpus: %w", err)
		}
		sc := bufio.NewScanner(f)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" {
				samples = append(samples, line)
			}
		}
		err = sc.Err()
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("reading corpus %s: %w", path, err)
		}
	}
	return samples, nil
}

// Builder builds vocabularies from corpus files, reusing a cached build
// when the files and vocabulary size are unchanged.
type Builder struct {
	cache *cache.FileCache
}

// NewBuilder creates a Builder. A nil cache always rebuilds.
func NewBuilder(c *cache.FileCache) *Builder {
	return &Builder{cache: c}
}

// Build returns the vocabulary for the corpus and whether it came from cache.
func (b *Builder) Build(paths []string, size int) (*Vocabulary, bool, error) {
	key, err := cacheKey(paths, size)
	if err != nil {
		return nil, false, err
	}

	if b.cache != nil {
		if entry, ok := b.cache.Get(key); ok {
			var v Vocabulary
			if err := json.Unmarshal(entry.Body, &v); err == nil {
				slog.Debug("vocabulary loaded from cache", "files", len(paths), "size", v.Len())
				return &v, true, nil
			}
			slog.Warn("discarding unreadable cached vocabulary", "files", len(paths))
		}
	}

	samples, err := LoadCorpus(paths...)
	if err != nil {
		return nil, false, err
	}
	v := BuildVocabulary(samples, size)
	slog.Info("vocabulary built", "files", len(paths), "samples", len(samples), "size", v.Len())

	if b.cache != nil {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, false, fmt.Errorf("encoding vocabulary: %w", err)
		}
		if err := b.cache.Set(key, data); err != nil {
			slog.Warn("failed to cache vocabulary", "error", err)
		}
	}

	return v, false, nil
}

// cacheKey identifies a build by file identity, contents stamp and size.
func cacheKey(paths []string, size int) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "vocab:v1:%d", size)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return "", fmt.Errorf("resolving corpus path: %w", err)
		}
		fi, err := os.Stat(abs)
		if err != nil {
			return "", fmt.Errorf("opening corpus: %w", err)
		}
		fmt.Fprintf(&sb, "|%s:%d:%d", abs, fi.Size(), fi.ModTime().UnixNano())
	}
	return sb.String(), nil
}

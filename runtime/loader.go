// Package runtime wires the realtime delivery pipeline: channels, the
// subscription registry, and the supervised workers that drain them.
// It orchestrates the system without containing business logic or domain rules.
package runtime

import (
	"bufio"
	"bytes"
	"embed"
	"io/fs"
	"sort"
	"strings"

	"estate-chat/errors"
)

// Dictionary files are named after their ISO 639-1 language code.
const dictionaryExtension = ".txt"

// CensoredData is the merged word list across every embedded dictionary,
// plus the language codes it was built from.
type CensoredData struct {
	Words     []string
	Languages []string
}

// CensoredLoader reads the embedded moderation dictionaries that seed the
// Aho-Corasick automaton.
type CensoredLoader struct {
	fs embed.FS
}

func NewCensoredLoader(f embed.FS) *CensoredLoader {
	return &CensoredLoader{fs: f}
}

// LoadAll reads every dictionary file under path, one word per line,
// deduplicated across languages. An empty result is an error: a moderator
// with no words would silently let everything through.
func (l *CensoredLoader) LoadAll(path string) (*CensoredData, error) {
	entries, err := fs.ReadDir(l.fs, path)
	if err != nil {
		return nil, err
	}

	var languages []string
	uniqueWords := make(map[string]struct{})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), dictionaryExtension) {
			continue
		}
		languages = append(languages, strings.TrimSuffix(entry.Name(), dictionaryExtension))

		data, err := l.fs.ReadFile(path + "/" + entry.Name())
		if err != nil {
			return nil, err
		}

		// Scanner copes with both \n and \r\n endings
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			if word := strings.TrimSpace(scanner.Text()); word != "" {
				uniqueWords[word] = struct{}{}
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	if len(uniqueWords) == 0 {
		return nil, errors.ErrEmptyWords
	}

	// Sorted so the automaton is built the same way on every start
	words := make([]string, 0, len(uniqueWords))
	for w := range uniqueWords {
		words = append(words, w)
	}
	sort.Strings(words)

	return &CensoredData{Words: words, Languages: languages}, nil
}

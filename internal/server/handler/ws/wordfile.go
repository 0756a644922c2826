package ws

import (
	"bufio"
	"bytes"
	"strings"
)

// wordPair is one parsed line of a bulk import file.
type wordPair struct {
	word    string
	meaning string
}

// parseWordFile reads "word<TAB>meaning" or "word - meaning" lines.
// Blank lines and lines starting with # are skipped; lines without a
// recognizable separator are skipped as well. Line order is preserved so
// repeated words merge deterministically.
func parseWordFile(data []byte) []wordPair {
	var pairs []wordPair

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var word, meaning string
		if tab := strings.Index(line, "\t"); tab >= 0 {
			word, meaning = line[:tab], line[tab+1:]
		} else if dash := strings.Index(line, " - "); dash >= 0 {
			word, meaning = line[:dash], line[dash+3:]
		} else {
			continue
		}

		word = strings.TrimSpace(word)
		meaning = strings.TrimSpace(meaning)
		if word == "" || meaning == "" {
			continue
		}
		pairs = append(pairs, wordPair{word: word, meaning: meaning})
	}

	return pairs
}

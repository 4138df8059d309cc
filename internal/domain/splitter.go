package domain

import (
	"strings"
	"unicode/utf8"
)

// splitLongParagraphs splits paragraphs longer than MaxChunkLength at
// sentence boundaries, packing sentences greedily up to the limit.
func splitLongParagraphs(paragraphs []string) []string {
	var result []string

	for _, para := range paragraphs {
		if utf8.RuneCountInString(para) <= MaxChunkLength {
			result = append(result, para)
			continue
		}

		sentences := splitIntoSentences(para)
		var chunk string

		for _, sentence := range sentences {
			chunkLen := utf8.RuneCountInString(chunk)
			sentenceLen := utf8.RuneCountInString(sentence)
			spaceLen := 0
			if chunkLen > 0 {
				spaceLen = 1
			}

			if chunkLen > 0 && chunkLen+spaceLen+sentenceLen > MaxChunkLength {
				result = append(result, chunk)
				chunk = sentence
			} else {
				if chunk != "" {
					chunk += " "
				}
				chunk += sentence
			}
		}

		if chunk != "" {
			result = append(result, chunk)
		}
	}

	return result
}

// splitIntoSentences splits at . ! ? and the Japanese period 。 when
// followed by a space, a newline, or end of text.
func splitIntoSentences(text string) []string {
	var sentences []string
	var current string

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		current += string(runes[i])

		if runes[i] == '.' || runes[i] == '!' || runes[i] == '?' || runes[i] == '。' {
			if i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' {
				sentences = append(sentences, strings.TrimSpace(current))
				current = ""
			}
		}
	}

	if trimmed := strings.TrimSpace(current); trimmed != "" {
		sentences = append(sentences, trimmed)
	}

	return sentences
}

package domain

import "unicode/utf8"

// mergeShortParagraphs merges runs of paragraphs shorter than
// MinChunkLength. Paragraphs already long enough are kept separate.
func mergeShortParagraphs(paragraphs []string) []string {
	if len(paragraphs) == 0 {
		return paragraphs
	}

	var merged []string
	var shortAccumulator string

	for _, para := range paragraphs {
		paraLen := utf8.RuneCountInString(para)
		if paraLen >= MinChunkLength {
			// Flush any accumulated short paragraphs first
			if shortAccumulator != "" {
				accumLen := utf8.RuneCountInString(shortAccumulator)
				if accumLen < MinChunkLength {
					if len(merged) > 0 {
						lastIdx := len(merged) - 1
						merged[lastIdx] = merged[lastIdx] + "\n\n" + shortAccumulator
					} else {
						// No previous chunk, prepend to this long paragraph
						para = shortAccumulator + "\n\n" + para
					}
				} else {
					merged = append(merged, shortAccumulator)
				}
				shortAccumulator = ""
			}
			merged = append(merged, para)
		} else {
			if shortAccumulator == "" {
				shortAccumulator = para
			} else {
				shortAccumulator = shortAccumulator + "\n\n" + para
			}
		}
	}

	if shortAccumulator != "" {
		accumLen := utf8.RuneCountInString(shortAccumulator)
		if accumLen < MinChunkLength && len(merged) > 0 {
			lastIdx := len(merged) - 1
			merged[lastIdx] = merged[lastIdx] + "\n\n" + shortAccumulator
		} else {
			// Might still be short if it is the note's only content
			merged = append(merged, shortAccumulator)
		}
	}

	return merged
}

// mergeConsecutiveShort is a second pass over the merge output: short
// paragraphs that still appear consecutively are joined, and a trailing
// short paragraph folds into its neighbor.
func mergeConsecutiveShort(paragraphs []string) []string {
	if len(paragraphs) <= 1 {
		return paragraphs
	}

	var result []string
	for i := 0; i < len(paragraphs); i++ {
		current := paragraphs[i]
		currentLen := utf8.RuneCountInString(current)

		for i+1 < len(paragraphs) {
			nextLen := utf8.RuneCountInString(paragraphs[i+1])
			if currentLen < MinChunkLength && nextLen < MinChunkLength {
				current = current + "\n\n" + paragraphs[i+1]
				currentLen = utf8.RuneCountInString(current)
				i++
			} else {
				break
			}
		}

		if currentLen < MinChunkLength && i+1 < len(paragraphs) {
			paragraphs[i+1] = current + "\n\n" + paragraphs[i+1]
			continue
		}

		if currentLen < MinChunkLength && len(result) > 0 {
			result[len(result)-1] = result[len(result)-1] + "\n\n" + current
			continue
		}

		result = append(result, current)
	}
	return result
}

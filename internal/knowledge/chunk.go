package knowledge

import "strings"

// DefaultChunkSize is the target chunk length in runes for indexing.
const DefaultChunkSize = 1000

// SplitChunks splits text into chunks of at most maxRunes, preferring
// paragraph boundaries. A paragraph longer than maxRunes is split mid-text.
// Empty paragraphs are dropped.
func SplitChunks(text string, maxRunes int) []string {
	if maxRunes <= 0 {
		maxRunes = DefaultChunkSize
	}

	var chunks []string
	flush := func(sb *strings.Builder) {
		if s := strings.TrimSpace(sb.String()); s != "" {
			chunks = append(chunks, s)
		}
		sb.Reset()
	}

	var current strings.Builder
	currentLen := 0
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		runes := []rune(para)
		if len(runes) > maxRunes {
			flush(&current)
			currentLen = 0
			for len(runes) > maxRunes {
				chunks = append(chunks, string(runes[:maxRunes]))
				runes = runes[maxRunes:]
			}
			if len(runes) > 0 {
				current.WriteString(string(runes))
				currentLen = len(runes)
			}
			continue
		}

		if currentLen > 0 && currentLen+2+len(runes) > maxRunes {
			flush(&current)
			currentLen = 0
		}
		if currentLen > 0 {
			current.WriteString("\n\n")
			currentLen += 2
		}
		current.WriteString(para)
		currentLen += len(runes)
	}
	flush(&current)
	return chunks
}

package chunker

import (
	"strings"
	"unicode/utf8"
)

// splitter implements the recursive separator-priority split used by the
// teacher's RecursiveChunker.splitText/mergeChunks, sized by characters
// instead of tokens and with optional sentence-boundary-aware overlap.
type splitter struct {
	size            int
	overlap         int
	respectBoundary bool
	separators      []string
}

type rawChunk struct {
	content    string
	start, end int
}

func (s *splitter) split(text string) []rawChunk {
	if text == "" {
		return nil
	}
	pieces := splitText(text, s.separators, s.size)
	return mergeChunks(pieces, s.size, s.overlap, s.respectBoundary)
}

// splitText recursively breaks text on the highest-priority separator
// that still leaves every piece within maxChars, falling through to
// lower-priority separators only for the pieces that still overflow.
func splitText(text string, separators []string, maxChars int) []string {
	if len(separators) == 0 {
		return []string{text}
	}

	separator := separators[0]
	remaining := separators[1:]

	var splits []string
	if separator == "" {
		for _, r := range text {
			splits = append(splits, string(r))
		}
	} else {
		parts := strings.Split(text, separator)
		for i, part := range parts {
			if part != "" {
				splits = append(splits, part)
			}
			if i < len(parts)-1 {
				splits = append(splits, separator)
			}
		}
	}

	var final []string
	for _, piece := range splits {
		if utf8.RuneCountInString(piece) > maxChars && len(remaining) > 0 {
			final = append(final, splitText(piece, remaining, maxChars)...)
		} else {
			final = append(final, piece)
		}
	}
	return final
}

// mergeChunks greedily accumulates splits into chunks no longer than
// size characters, carrying overlap text from the tail of each chunk
// into the next.
func mergeChunks(splits []string, size, overlap int, respectBoundary bool) []rawChunk {
	var chunks []rawChunk
	current := ""
	currentChars := 0
	textPos := 0

	flush := func() {
		if current == "" {
			return
		}
		chunks = append(chunks, rawChunk{
			content: current,
			start:   textPos - len(current),
			end:     textPos,
		})
	}

	for _, piece := range splits {
		pieceChars := utf8.RuneCountInString(piece)

		if pieceChars > size {
			flush()
			chunks = append(chunks, rawChunk{content: piece, start: textPos, end: textPos + len(piece)})
			textPos += len(piece)
			current = ""
			currentChars = 0
			continue
		}

		if currentChars+pieceChars > size && current != "" {
			flush()
			if overlap > 0 {
				ov := overlapText(current, overlap, respectBoundary)
				if room := size - pieceChars; utf8.RuneCountInString(ov) > room {
					ovRunes := []rune(ov)
					ov = string(ovRunes[len(ovRunes)-room:])
				}
				current = ov + piece
				currentChars = utf8.RuneCountInString(current)
			} else {
				current = piece
				currentChars = pieceChars
			}
		} else {
			current += piece
			currentChars += pieceChars
		}
		textPos += len(piece)
	}

	flush()
	return chunks
}

var sentenceTerminators = map[rune]bool{
	'.': true, '!': true, '?': true,
	'。': true, '！': true, '？': true, '；': true,
}

// overlapText returns up to overlapChars trailing characters of prev. When
// respectBoundary is set, the window is further trimmed forward to start
// right after the first sentence terminator it contains, so the overlap
// is at most overlapChars but snapped back to a sentence boundary; a
// window with no terminator falls back to the unsnapped window.
func overlapText(prev string, overlapChars int, respectBoundary bool) string {
	runes := []rune(prev)
	var window []rune
	if len(runes) <= overlapChars {
		window = runes
	} else {
		window = runes[len(runes)-overlapChars:]
	}

	if !respectBoundary {
		return string(window)
	}

	for i, r := range window {
		if sentenceTerminators[r] {
			if i+1 >= len(window) {
				return ""
			}
			return strings.TrimLeft(string(window[i+1:]), " ")
		}
	}
	return string(window)
}

package retrieval

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"

	"ragcore/internal/vectorstore"
)

// keywordSearch tokenizes query (whitespace plus Chinese 2..3-gram when
// Han characters are present), scrolls the collection's payload text, and
// scores each chunk as sum_t tf(t, chunk) * idf_est(t), per §4.8.
// scrollScanLimit bounds how many chunks keyword search pulls via Scroll
// per query; collections larger than this are scored on a prefix only.
const scrollScanLimit = 10000

func keywordSearch(ctx context.Context, store vectorstore.Store, collection, query string, limit int) ([]scored, error) {
	points, err := store.Scroll(ctx, collection, nil, scrollScanLimit)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, nil
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}

	texts := make([]string, len(points))
	for i, p := range points {
		text, _ := p.Payload["text"].(string)
		texts[i] = text
	}

	df := documentFrequency(terms, texts)
	n := float64(len(points))

	results := make([]scored, 0, len(points))
	for i, p := range points {
		score := 0.0
		tfs := termFrequency(terms, texts[i])
		for _, t := range terms {
			tf := tfs[t]
			if tf == 0 {
				continue
			}
			idf := math.Log(n / float64(maxInt(df[t], 1)))
			score += float64(tf) * idf
		}
		if score <= 0 {
			continue
		}
		results = append(results, scored{id: p.ID, score: float32(score), payload: p.Payload})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// tokenize splits on whitespace/punctuation; runs of Han characters are
// additionally broken into 2- and 3-grams, since CJK text carries no
// word boundaries a whitespace split can find.
func tokenize(text string) []string {
	var terms []string
	var plain strings.Builder
	var han []rune

	flushPlain := func() {
		if plain.Len() > 0 {
			terms = append(terms, strings.ToLower(plain.String()))
			plain.Reset()
		}
	}
	flushHan := func() {
		for n := 2; n <= 3; n++ {
			for i := 0; i+n <= len(han); i++ {
				terms = append(terms, string(han[i:i+n]))
			}
		}
		han = han[:0]
	}

	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			flushPlain()
			han = append(han, r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			flushHan()
			plain.WriteRune(r)
		default:
			flushPlain()
			flushHan()
		}
	}
	flushPlain()
	flushHan()

	return terms
}

func termFrequency(terms []string, text string) map[string]int {
	lower := strings.ToLower(text)
	counts := make(map[string]int, len(terms))
	for _, t := range terms {
		counts[t] = strings.Count(lower, strings.ToLower(t))
	}
	return counts
}

func documentFrequency(terms []string, docs []string) map[string]int {
	df := make(map[string]int, len(terms))
	for _, t := range terms {
		lt := strings.ToLower(t)
		for _, d := range docs {
			if strings.Contains(strings.ToLower(d), lt) {
				df[t]++
			}
		}
	}
	return df
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

package retrieval

// weightedFusion normalizes each list's scores to [0,1] (min-max) and
// merges by id with final = vectorWeight*s_v + keywordWeight*s_k: a chunk
// in both lists gets the sum of its two weighted scores, and a chunk in
// only one list gets that list's weighted score alone, per §4.8.
func weightedFusion(vecHits, kwHits []scored, vectorWeight, keywordWeight float32) []scored {
	vecNorm := minMaxNormalize(vecHits)
	kwNorm := minMaxNormalize(kwHits)

	merged := map[string]scored{}
	for id, s := range vecNorm {
		r := s
		r.score = vectorWeight * s.score
		merged[id] = r
	}
	for id, s := range kwNorm {
		contribution := keywordWeight * s.score
		if existing, ok := merged[id]; ok {
			existing.score += contribution
			merged[id] = existing
		} else {
			r := s
			r.score = contribution
			merged[id] = r
		}
	}

	out := make([]scored, 0, len(merged))
	for _, s := range merged {
		out = append(out, s)
	}
	return out
}

func minMaxNormalize(hits []scored) map[string]scored {
	out := make(map[string]scored, len(hits))
	if len(hits) == 0 {
		return out
	}
	min, max := hits[0].score, hits[0].score
	for _, h := range hits {
		if h.score < min {
			min = h.score
		}
		if h.score > max {
			max = h.score
		}
	}
	spread := max - min
	for _, h := range hits {
		norm := h
		if spread == 0 {
			norm.score = 1
		} else {
			norm.score = (h.score - min) / spread
		}
		out[h.id] = norm
	}
	return out
}

// reciprocalRankFusion is grounded directly on the teacher's
// hybrid.ReciprocalRankFusion (internal/knowledge/hybrid/rrf.go),
// generalized from an N-way []SearchResult slice to the two named result
// lists §4.8 calls for: final = Σ 1/(k + rank_i) over the vector and
// keyword rank lists.
func reciprocalRankFusion(vecHits, kwHits []scored, k int) []scored {
	type acc struct {
		payload map[string]interface{}
		score   float64
	}
	fused := map[string]*acc{}

	addRanked := func(hits []scored) {
		for rank, h := range hits {
			a, ok := fused[h.id]
			if !ok {
				a = &acc{payload: h.payload}
				fused[h.id] = a
			}
			a.score += 1.0 / float64(k+rank+1)
		}
	}
	addRanked(vecHits)
	addRanked(kwHits)

	out := make([]scored, 0, len(fused))
	for id, a := range fused {
		out = append(out, scored{id: id, score: float32(a.score), payload: a.payload})
	}
	return out
}

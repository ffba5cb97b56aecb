package agent

import (
	"context"

	"ragcore/internal/kb"
)

// KBAdapter adapts C7's Manager to the Retriever interface this package
// depends on, grounded directly on the teacher's
// assistant/llm.KnowledgeAdapter (which adapts knowledge/biz.DocumentUseCase
// to assistant/llm.KnowledgeSearcher the same way): a thin struct holding
// one dependency and converting its result type, so the orchestrator
// depends only on Retriever and kb never imports agent — it is wired to a concrete KB
// only through this adapter, constructed where both packages are already
// in scope (cmd/server's wiring).
type KBAdapter struct {
	manager *kb.Manager
}

func NewKBAdapter(manager *kb.Manager) *KBAdapter {
	return &KBAdapter{manager: manager}
}

// Search implements Retriever by resolving collectionName back to a KB
// query. collectionName here is treated as the KB ID, since that is what
// callers have on hand when building a Request (see httpapi's chat
// handler) — Manager.Query resolves the KB record and dispatches to C8
// itself.
func (a *KBAdapter) Search(ctx context.Context, kbID, query string, topK int) ([]RetrievedSnippet, error) {
	overrides := &kb.RetrievalConfig{TopK: topK}
	hits, err := a.manager.Query(ctx, kbID, query, overrides)
	if err != nil {
		return nil, err
	}

	snippets := make([]RetrievedSnippet, len(hits))
	for i, h := range hits {
		snippets[i] = RetrievedSnippet{Content: h.Content, Source: h.Source, Score: h.Score}
	}
	return snippets, nil
}

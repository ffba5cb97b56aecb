package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKBRouter(t *testing.T) *KnowledgeBaseService {
	t.Helper()
	manager, _ := newTestManager(t)
	log, err := newDevLogger()
	require.NoError(t, err)
	return NewKnowledgeBaseService(manager, t.TempDir(), 1000, 10<<20, log)
}

func mountKB(t *testing.T) *httptest.Server {
	t.Helper()
	svc := newKBRouter(t)
	r := newTestRouter()
	svc.RegisterRoutes(r.Group("/api/v1"))
	return httptest.NewServer(r)
}

func TestKnowledgeBaseService_CreateAndGet(t *testing.T) {
	srv := mountKB(t)
	defer srv.Close()

	body, _ := json.Marshal(CreateKnowledgeBaseRequest{
		Name:               "docs",
		EmbeddingModel:     "text-embedding-3-small",
		EmbeddingDimension: 8,
	})
	resp, err := http.Post(srv.URL+"/api/v1/knowledge-bases", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Data KnowledgeBaseResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.NotEmpty(t, created.Data.ID)
	assert.Equal(t, "docs", created.Data.Name)

	getResp, err := http.Get(srv.URL + "/api/v1/knowledge-bases/" + created.Data.ID)
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusOK, getResp.StatusCode)
}

func TestKnowledgeBaseService_CreateValidationError(t *testing.T) {
	srv := mountKB(t)
	defer srv.Close()

	body, _ := json.Marshal(CreateKnowledgeBaseRequest{Name: "x"})
	resp, err := http.Post(srv.URL+"/api/v1/knowledge-bases", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestKnowledgeBaseService_GetNotFound(t *testing.T) {
	srv := mountKB(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/knowledge-bases/does-not-exist")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestKnowledgeBaseService_List(t *testing.T) {
	srv := mountKB(t)
	defer srv.Close()

	for _, name := range []string{"kb-a", "kb-b"} {
		body, _ := json.Marshal(CreateKnowledgeBaseRequest{Name: name, EmbeddingModel: "m", EmbeddingDimension: 8})
		resp, err := http.Post(srv.URL+"/api/v1/knowledge-bases", "application/json", bytes.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
	}

	resp, err := http.Get(srv.URL + "/api/v1/knowledge-bases?page=1&size=20")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var listed struct {
		Data struct {
			Items []KnowledgeBaseResponse `json:"items"`
			Total int64                   `json:"total"`
			Pages int                     `json:"pages"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	assert.Len(t, listed.Data.Items, 2)
	assert.EqualValues(t, 2, listed.Data.Total)
}

func TestKnowledgeBaseService_UpdateCannotTouchEmbeddingModel(t *testing.T) {
	svc := newKBRouter(t)
	r := newTestRouter()
	svc.RegisterRoutes(r.Group("/api/v1"))
	srv := httptest.NewServer(r)
	defer srv.Close()

	createBody, _ := json.Marshal(CreateKnowledgeBaseRequest{Name: "kb-c", EmbeddingModel: "m1", EmbeddingDimension: 8})
	createResp, err := http.Post(srv.URL+"/api/v1/knowledge-bases", "application/json", bytes.NewReader(createBody))
	require.NoError(t, err)
	var created struct {
		Data KnowledgeBaseResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(createResp.Body).Decode(&created))
	createResp.Body.Close()

	newDesc := "updated description"
	updateBody, _ := json.Marshal(UpdateKnowledgeBaseRequest{Description: &newDesc})
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/v1/knowledge-bases/"+created.Data.ID, bytes.NewReader(updateBody))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	updateResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer updateResp.Body.Close()
	assert.Equal(t, http.StatusOK, updateResp.StatusCode)

	var updated struct {
		Data KnowledgeBaseResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(updateResp.Body).Decode(&updated))
	assert.Equal(t, newDesc, updated.Data.Description)
	assert.Equal(t, "m1", updated.Data.EmbeddingModel)
}

func TestKnowledgeBaseService_Delete(t *testing.T) {
	srv := mountKB(t)
	defer srv.Close()

	createBody, _ := json.Marshal(CreateKnowledgeBaseRequest{Name: "kb-d", EmbeddingModel: "m", EmbeddingDimension: 8})
	createResp, err := http.Post(srv.URL+"/api/v1/knowledge-bases", "application/json", bytes.NewReader(createBody))
	require.NoError(t, err)
	var created struct {
		Data KnowledgeBaseResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(createResp.Body).Decode(&created))
	createResp.Body.Close()

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/knowledge-bases/"+created.Data.ID, nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer delResp.Body.Close()
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)

	getResp, err := http.Get(srv.URL + "/api/v1/knowledge-bases/" + created.Data.ID)
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
}

func TestKnowledgeBaseService_QueryTooLong(t *testing.T) {
	svc := newTestQueryService(t, 10)
	r := newTestRouter()
	svc.RegisterRoutes(r.Group("/api/v1"))
	srv := httptest.NewServer(r)
	defer srv.Close()

	createBody, _ := json.Marshal(CreateKnowledgeBaseRequest{Name: "kb-e", EmbeddingModel: "m", EmbeddingDimension: 8})
	createResp, err := http.Post(srv.URL+"/api/v1/knowledge-bases", "application/json", bytes.NewReader(createBody))
	require.NoError(t, err)
	var created struct {
		Data KnowledgeBaseResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(createResp.Body).Decode(&created))
	createResp.Body.Close()

	queryBody, _ := json.Marshal(QueryRequest{Query: "this query is definitely longer than ten characters"})
	resp, err := http.Post(srv.URL+"/api/v1/knowledge-bases/"+created.Data.ID+"/query", "application/json", bytes.NewReader(queryBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func newTestQueryService(t *testing.T, maxQueryLength int) *KnowledgeBaseService {
	t.Helper()
	manager, _ := newTestManager(t)
	log, err := newDevLogger()
	require.NoError(t, err)
	return NewKnowledgeBaseService(manager, t.TempDir(), maxQueryLength, 10<<20, log)
}

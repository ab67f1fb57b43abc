package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"liria/internal/advisor"
	"liria/internal/catalog"
	"liria/internal/config"
	"liria/internal/models"
	"liria/internal/providers"
	"liria/internal/recommend"

	"github.com/stretchr/testify/require"
)

type stubAdapter struct {
	books []models.Book
}

func (a *stubAdapter) Name() string { return "stub" }

func (a *stubAdapter) Fetch(ctx context.Context, query string, maxResults int) []models.Book {
	if len(a.books) > maxResults {
		return a.books[:maxResults]
	}
	return a.books
}

func stubBooks(n int) []models.Book {
	out := make([]models.Book, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.Book{
			ID:          fmt.Sprintf("stub:%d", i),
			Title:       fmt.Sprintf("Book %d", i),
			Author:      "An Author",
			Description: fmt.Sprintf("A long enough description for book %d to survive curation.", i),
			Categories:  []string{"Fiction"},
			ISBN:        fmt.Sprintf("978000000%04d", i),
			Publisher:   "Test House",
			Source:      models.SourceOpenLibrary,
		})
	}
	return out
}

func testServer(t *testing.T, books []models.Book) *Server {
	t.Helper()
	cfg := config.Config{
		LLMProviders:   "mock",
		EmbedProviders: "mock",
		EmbedDim:       8,
		GenTemperature: 0.4,
		GenMaxTokens:   450,
		ChatRetryLimit: 3,
	}
	pm, err := providers.NewManager(cfg)
	require.NoError(t, err)
	engine := recommend.NewEngine(
		catalog.NewClient(&stubAdapter{books: books}),
		recommend.NewRanker(pm, cfg.EmbedDim),
		advisor.NewGenerator(pm, cfg.GenTemperature, cfg.GenMaxTokens, cfg.ChatRetryLimit),
		3,
	)
	return &Server{cfg: cfg, engine: engine}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload.Error.Code
}

func TestHealthz(t *testing.T) {
	h := testServer(t, nil).Routes()
	rec := doJSON(t, h, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSearchReturnsBooks(t *testing.T) {
	h := testServer(t, stubBooks(8)).Routes()
	rec := doJSON(t, h, http.MethodPost, "/search", map[string]any{"query": "space opera", "limit": 3})
	require.Equal(t, http.StatusOK, rec.Code)

	var books []models.Book
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &books))
	require.Len(t, books, 3)
}

func TestSearchEmptyQueryRejected(t *testing.T) {
	h := testServer(t, nil).Routes()
	rec := doJSON(t, h, http.MethodPost, "/search", map[string]any{"query": "   "})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "LR-API-4001", errCode(t, rec))
	require.Contains(t, rec.Body.String(), "Query string cannot be empty.")
}

func TestSearchMalformedBody(t *testing.T) {
	h := testServer(t, nil).Routes()
	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewBufferString("{nope"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Malformed JSON request body.")
}

func TestSearchWrongMethod(t *testing.T) {
	h := testServer(t, nil).Routes()
	rec := doJSON(t, h, http.MethodGet, "/search", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Equal(t, "LR-API-4005", errCode(t, rec))
}

func TestRecommendClampsLimit(t *testing.T) {
	h := testServer(t, stubBooks(40)).Routes()
	rec := doJSON(t, h, http.MethodPost, "/recommend", map[string]any{"query": "anything", "limit": 99})
	require.Equal(t, http.StatusOK, rec.Code)

	var books []models.Book
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &books))
	require.Len(t, books, 10, "limit clamps to 10")
	for _, b := range books {
		require.NotNil(t, b.SimilarityScore)
	}
}

func TestRecommendEmptyResultIsArray(t *testing.T) {
	h := testServer(t, nil).Routes()
	rec := doJSON(t, h, http.MethodPost, "/recommend", map[string]any{"query": "anything"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "[]", rec.Body.String())
}

func TestChatWithoutPersistence(t *testing.T) {
	h := testServer(t, stubBooks(10)).Routes()
	rec := doJSON(t, h, http.MethodPost, "/chat", map[string]any{
		"message": "something adventurous",
		"history": []models.ConversationTurn{{Role: "user", Content: "I liked Dune."}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Reply          string        `json:"reply"`
		Books          []models.Book `json:"books"`
		ConversationID string        `json:"conversation_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Reply)
	require.NotEmpty(t, resp.Books)
	require.Empty(t, resp.ConversationID, "no id minted without a conversation store")
}

func TestChatEmptyMessageRejected(t *testing.T) {
	h := testServer(t, nil).Routes()
	rec := doJSON(t, h, http.MethodPost, "/chat", map[string]any{"message": ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Message cannot be empty.")
}

func TestShelfEndpointsWithoutPersistence(t *testing.T) {
	h := testServer(t, nil).Routes()
	for _, path := range []string{"/library", "/wishlist"} {
		rec := doJSON(t, h, http.MethodGet, path+"?user_id=u1", nil)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
		require.Equal(t, "LR-API-5030", errCode(t, rec), path)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := testServer(t, nil).Routes()
	req := httptest.NewRequest(http.MethodOptions, "/search", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestClamp(t *testing.T) {
	require.Equal(t, 20, clamp(0, 1, 50, 20), "zero takes the fallback")
	require.Equal(t, 1, clamp(-5, 1, 50, 20))
	require.Equal(t, 50, clamp(500, 1, 50, 20))
	require.Equal(t, 7, clamp(7, 1, 50, 20))
}

func TestToAPIErrorDatabaseMapping(t *testing.T) {
	e := toAPIError(http.StatusInternalServerError, fmt.Errorf("dial tcp 127.0.0.1:5432: connection refused"))
	require.Equal(t, "LR-DB-5002", e.Code)

	generic := toAPIError(http.StatusInternalServerError, fmt.Errorf("something else"))
	require.Equal(t, "LR-API-5000", generic.Code)
	require.NotContains(t, generic.Message, "something else", "raw errors never reach clients")
}

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"liria/internal/advisor"
	"liria/internal/catalog"
	"liria/internal/config"
	"liria/internal/metrics"
	"liria/internal/models"
	"liria/internal/providers"
	"liria/internal/recommend"
	"liria/internal/storage"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	cfg          config.Config
	engine       *recommend.Engine
	db           *storage.DB
	libraryRepo  *storage.ShelfRepo
	wishlistRepo *storage.ShelfRepo
	convRepo     *storage.ConversationRepo
}

func NewServer(cfg config.Config) *Server {
	pm, err := providers.NewManager(cfg)
	if err != nil {
		panic(err)
	}

	timeout := time.Duration(cfg.CatalogTimeoutSecs) * time.Second
	adapters := make([]catalog.Adapter, 0, 2)
	if cfg.UseGoogleBooks {
		adapters = append(adapters, catalog.NewGoogleBooks(cfg.GoogleBooksBaseURL, cfg.GoogleBooksAPIKey, timeout))
	}
	adapters = append(adapters, catalog.NewOpenLibrary(cfg.OpenLibraryBaseURL, timeout))

	engine := recommend.NewEngine(
		catalog.NewClient(adapters...),
		recommend.NewRanker(pm, cfg.EmbedDim),
		advisor.NewGenerator(pm, cfg.GenTemperature, cfg.GenMaxTokens, cfg.ChatRetryLimit),
		cfg.ChatCandidateFields,
	)

	s := &Server{cfg: cfg, engine: engine}

	// Persistence is optional: with no Postgres configured the pipeline
	// still works from inline history, and the shelf endpoints answer 503.
	if strings.TrimSpace(cfg.PostgresURL) != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		db, err := storage.NewDB(ctx, cfg.PostgresURL)
		if err != nil {
			panic(err)
		}
		if err := db.EnsureSchema(ctx); err != nil {
			panic(err)
		}
		s.db = db
		s.libraryRepo = storage.NewLibraryRepo(db)
		s.wishlistRepo = storage.NewWishlistRepo(db)
		s.convRepo = storage.NewConversationRepo(db)
	} else {
		log.Printf("[api] no postgres url configured, persistence disabled")
	}
	return s
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/search", timed("search", s.handleSearch))
	mux.HandleFunc("/recommend", timed("recommend", s.handleRecommend))
	mux.HandleFunc("/chat", timed("chat", s.handleChat))
	mux.HandleFunc("/library", s.shelfHandler(func() *storage.ShelfRepo { return s.libraryRepo }))
	mux.HandleFunc("/library/", s.shelfScopedHandler(func() *storage.ShelfRepo { return s.libraryRepo }))
	mux.HandleFunc("/wishlist", s.shelfHandler(func() *storage.ShelfRepo { return s.wishlistRepo }))
	mux.HandleFunc("/wishlist/", s.shelfScopedHandler(func() *storage.ShelfRepo { return s.wishlistRepo }))
	mux.Handle("/metrics", promhttp.Handler())
	return withCORS(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("query is required"))
		return
	}
	limit := clamp(req.Limit, 1, 50, 20)
	books := s.engine.Search(r.Context(), req.Query, limit)
	writeJSON(w, http.StatusOK, booksPayload(books))
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("query is required"))
		return
	}
	limit := clamp(req.Limit, 3, 10, 5)
	books := s.engine.Recommend(r.Context(), req.Query, limit)
	writeJSON(w, http.StatusOK, booksPayload(books))
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		Message        string                    `json:"message"`
		History        []models.ConversationTurn `json:"history"`
		ConversationID string                    `json:"conversation_id"`
		UserID         string                    `json:"user_id"`
		Limit          int                       `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("message is required"))
		return
	}
	limit := clamp(req.Limit, 3, 10, 6)

	history := req.History
	conversationID := strings.TrimSpace(req.ConversationID)
	persist := s.convRepo != nil && (conversationID != "" || strings.TrimSpace(req.UserID) != "")
	if persist {
		if conversationID == "" {
			conversationID = uuid.NewString()
		}
		if err := s.convRepo.Create(r.Context(), conversationID, strings.TrimSpace(req.UserID)); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		stored, err := s.convRepo.ListTurns(r.Context(), conversationID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		if len(stored) > 0 {
			history = stored
		}
	}

	reply, books := s.engine.Chat(r.Context(), req.Message, history, limit)

	if persist {
		turns := []models.ConversationTurn{
			{Role: "user", Content: req.Message},
			{Role: "assistant", Content: reply},
		}
		if err := s.convRepo.AppendTurns(r.Context(), conversationID, turns); err != nil {
			// The reply was already generated; losing one history write
			// should not fail the chat.
			log.Printf("[api] persist conversation %s: %v", conversationID, err)
		}
	}

	resp := map[string]any{
		"reply": reply,
		"books": booksPayload(books),
	}
	if persist {
		resp["conversation_id"] = conversationID
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) shelfHandler(repo func() *storage.ShelfRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo() == nil {
			writeErr(w, http.StatusServiceUnavailable, fmt.Errorf("persistence unavailable"))
			return
		}
		switch r.Method {
		case http.MethodGet:
			userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
			if userID == "" {
				writeErr(w, http.StatusBadRequest, fmt.Errorf("user_id is required"))
				return
			}
			entries, err := repo().List(r.Context(), userID)
			if err != nil {
				writeErr(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
		case http.MethodPost:
			var req struct {
				UserID string      `json:"user_id"`
				Book   models.Book `json:"book"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
				return
			}
			req.UserID = strings.TrimSpace(req.UserID)
			if req.UserID == "" || strings.TrimSpace(req.Book.Title) == "" {
				writeErr(w, http.StatusBadRequest, fmt.Errorf("user_id and book title are required"))
				return
			}
			entry, added, err := repo().Add(r.Context(), req.UserID, req.Book)
			if err != nil {
				writeErr(w, http.StatusInternalServerError, err)
				return
			}
			if !added {
				writeJSON(w, http.StatusOK, map[string]any{"added": false})
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{"added": true, "entry": entry})
		default:
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		}
	}
}

func (s *Server) shelfScopedHandler(repo func() *storage.ShelfRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo() == nil {
			writeErr(w, http.StatusServiceUnavailable, fmt.Errorf("persistence unavailable"))
			return
		}
		if r.Method != http.MethodDelete {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 2 || parts[1] == "" {
			writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
			return
		}
		userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
		if userID == "" {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("user_id is required"))
			return
		}
		removed, err := repo().Remove(r.Context(), userID, parts[1])
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		if !removed {
			writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"removed": true})
	}
}

// booksPayload keeps the response shape stable: an empty result is an empty
// array, never null.
func booksPayload(books []models.Book) []models.Book {
	if books == nil {
		return []models.Book{}
	}
	return books
}

func clamp(v, min, max, fallback int) int {
	if v == 0 {
		v = fallback
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func timed(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		h(w, r)
		metrics.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

type apiError struct {
	Code    string
	Message string
}

// toAPIError maps internal failures to user-safe coded messages. Raw
// provider or database errors never reach a client.
func toAPIError(status int, err error) apiError {
	code := "LR-API-5000"
	msg := "Internal server error. Please retry or check service logs."

	switch {
	case status == http.StatusBadRequest:
		code = "LR-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusNotFound:
		code = "LR-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusMethodNotAllowed:
		code = "LR-API-4005"
		msg = "This endpoint does not support the requested method."
	case status == http.StatusServiceUnavailable:
		code = "LR-API-5030"
		msg = "Persistence is not configured on this deployment."
	case status >= 500:
		if err != nil {
			raw := strings.ToLower(err.Error())
			if strings.Contains(raw, "connect") || strings.Contains(raw, "dial tcp") || strings.Contains(raw, "connection refused") {
				return apiError{
					Code:    "LR-DB-5002",
					Message: "Database connection is unavailable. Check local services and retry.",
				}
			}
		}
	}

	// For 4xx, keep user-safe validation context only.
	if status >= 400 && status < 500 && err != nil {
		low := strings.ToLower(err.Error())
		switch {
		case strings.Contains(low, "query is required"):
			msg = "Query string cannot be empty."
		case strings.Contains(low, "message is required"):
			msg = "Message cannot be empty."
		case strings.Contains(low, "user_id"):
			msg = "A user id is required for this operation."
		case strings.Contains(low, "invalid json"):
			msg = "Malformed JSON request body."
		}
	}

	return apiError{Code: code, Message: msg}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

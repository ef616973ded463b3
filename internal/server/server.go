package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ThisIsAreku/Aubonmeeple/internal/models"
	"github.com/ThisIsAreku/Aubonmeeple/internal/storage"
)

// GameQuerier abstracts the persisted catalog for the read API.
type GameQuerier interface {
	Query(ctx context.Context, filter storage.Filter) ([]*models.Game, error)
	Count(ctx context.Context, filter storage.Filter) (int, error)
}

// Server exposes the read-only catalog API.
type Server struct {
	store GameQuerier
}

func New(store GameQuerier) *Server {
	return &Server{store: store}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/games", s.GamesHandler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `{"status":"ok"}`)
	})
	return mux
}

type gamesResponse struct {
	Games   []*models.Game `json:"games"`
	Total   int            `json:"total"`
	Page    int            `json:"page"`
	PerPage int            `json:"perPage"`
}

// GamesHandler serves one filtered, sorted page of the catalog.
func (s *Server) GamesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filter := filterFromQuery(r)

	total, err := s.store.Count(r.Context(), filter)
	if err != nil {
		slog.Error("Failed to count games", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	games, err := s.store.Query(r.Context(), filter)
	if err != nil {
		slog.Error("Failed to query games", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if games == nil {
		games = []*models.Game{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(gamesResponse{
		Games:   games,
		Total:   total,
		Page:    filter.Page,
		PerPage: filter.PerPage,
	}); err != nil {
		slog.Error("Failed to encode games response", "error", err)
	}
}

func filterFromQuery(r *http.Request) storage.Filter {
	q := r.URL.Query()
	filter := storage.Filter{
		Name:    q.Get("name"),
		City:    q.Get("city"),
		Sort:    q.Get("sort"),
		Page:    1,
		PerPage: 20,
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		filter.Page = page
	}
	if perPage, err := strconv.Atoi(q.Get("per_page")); err == nil && perPage > 0 && perPage <= 100 {
		filter.PerPage = perPage
	}
	return filter
}

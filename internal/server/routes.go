package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/marginhq/margin/internal/engine"
	"github.com/marginhq/margin/internal/store"
)

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		http.Error(w, `{"error":"X-User-ID required"}`, http.StatusBadRequest)
		return
	}

	var req struct {
		Name string `json:"name"`
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, `{"error":"name required"}`, http.StatusBadRequest)
		return
	}

	item, err := s.db.CreateItem(r.Context(), user, req.Name, req.Note)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	// Tag bookkeeping rides along with the save but can never fail it.
	tags := s.engine.RecordUsage(r.Context(), user, req.Note)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"item": itemJSON(item),
		"tags": tagsOrEmpty(tags),
	})
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		http.Error(w, `{"error":"X-User-ID required"}`, http.StatusBadRequest)
		return
	}
	itemID := chi.URLParam(r, "itemID")

	var req struct {
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	if err := s.db.UpdateItemNote(r.Context(), user, itemID, req.Note); err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			http.Error(w, `{"error":"item not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	tags := s.engine.RecordUsage(r.Context(), user, req.Note)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"tags":   tagsOrEmpty(tags),
	})
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		http.Error(w, `{"error":"X-User-ID required"}`, http.StatusBadRequest)
		return
	}

	items, err := s.db.ListItems(r.Context(), user)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	out := make([]map[string]any, len(items))
	for i := range items {
		out[i] = itemJSON(&items[i])
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"count": len(out),
		"items": out,
	})
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		http.Error(w, `{"error":"X-User-ID required"}`, http.StatusBadRequest)
		return
	}
	itemID := chi.URLParam(r, "itemID")

	if err := s.db.DeleteItem(r.Context(), user, itemID); err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			http.Error(w, `{"error":"item not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	// Reap orphaned tags now that a note is gone. Reconcile logs and
	// swallows its own failures; the deletion above already succeeded.
	removed := s.engine.Reconcile(r.Context(), user)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":       "deleted",
		"removed_tags": tagsOrEmpty(removed),
	})
}

func (s *Server) handleSearchItems(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		http.Error(w, `{"error":"X-User-ID required"}`, http.StatusBadRequest)
		return
	}

	raw := r.URL.Query().Get("tags")
	if raw == "" {
		http.Error(w, `{"error":"tags parameter required"}`, http.StatusBadRequest)
		return
	}
	tags := strings.Split(raw, ",")

	items, err := s.engine.SearchItemsByTags(r.Context(), user, tags)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	out := make([]map[string]any, len(items))
	for i := range items {
		out[i] = itemJSON(&items[i])
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"count": len(out),
		"items": out,
	})
}

func (s *Server) handleSuggestTags(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		http.Error(w, `{"error":"X-User-ID required"}`, http.StatusBadRequest)
		return
	}

	prefix := r.URL.Query().Get("prefix")
	limit := store.DefaultSuggestLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	suggestions, err := s.engine.Suggest(r.Context(), user, prefix, limit)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if suggestions == nil {
		suggestions = []engine.Suggestion{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"count":       len(suggestions),
		"suggestions": suggestions,
	})
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		http.Error(w, `{"error":"X-User-ID required"}`, http.StatusBadRequest)
		return
	}

	sortBy := r.URL.Query().Get("sort")
	if sortBy == "" {
		sortBy = store.SortRecent
	}

	stats, err := s.engine.ListAll(r.Context(), user, sortBy)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if stats == nil {
		stats = []engine.TagStat{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"count": len(stats),
		"tags":  stats,
	})
}

func (s *Server) handleDeleteUserTags(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		http.Error(w, `{"error":"X-User-ID required"}`, http.StatusBadRequest)
		return
	}

	s.engine.DeleteUserTags(r.Context(), user)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func itemJSON(it *store.Item) map[string]any {
	return map[string]any{
		"id":         it.ID,
		"name":       it.Name,
		"note":       it.Note,
		"created_at": it.CreatedAt,
		"updated_at": it.UpdatedAt,
	}
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

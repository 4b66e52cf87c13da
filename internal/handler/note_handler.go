package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/noteshare/internal/middleware"
	"github.com/hitoshi/noteshare/internal/model"
)

// NoteServiceInterface はノートハンドラーが必要とするサービスインターフェース。
type NoteServiceInterface interface {
	// List はユーザーが所有するノート一覧を返す。
	List(ctx context.Context, userID string) ([]*model.Note, error)
	// Get はノートを取得する。共有で受け取ったノートも対象。
	Get(ctx context.Context, noteID, userID string) (*model.NoteView, error)
	// Create はノートを作成する。
	Create(ctx context.Context, userID, title, content string) (*model.Note, error)
	// Update はノートを更新する。所有者または編集権限付き共有の相手のみ。
	Update(ctx context.Context, noteID, userID, title, content string) (*model.Note, error)
	// Delete はノートを削除する。所有者のみ。
	Delete(ctx context.Context, noteID, userID string) error
	// Search は所有ノートをタイトル・本文の部分一致で検索する。
	Search(ctx context.Context, userID, term string) ([]*model.Note, error)
}

// NoteHandler はノート管理のHTTPハンドラー。
type NoteHandler struct {
	service NoteServiceInterface
}

// NewNoteHandler はNoteHandlerを生成する。
func NewNoteHandler(service NoteServiceInterface) *NoteHandler {
	return &NoteHandler{
		service: service,
	}
}

// noteRequest はノート作成・更新リクエストのボディ。
type noteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// noteResponse はノート情報のAPIレスポンス。
type noteResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	IsShared  bool      `json:"is_shared"`
	CanEdit   bool      `json:"can_edit"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// toNoteResponse は所有ノートをレスポンス型に変換する。
func toNoteResponse(n *model.Note) noteResponse {
	return noteResponse{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Content:   n.Content,
		IsShared:  false,
		CanEdit:   true,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

// List はユーザーが所有するノート一覧を取得する。
// GET /api/notes
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	notes, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]noteResponse, len(notes))
	for i, n := range notes {
		results[i] = toNoteResponse(n)
	}
	writeJSON(w, http.StatusOK, results)
}

// Get はノートを取得する。共有で受け取ったノートも閲覧できる。
// GET /api/notes/{id}
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	noteID := chi.URLParam(r, "id")

	view, err := h.service.Get(r.Context(), noteID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, noteResponse{
		ID:        view.ID,
		UserID:    view.UserID,
		Title:     view.Title,
		Content:   view.Content,
		IsShared:  view.IsShared,
		CanEdit:   view.CanEdit,
		CreatedAt: view.CreatedAt,
		UpdatedAt: view.UpdatedAt,
	})
}

// Create はノートを作成する。
// POST /api/notes
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	note, err := h.service.Create(r.Context(), userID, req.Title, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toNoteResponse(note))
}

// Update はノートを更新する。
// PUT /api/notes/{id}
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	noteID := chi.URLParam(r, "id")

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	note, err := h.service.Update(r.Context(), noteID, userID, req.Title, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toNoteResponse(note))
}

// Delete はノートを削除する。
// DELETE /api/notes/{id}
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	noteID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), noteID, userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Search は所有ノートをタイトル・本文の部分一致で検索する。
// GET /api/notes/search?q=term
func (h *NoteHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	term := r.URL.Query().Get("q")

	notes, err := h.service.Search(r.Context(), userID, term)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]noteResponse, len(notes))
	for i, n := range notes {
		results[i] = toNoteResponse(n)
	}
	writeJSON(w, http.StatusOK, results)
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/noteshare/internal/middleware"
	"github.com/hitoshi/noteshare/internal/repository"
)

// ShareServiceInterface は共有ハンドラーが必要とするサービスインターフェース。
type ShareServiceInterface interface {
	// ShareNote はノートを指定メールアドレスのユーザーに共有する。
	ShareNote(ctx context.Context, noteID, sharerUserID, targetEmail string, canEdit bool) error
	// ShareFile はファイルを共有する。常に読み取り専用。
	ShareFile(ctx context.Context, fileID, sharerUserID, targetEmail string) error
	// UnshareNote はノートの共有を解除する。
	UnshareNote(ctx context.Context, noteID, sharerUserID, targetEmail string) error
	// UnshareFile はファイルの共有を解除する。
	UnshareFile(ctx context.Context, fileID, sharerUserID, targetEmail string) error

	ListNotesSharedWithMe(ctx context.Context, userID string) ([]repository.SharedNoteInfo, error)
	ListNotesSharedByMe(ctx context.Context, userID string) ([]repository.SharedNoteInfo, error)
	ListFilesSharedWithMe(ctx context.Context, userID string) ([]repository.SharedFileInfo, error)
	ListFilesSharedByMe(ctx context.Context, userID string) ([]repository.SharedFileInfo, error)
}

// ShareHandler は共有管理のHTTPハンドラー。
type ShareHandler struct {
	service ShareServiceInterface
}

// NewShareHandler はShareHandlerを生成する。
func NewShareHandler(service ShareServiceInterface) *ShareHandler {
	return &ShareHandler{
		service: service,
	}
}

// shareNoteRequest はノート共有・共有解除リクエストのボディ。
type shareNoteRequest struct {
	NoteID  string `json:"note_id"`
	Email   string `json:"email"`
	CanEdit bool   `json:"can_edit"`
}

// shareFileRequest はファイル共有・共有解除リクエストのボディ。
// ファイル共有に編集権限はない。
type shareFileRequest struct {
	FileID string `json:"file_id"`
	Email  string `json:"email"`
}

// sharedNoteResponse は共有ノート一覧のAPIレスポンス。
type sharedNoteResponse struct {
	ID              string    `json:"id"`
	NoteID          string    `json:"note_id"`
	NoteTitle       string    `json:"note_title"`
	SharedByName    string    `json:"shared_by_name"`
	SharedByEmail   string    `json:"shared_by_email"`
	SharedWithName  string    `json:"shared_with_name"`
	SharedWithEmail string    `json:"shared_with_email"`
	CanEdit         bool      `json:"can_edit"`
	SharedAt        time.Time `json:"shared_at"`
}

// sharedFileResponse は共有ファイル一覧のAPIレスポンス。
type sharedFileResponse struct {
	ID              string    `json:"id"`
	FileID          string    `json:"file_id"`
	FileName        string    `json:"file_name"`
	ContentType     string    `json:"content_type"`
	SizeBytes       int64     `json:"size_bytes"`
	SharedByName    string    `json:"shared_by_name"`
	SharedByEmail   string    `json:"shared_by_email"`
	SharedWithName  string    `json:"shared_with_name"`
	SharedWithEmail string    `json:"shared_with_email"`
	SharedAt        time.Time `json:"shared_at"`
}

func toSharedNoteResponse(info repository.SharedNoteInfo) sharedNoteResponse {
	return sharedNoteResponse{
		ID:              info.ID,
		NoteID:          info.NoteID,
		NoteTitle:       info.NoteTitle,
		SharedByName:    info.SharedByName,
		SharedByEmail:   info.SharedByEmail,
		SharedWithName:  info.SharedWithName,
		SharedWithEmail: info.SharedWithEmail,
		CanEdit:         info.CanEdit,
		SharedAt:        info.SharedAt,
	}
}

func toSharedFileResponse(info repository.SharedFileInfo) sharedFileResponse {
	return sharedFileResponse{
		ID:              info.ID,
		FileID:          info.FileID,
		FileName:        info.FileName,
		ContentType:     info.ContentType,
		SizeBytes:       info.SizeBytes,
		SharedByName:    info.SharedByName,
		SharedByEmail:   info.SharedByEmail,
		SharedWithName:  info.SharedWithName,
		SharedWithEmail: info.SharedWithEmail,
		SharedAt:        info.SharedAt,
	}
}

// ShareNote はノートを共有する。
// POST /api/shares/notes
func (h *ShareHandler) ShareNote(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req shareNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if err := h.service.ShareNote(r.Context(), req.NoteID, userID, req.Email, req.CanEdit); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// UnshareNote はノートの共有を解除する。
// DELETE /api/shares/notes
func (h *ShareHandler) UnshareNote(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req shareNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if err := h.service.UnshareNote(r.Context(), req.NoteID, userID, req.Email); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ShareFile はファイルを共有する。
// POST /api/shares/files
func (h *ShareHandler) ShareFile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req shareFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if err := h.service.ShareFile(r.Context(), req.FileID, userID, req.Email); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// UnshareFile はファイルの共有を解除する。
// DELETE /api/shares/files
func (h *ShareHandler) UnshareFile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req shareFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if err := h.service.UnshareFile(r.Context(), req.FileID, userID, req.Email); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListNotesSharedWithMe は自分に共有されたノート一覧を返す。
// GET /api/shares/notes/with-me
func (h *ShareHandler) ListNotesSharedWithMe(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	infos, err := h.service.ListNotesSharedWithMe(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]sharedNoteResponse, len(infos))
	for i, info := range infos {
		results[i] = toSharedNoteResponse(info)
	}
	writeJSON(w, http.StatusOK, results)
}

// ListNotesSharedByMe は自分が共有したノート一覧を返す。
// GET /api/shares/notes/by-me
func (h *ShareHandler) ListNotesSharedByMe(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	infos, err := h.service.ListNotesSharedByMe(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]sharedNoteResponse, len(infos))
	for i, info := range infos {
		results[i] = toSharedNoteResponse(info)
	}
	writeJSON(w, http.StatusOK, results)
}

// ListFilesSharedWithMe は自分に共有されたファイル一覧を返す。
// GET /api/shares/files/with-me
func (h *ShareHandler) ListFilesSharedWithMe(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	infos, err := h.service.ListFilesSharedWithMe(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]sharedFileResponse, len(infos))
	for i, info := range infos {
		results[i] = toSharedFileResponse(info)
	}
	writeJSON(w, http.StatusOK, results)
}

// ListFilesSharedByMe は自分が共有したファイル一覧を返す。
// GET /api/shares/files/by-me
func (h *ShareHandler) ListFilesSharedByMe(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	infos, err := h.service.ListFilesSharedByMe(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]sharedFileResponse, len(infos))
	for i, info := range infos {
		results[i] = toSharedFileResponse(info)
	}
	writeJSON(w, http.StatusOK, results)
}

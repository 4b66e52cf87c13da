package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/noteshare/internal/middleware"
	"github.com/hitoshi/noteshare/internal/model"
)

// FileServiceInterface はファイルハンドラーが必要とするサービスインターフェース。
type FileServiceInterface interface {
	// List はユーザーが所有するファイル一覧を返す。
	List(ctx context.Context, userID string) ([]*model.File, error)
	// ListByType はcontent_typeの部分一致で絞り込んだ一覧を返す。
	ListByType(ctx context.Context, userID, contentType string) ([]*model.File, error)
	// Get はファイルのメタデータを取得する。共有で受け取ったファイルも対象。
	Get(ctx context.Context, fileID, userID string) (*model.FileView, error)
	// Upload はファイルを受け付ける。検証はブロブ書き込み前に行われる。
	Upload(ctx context.Context, userID, fileName, contentType string, sizeBytes int64, r io.Reader) (*model.File, error)
	// Download はファイル本体のストリームとメタデータを返す。
	Download(ctx context.Context, fileID, userID string) (*model.File, io.ReadCloser, error)
	// Delete はファイルを削除する。所有者のみ。
	Delete(ctx context.Context, fileID, userID string) error
}

// FileHandler はファイル管理のHTTPハンドラー。
type FileHandler struct {
	service FileServiceInterface
	maxSize int64
}

// NewFileHandler はFileHandlerを生成する。
// maxSizeが0以下の場合はmodel.FileMaxSizeBytesを使う。
func NewFileHandler(service FileServiceInterface, maxSize int64) *FileHandler {
	if maxSize <= 0 {
		maxSize = model.FileMaxSizeBytes
	}
	return &FileHandler{
		service: service,
		maxSize: maxSize,
	}
}

// fileResponse はファイルメタデータのAPIレスポンス。
type fileResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	IsShared    bool      `json:"is_shared"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// toFileResponse は所有ファイルをレスポンス型に変換する。
func toFileResponse(f *model.File) fileResponse {
	return fileResponse{
		ID:          f.ID,
		UserID:      f.UserID,
		FileName:    f.FileName,
		ContentType: f.ContentType,
		SizeBytes:   f.SizeBytes,
		IsShared:    false,
		UploadedAt:  f.UploadedAt,
	}
}

// List はユーザーが所有するファイル一覧を取得する。
// ?type= が指定された場合はcontent_typeの部分一致で絞り込む。
// GET /api/files?type=image
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var files []*model.File
	if contentType := r.URL.Query().Get("type"); contentType != "" {
		files, err = h.service.ListByType(r.Context(), userID, contentType)
	} else {
		files, err = h.service.List(r.Context(), userID)
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]fileResponse, len(files))
	for i, f := range files {
		results[i] = toFileResponse(f)
	}
	writeJSON(w, http.StatusOK, results)
}

// Get はファイルのメタデータを取得する。
// GET /api/files/{id}
func (h *FileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	fileID := chi.URLParam(r, "id")

	view, err := h.service.Get(r.Context(), fileID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, fileResponse{
		ID:          view.ID,
		UserID:      view.UserID,
		FileName:    view.FileName,
		ContentType: view.ContentType,
		SizeBytes:   view.SizeBytes,
		IsShared:    view.IsShared,
		UploadedAt:  view.UploadedAt,
	})
}

// Upload はmultipart/form-dataのfileフィールドからファイルを受け付ける。
// POST /api/files
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	// サイズ上限 + multipartオーバーヘッド分でボディ全体を制限する
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+1024*1024)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "multipart/form-dataのfileフィールドが必要です。",
			Category: "validation",
			Action:   "ファイルを添付して再度お試しください。",
		})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	uploaded, err := h.service.Upload(r.Context(), userID, header.Filename, contentType, header.Size, file)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toFileResponse(uploaded))
}

// Download はファイル本体をストリーミングで返す。
// GET /api/files/{id}/download
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	fileID := chi.URLParam(r, "id")

	file, rc, err := h.service.Download(r.Context(), fileID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", file.SizeBytes))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	if _, err := io.Copy(w, rc); err != nil {
		// ヘッダー送信後のためステータスは変えられない。ログのみ。
		slog.Error("file download interrupted",
			slog.String("file_id", fileID),
			slog.String("error", err.Error()),
		)
	}
}

// Delete はファイルを削除する。
// DELETE /api/files/{id}
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	fileID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), fileID, userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

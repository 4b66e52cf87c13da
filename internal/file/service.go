// Package file はファイルのアップロード・ダウンロード・削除のドメインロジックを提供する。
package file

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/noteshare/internal/access"
	"github.com/hitoshi/noteshare/internal/model"
	"github.com/hitoshi/noteshare/internal/repository"
)

// 許可する拡張子。判定は拡張子のみで行い、内容のスニッフィングはしない。
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".txt":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// BlobStore はファイル本体の保存先インターフェース。
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// MetricsRecorder はアップロード操作のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordUpload(sizeBytes int64)
	RecordUploadRejected(reason string)
	RecordBlobLatency(op string, duration time.Duration)
}

// Service はファイルのサービス層。メタデータ行とブロブの二重書き込みを調停する。
// 順序の不変条件: ブロブを書いてからメタデータ行を作る。
// 行のないブロブは孤児（無害、ユーザーには見えない）、
// ブロブのない行はダウンロード不能な壊れた参照になるため後者を避ける。
type Service struct {
	fileRepo repository.FileRepository
	resolver *access.Resolver
	blobs    BlobStore
	metrics  MetricsRecorder
	maxSize  int64
}

// NewService はServiceの新しいインスタンスを生成する。
// maxSizeが0以下の場合はmodel.FileMaxSizeBytesを使う。
func NewService(
	fileRepo repository.FileRepository,
	resolver *access.Resolver,
	blobs BlobStore,
	metrics MetricsRecorder,
	maxSize int64,
) *Service {
	if maxSize <= 0 {
		maxSize = model.FileMaxSizeBytes
	}
	return &Service{
		fileRepo: fileRepo,
		resolver: resolver,
		blobs:    blobs,
		metrics:  metrics,
		maxSize:  maxSize,
	}
}

// List はユーザーが所有するファイル一覧をuploaded_at降順で返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.File, error) {
	files, err := s.fileRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ファイル一覧の取得に失敗しました: %w", err)
	}
	return files, nil
}

// ListByType はcontent_typeの部分一致で絞り込んだ所有ファイル一覧を返す。
// 例: "image" で画像のみ、"pdf" でPDFのみ。
func (s *Service) ListByType(ctx context.Context, userID, contentType string) ([]*model.File, error) {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return s.List(ctx, userID)
	}
	files, err := s.fileRepo.ListByUserIDAndType(ctx, userID, contentType)
	if err != nil {
		return nil, fmt.Errorf("ファイル一覧の取得に失敗しました: %w", err)
	}
	return files, nil
}

// Get はファイルのメタデータを取得する。所有ファイルと共有で受け取った
// ファイルの両方が対象。不可視のファイルはNotFoundを返す。
func (s *Service) Get(ctx context.Context, fileID, userID string) (*model.FileView, error) {
	decision, file, err := s.resolver.ResolveFile(ctx, fileID, userID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed() {
		return nil, model.NewNotFoundError(model.ResourceKindFile)
	}
	return &model.FileView{
		File:     *file,
		IsShared: decision.Level == model.AccessShared,
	}, nil
}

// Upload はファイルを受け付ける。検証（拡張子の許可リスト、サイズ上限）は
// ブロブに1バイトも書く前に完了する。ストレージキーはサーバー側で生成し、
// 元のファイル名は表示専用のメタデータとして保持する。
func (s *Service) Upload(ctx context.Context, userID, fileName, contentType string, sizeBytes int64, r io.Reader) (*model.File, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		s.recordRejected("empty_name")
		return nil, model.NewValidationError("ファイル名を指定してください")
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if !allowedExtensions[ext] {
		s.recordRejected("extension")
		return nil, model.NewValidationError(fmt.Sprintf("拡張子 %s のファイルはアップロードできません", ext))
	}
	if sizeBytes <= 0 {
		s.recordRejected("empty_file")
		return nil, model.NewValidationError("空のファイルはアップロードできません")
	}
	if sizeBytes > s.maxSize {
		s.recordRejected("size")
		return nil, model.NewValidationError(fmt.Sprintf("ファイルサイズは%dMB以内にしてください", s.maxSize/(1024*1024)))
	}

	storageKey := uuid.New().String() + ext

	// 申告サイズ+1でLimitReaderを張り、申告より大きい本体を弾く。
	putStart := time.Now()
	written, err := s.blobs.Put(ctx, storageKey, io.LimitReader(r, sizeBytes+1))
	s.recordBlobLatency("put", time.Since(putStart))
	if err != nil {
		return nil, model.NewStorageFailureError("ファイルの保存に失敗しました")
	}
	if written > sizeBytes {
		s.cleanupBlob(ctx, storageKey)
		s.recordRejected("size")
		return nil, model.NewValidationError("ファイルサイズが申告と一致しません")
	}

	file := &model.File{
		ID:          uuid.New().String(),
		UserID:      userID,
		FileName:    fileName,
		StorageKey:  storageKey,
		ContentType: contentType,
		SizeBytes:   written,
		UploadedAt:  time.Now(),
	}
	if err := s.fileRepo.Create(ctx, file); err != nil {
		// 行の作成に失敗したらブロブを巻き戻す。残っても孤児になるだけだが掃除しておく。
		s.cleanupBlob(ctx, storageKey)
		return nil, fmt.Errorf("ファイルメタデータの作成に失敗しました: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordUpload(written)
	}
	slog.Info("file uploaded",
		slog.String("file_id", file.ID),
		slog.String("user_id", userID),
		slog.String("storage_key", storageKey),
		slog.Int64("size_bytes", written),
	)
	return file, nil
}

// Download はファイル本体のストリームとメタデータを返す。
// 所有者と共有を受けたユーザーがダウンロードできる。不可視はNotFound。
// 呼び出し側がReadCloserを閉じる責任を持つ。
func (s *Service) Download(ctx context.Context, fileID, userID string) (*model.File, io.ReadCloser, error) {
	decision, file, err := s.resolver.ResolveFile(ctx, fileID, userID)
	if err != nil {
		return nil, nil, err
	}
	if !decision.Allowed() {
		return nil, nil, model.NewNotFoundError(model.ResourceKindFile)
	}

	openStart := time.Now()
	rc, err := s.blobs.Open(ctx, file.StorageKey)
	s.recordBlobLatency("open", time.Since(openStart))
	if err != nil {
		slog.Error("blob open failed",
			slog.String("file_id", fileID),
			slog.String("storage_key", file.StorageKey),
			slog.String("error", err.Error()),
		)
		return nil, nil, model.NewStorageFailureError("ファイルの読み取りに失敗しました")
	}
	return file, rc, nil
}

// Delete はファイルを削除する。削除できるのは所有者のみ。
// ブロブの削除はベストエフォート（失敗してもメタデータ行は削除する。
// 孤児ブロブは無害）。関連する共有リンクは行のCASCADEで消える。
func (s *Service) Delete(ctx context.Context, fileID, userID string) error {
	decision, file, err := s.resolver.ResolveFile(ctx, fileID, userID)
	if err != nil {
		return err
	}
	if !decision.Allowed() {
		return model.NewNotFoundError(model.ResourceKindFile)
	}
	if decision.Level != model.AccessOwner {
		return model.NewForbiddenError("ファイルの削除")
	}

	deleteStart := time.Now()
	err = s.blobs.Delete(ctx, file.StorageKey)
	s.recordBlobLatency("delete", time.Since(deleteStart))
	if err != nil {
		slog.Warn("blob delete failed",
			slog.String("file_id", fileID),
			slog.String("storage_key", file.StorageKey),
			slog.String("error", err.Error()),
		)
	}
	if err := s.fileRepo.DeleteByID(ctx, file.ID); err != nil {
		return fmt.Errorf("ファイルの削除に失敗しました: %w", err)
	}

	slog.Info("file deleted", slog.String("file_id", fileID), slog.String("user_id", userID))
	return nil
}

// cleanupBlob は書き込み済みブロブの巻き戻しを試みる。失敗はログのみ。
func (s *Service) cleanupBlob(ctx context.Context, key string) {
	if err := s.blobs.Delete(ctx, key); err != nil {
		slog.Warn("blob cleanup failed", slog.String("storage_key", key), slog.String("error", err.Error()))
	}
}

// recordRejected はアップロード拒否のメトリクスを記録する。
func (s *Service) recordRejected(reason string) {
	if s.metrics != nil {
		s.metrics.RecordUploadRejected(reason)
	}
}

// recordBlobLatency はブロブ操作の所要時間をメトリクスとして記録する。
func (s *Service) recordBlobLatency(op string, duration time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordBlobLatency(op, duration)
	}
}

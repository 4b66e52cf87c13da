// Package share は共有レジストリ（共有リンクの作成・解除・一覧）のドメインロジックを提供する。
package share

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/noteshare/internal/model"
	"github.com/hitoshi/noteshare/internal/repository"
)

// UserFinder は共有先ユーザーの解決に必要なインターフェース。
// ユーザーディレクトリの部分集合として定義する。
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// MetricsRecorder は共有操作のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordShareCreated(kind model.ResourceKind)
	RecordShareDenied(kind model.ResourceKind, reason string)
}

// Service は共有レジストリのサービス層。
// すべてのミューテーションは呼び出し時点で所有権を再検証する。
// 過去のアクセス判定は信用しない（チェックと使用の間に状態が変わりうる）。
type Service struct {
	noteRepo  repository.NoteRepository
	fileRepo  repository.FileRepository
	shareRepo repository.ShareRepository
	users     UserFinder
	metrics   MetricsRecorder
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	noteRepo repository.NoteRepository,
	fileRepo repository.FileRepository,
	shareRepo repository.ShareRepository,
	users UserFinder,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		noteRepo:  noteRepo,
		fileRepo:  fileRepo,
		shareRepo: shareRepo,
		users:     users,
		metrics:   metrics,
	}
}

// ShareNote はノートを指定メールアドレスのユーザーに共有する。
// 事前条件は順に検証する:
// (a) 共有者がノートを所有している → NotOwner
// (b) 共有先ユーザーが存在する → UnknownUser
// (c) 共有先 ≠ 共有者 → SelfShare
// (d) 既存の共有リンクがない → AlreadyShared
// (d)のアプリ側チェックは事前フィルタであり、同時共有のレースは
// リポジトリのユニーク制約がAlreadySharedとして報告する。
func (s *Service) ShareNote(ctx context.Context, noteID, sharerUserID, targetEmail string, canEdit bool) error {
	note, err := s.noteRepo.FindByID(ctx, noteID)
	if err != nil {
		return fmt.Errorf("ノートの取得に失敗しました: %w", err)
	}
	if note == nil || note.UserID != sharerUserID {
		s.recordDenied(model.ResourceKindNote, "not_owner")
		return model.NewNotOwnerError(model.ResourceKindNote)
	}

	target, err := s.resolveTarget(ctx, targetEmail, sharerUserID, model.ResourceKindNote)
	if err != nil {
		return err
	}

	existing, err := s.shareRepo.FindNoteShare(ctx, noteID, target.ID)
	if err != nil {
		return fmt.Errorf("ノート共有リンクの検索に失敗しました: %w", err)
	}
	if existing != nil {
		s.recordDenied(model.ResourceKindNote, "already_shared")
		return model.NewAlreadySharedError(model.ResourceKindNote)
	}

	link := &model.SharedNote{
		ID:               uuid.New().String(),
		NoteID:           noteID,
		SharedByUserID:   sharerUserID,
		SharedWithUserID: target.ID,
		CanEdit:          canEdit,
		SharedAt:         time.Now(),
	}
	if err := s.shareRepo.CreateNoteShare(ctx, link); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.RecordShareCreated(model.ResourceKindNote)
	}
	slog.Info("note shared",
		slog.String("note_id", noteID),
		slog.String("shared_by", sharerUserID),
		slog.String("shared_with", target.ID),
		slog.Bool("can_edit", canEdit),
	)
	return nil
}

// ShareFile はファイルを指定メールアドレスのユーザーに共有する。
// 事前条件はShareNoteと同じ。ファイル共有は編集権限を持たない
// （呼び出し側がcanEditを渡す余地はなく、常に読み取り専用）。
func (s *Service) ShareFile(ctx context.Context, fileID, sharerUserID, targetEmail string) error {
	file, err := s.fileRepo.FindByID(ctx, fileID)
	if err != nil {
		return fmt.Errorf("ファイルの取得に失敗しました: %w", err)
	}
	if file == nil || file.UserID != sharerUserID {
		s.recordDenied(model.ResourceKindFile, "not_owner")
		return model.NewNotOwnerError(model.ResourceKindFile)
	}

	target, err := s.resolveTarget(ctx, targetEmail, sharerUserID, model.ResourceKindFile)
	if err != nil {
		return err
	}

	existing, err := s.shareRepo.FindFileShare(ctx, fileID, target.ID)
	if err != nil {
		return fmt.Errorf("ファイル共有リンクの検索に失敗しました: %w", err)
	}
	if existing != nil {
		s.recordDenied(model.ResourceKindFile, "already_shared")
		return model.NewAlreadySharedError(model.ResourceKindFile)
	}

	link := &model.SharedFile{
		ID:               uuid.New().String(),
		FileID:           fileID,
		SharedByUserID:   sharerUserID,
		SharedWithUserID: target.ID,
		SharedAt:         time.Now(),
	}
	if err := s.shareRepo.CreateFileShare(ctx, link); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.RecordShareCreated(model.ResourceKindFile)
	}
	slog.Info("file shared",
		slog.String("file_id", fileID),
		slog.String("shared_by", sharerUserID),
		slog.String("shared_with", target.ID),
	)
	return nil
}

// UnshareNote はノートの共有を解除する。
// 共有者がノートを所有していること、共有先ユーザーが存在することを検証し、
// (noteID, 共有先)のリンクを削除する。リンクが存在しない場合はNotShared
// （冪等な失敗であり、暗黙の成功にはしない）。
func (s *Service) UnshareNote(ctx context.Context, noteID, sharerUserID, targetEmail string) error {
	note, err := s.noteRepo.FindByID(ctx, noteID)
	if err != nil {
		return fmt.Errorf("ノートの取得に失敗しました: %w", err)
	}
	if note == nil || note.UserID != sharerUserID {
		return model.NewNotOwnerError(model.ResourceKindNote)
	}

	target, err := s.users.FindByEmail(ctx, targetEmail)
	if err != nil {
		return fmt.Errorf("共有先ユーザーの検索に失敗しました: %w", err)
	}
	if target == nil {
		return model.NewUnknownUserError(targetEmail)
	}

	deleted, err := s.shareRepo.DeleteNoteShare(ctx, noteID, target.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return model.NewNotSharedError(model.ResourceKindNote)
	}

	slog.Info("note unshared",
		slog.String("note_id", noteID),
		slog.String("shared_by", sharerUserID),
		slog.String("shared_with", target.ID),
	)
	return nil
}

// UnshareFile はファイルの共有を解除する。事前条件はUnshareNoteと同じ。
func (s *Service) UnshareFile(ctx context.Context, fileID, sharerUserID, targetEmail string) error {
	file, err := s.fileRepo.FindByID(ctx, fileID)
	if err != nil {
		return fmt.Errorf("ファイルの取得に失敗しました: %w", err)
	}
	if file == nil || file.UserID != sharerUserID {
		return model.NewNotOwnerError(model.ResourceKindFile)
	}

	target, err := s.users.FindByEmail(ctx, targetEmail)
	if err != nil {
		return fmt.Errorf("共有先ユーザーの検索に失敗しました: %w", err)
	}
	if target == nil {
		return model.NewUnknownUserError(targetEmail)
	}

	deleted, err := s.shareRepo.DeleteFileShare(ctx, fileID, target.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return model.NewNotSharedError(model.ResourceKindFile)
	}

	slog.Info("file unshared",
		slog.String("file_id", fileID),
		slog.String("shared_by", sharerUserID),
		slog.String("shared_with", target.ID),
	)
	return nil
}

// ListNotesSharedWithMe はユーザーに共有されたノート一覧をshared_at降順で返す。
func (s *Service) ListNotesSharedWithMe(ctx context.Context, userID string) ([]repository.SharedNoteInfo, error) {
	return s.shareRepo.ListNoteSharesWithUser(ctx, userID)
}

// ListNotesSharedByMe はユーザーが共有したノート一覧をshared_at降順で返す。
func (s *Service) ListNotesSharedByMe(ctx context.Context, userID string) ([]repository.SharedNoteInfo, error) {
	return s.shareRepo.ListNoteSharesByUser(ctx, userID)
}

// ListFilesSharedWithMe はユーザーに共有されたファイル一覧をshared_at降順で返す。
func (s *Service) ListFilesSharedWithMe(ctx context.Context, userID string) ([]repository.SharedFileInfo, error) {
	return s.shareRepo.ListFileSharesWithUser(ctx, userID)
}

// ListFilesSharedByMe はユーザーが共有したファイル一覧をshared_at降順で返す。
func (s *Service) ListFilesSharedByMe(ctx context.Context, userID string) ([]repository.SharedFileInfo, error) {
	return s.shareRepo.ListFileSharesByUser(ctx, userID)
}

// resolveTarget は共有先メールアドレスをユーザーに解決し、自己共有を拒否する。
func (s *Service) resolveTarget(ctx context.Context, targetEmail, sharerUserID string, kind model.ResourceKind) (*model.User, error) {
	target, err := s.users.FindByEmail(ctx, targetEmail)
	if err != nil {
		return nil, fmt.Errorf("共有先ユーザーの検索に失敗しました: %w", err)
	}
	if target == nil {
		s.recordDenied(kind, "unknown_user")
		return nil, model.NewUnknownUserError(targetEmail)
	}
	if target.ID == sharerUserID {
		s.recordDenied(kind, "self_share")
		return nil, model.NewSelfShareError()
	}
	return target, nil
}

// recordDenied は共有拒否のメトリクスを記録する。
func (s *Service) recordDenied(kind model.ResourceKind, reason string) {
	if s.metrics != nil {
		s.metrics.RecordShareDenied(kind, reason)
	}
}

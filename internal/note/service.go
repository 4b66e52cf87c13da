// Package note はノートのCRUD・検索のドメインロジックを提供する。
package note

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/noteshare/internal/access"
	"github.com/hitoshi/noteshare/internal/model"
	"github.com/hitoshi/noteshare/internal/repository"
)

// Service はノートのサービス層。
// 読み取り系はアクセスリゾルバを通し、不可視（存在しない・権限なし）は
// 一律NotFoundとして返す。存在とアクセス拒否を呼び出し側に区別させない。
type Service struct {
	noteRepo repository.NoteRepository
	resolver *access.Resolver
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(noteRepo repository.NoteRepository, resolver *access.Resolver) *Service {
	return &Service{
		noteRepo: noteRepo,
		resolver: resolver,
	}
}

// List はユーザーが所有するノート一覧をcreated_at降順で返す。
// 共有で受け取ったノートは含まない（共有一覧は共有レジストリが提供する）。
func (s *Service) List(ctx context.Context, userID string) ([]*model.Note, error) {
	notes, err := s.noteRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ノート一覧の取得に失敗しました: %w", err)
	}
	return notes, nil
}

// Get はノートを取得する。所有ノートと共有で受け取ったノートの両方が対象。
// 不可視のノートはNotFoundを返す。
func (s *Service) Get(ctx context.Context, noteID, userID string) (*model.NoteView, error) {
	decision, note, err := s.resolver.ResolveNote(ctx, noteID, userID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed() {
		return nil, model.NewNotFoundError(model.ResourceKindNote)
	}
	return &model.NoteView{
		Note:     *note,
		IsShared: decision.Level == model.AccessShared,
		CanEdit:  decision.CanEdit,
	}, nil
}

// Create はノートを作成する。タイトル・本文とも空白のみは不可。
// タイトルは200文字以内。
func (s *Service) Create(ctx context.Context, userID, title, content string) (*model.Note, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if err := validateNoteInput(title, content); err != nil {
		return nil, err
	}

	now := time.Now()
	note := &model.Note{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.noteRepo.Create(ctx, note); err != nil {
		return nil, fmt.Errorf("ノートの作成に失敗しました: %w", err)
	}

	slog.Info("note created", slog.String("note_id", note.ID), slog.String("user_id", userID))
	return note, nil
}

// Update はノートを更新する。所有者と編集権限付きで共有を受けたユーザーが
// 更新できる。読み取り専用の共有はForbidden、不可視のノートはNotFound。
func (s *Service) Update(ctx context.Context, noteID, userID, title, content string) (*model.Note, error) {
	decision, note, err := s.resolver.ResolveNote(ctx, noteID, userID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed() {
		return nil, model.NewNotFoundError(model.ResourceKindNote)
	}
	if !decision.CanEdit {
		return nil, model.NewForbiddenError("ノートの編集")
	}

	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if err := validateNoteInput(title, content); err != nil {
		return nil, err
	}

	note.Title = title
	note.Content = content
	note.UpdatedAt = time.Now()
	if err := s.noteRepo.Update(ctx, note); err != nil {
		return nil, fmt.Errorf("ノートの更新に失敗しました: %w", err)
	}

	slog.Info("note updated", slog.String("note_id", noteID), slog.String("user_id", userID))
	return note, nil
}

// Delete はノートを削除する。削除できるのは所有者のみ。
// 編集権限付きの共有相手でも削除はできずForbidden、不可視のノートはNotFound。
// 関連する共有リンクは行のCASCADEで消える。
func (s *Service) Delete(ctx context.Context, noteID, userID string) error {
	decision, note, err := s.resolver.ResolveNote(ctx, noteID, userID)
	if err != nil {
		return err
	}
	if !decision.Allowed() {
		return model.NewNotFoundError(model.ResourceKindNote)
	}
	if decision.Level != model.AccessOwner {
		return model.NewForbiddenError("ノートの削除")
	}

	if err := s.noteRepo.DeleteByID(ctx, note.ID); err != nil {
		return fmt.Errorf("ノートの削除に失敗しました: %w", err)
	}

	slog.Info("note deleted", slog.String("note_id", noteID), slog.String("user_id", userID))
	return nil
}

// Search はユーザーが所有するノートをタイトル・本文の部分一致で検索する。
// 大文字小文字は区別しない。共有で受け取ったノートは対象外。
// 空白のみの検索語は全所有ノートを返す。
func (s *Service) Search(ctx context.Context, userID, term string) ([]*model.Note, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.List(ctx, userID)
	}

	notes, err := s.noteRepo.Search(ctx, userID, term)
	if err != nil {
		return nil, fmt.Errorf("ノートの検索に失敗しました: %w", err)
	}
	return notes, nil
}

// validateNoteInput はトリム済みのタイトル・本文を検証する。
func validateNoteInput(title, content string) error {
	if title == "" {
		return model.NewValidationError("タイトルを入力してください")
	}
	if len([]rune(title)) > model.NoteTitleMaxLength {
		return model.NewValidationError(fmt.Sprintf("タイトルは%d文字以内で入力してください", model.NoteTitleMaxLength))
	}
	if content == "" {
		return model.NewValidationError("本文を入力してください")
	}
	return nil
}

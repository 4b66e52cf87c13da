// Package access はリソースへのアクセス解決（認可判定）を提供する。
// すべてのコンテンツ操作はここでの判定を通してから実行される。
package access

import (
	"context"
	"fmt"

	"github.com/hitoshi/noteshare/internal/model"
	"github.com/hitoshi/noteshare/internal/repository"
)

// Resolver は(リソース, 要求ユーザー)の組に対するアクセスレベルを解決する。
// 判定は呼び出しごとにストアへ問い合わせる。ミューテーションを
// ゲートするため、キャッシュによる古い判定は許容しない。
type Resolver struct {
	noteRepo  repository.NoteRepository
	fileRepo  repository.FileRepository
	shareRepo repository.ShareRepository
}

// NewResolver はResolverを生成する。
func NewResolver(
	noteRepo repository.NoteRepository,
	fileRepo repository.FileRepository,
	shareRepo repository.ShareRepository,
) *Resolver {
	return &Resolver{
		noteRepo:  noteRepo,
		fileRepo:  fileRepo,
		shareRepo: shareRepo,
	}
}

// ResolveNote はノートへのアクセスを解決し、判定と対象ノートを返す。
// リソース不在はDeniedとして返す（呼び出し側でNotFoundにマップする）。
// 1. ノート取得。不在 → Denied
// 2. 所有者一致 → Owner（CanEdit=true）
// 3. 共有リンク検索。あり → Shared(リンクのCanEdit)、なし → Denied
func (r *Resolver) ResolveNote(ctx context.Context, noteID, requestingUserID string) (model.AccessDecision, *model.Note, error) {
	note, err := r.noteRepo.FindByID(ctx, noteID)
	if err != nil {
		return model.AccessDecision{Level: model.AccessDenied}, nil, fmt.Errorf("ノートの取得に失敗しました: %w", err)
	}
	if note == nil {
		return model.AccessDecision{Level: model.AccessDenied}, nil, nil
	}

	if note.UserID == requestingUserID {
		return model.AccessDecision{Level: model.AccessOwner, CanEdit: true}, note, nil
	}

	share, err := r.shareRepo.FindNoteShare(ctx, noteID, requestingUserID)
	if err != nil {
		return model.AccessDecision{Level: model.AccessDenied}, nil, fmt.Errorf("ノート共有リンクの検索に失敗しました: %w", err)
	}
	if share == nil {
		return model.AccessDecision{Level: model.AccessDenied}, nil, nil
	}

	return model.AccessDecision{Level: model.AccessShared, CanEdit: share.CanEdit}, note, nil
}

// ResolveFile はファイルへのアクセスを解決し、判定と対象ファイルを返す。
// ファイル共有は常に読み取り専用のため、SharedのCanEditは常にfalse。
func (r *Resolver) ResolveFile(ctx context.Context, fileID, requestingUserID string) (model.AccessDecision, *model.File, error) {
	file, err := r.fileRepo.FindByID(ctx, fileID)
	if err != nil {
		return model.AccessDecision{Level: model.AccessDenied}, nil, fmt.Errorf("ファイルの取得に失敗しました: %w", err)
	}
	if file == nil {
		return model.AccessDecision{Level: model.AccessDenied}, nil, nil
	}

	if file.UserID == requestingUserID {
		return model.AccessDecision{Level: model.AccessOwner, CanEdit: true}, file, nil
	}

	share, err := r.shareRepo.FindFileShare(ctx, fileID, requestingUserID)
	if err != nil {
		return model.AccessDecision{Level: model.AccessDenied}, nil, fmt.Errorf("ファイル共有リンクの検索に失敗しました: %w", err)
	}
	if share == nil {
		return model.AccessDecision{Level: model.AccessDenied}, nil, nil
	}

	return model.AccessDecision{Level: model.AccessShared, CanEdit: false}, file, nil
}

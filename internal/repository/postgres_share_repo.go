package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/noteshare/internal/model"
)

// uniqueViolationCode はPostgreSQLのユニーク制約違反のSQLSTATE。
const uniqueViolationCode = "23505"

// isUniqueViolation はエラーがユニーク制約違反かどうかを判定する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolationCode
	}
	return false
}

// PostgresShareRepo はPostgreSQLを使用した共有リンクリポジトリ。
// 重複共有は(resource, shared_with)のユニーク制約で直列化される。
// アプリ側の存在チェックはレースを完全には防げないため、
// 制約違反をmodel.AlreadySharedエラーにマップして正しさを保証する。
type PostgresShareRepo struct {
	db *sql.DB
}

// NewPostgresShareRepo はPostgresShareRepoを生成する。
func NewPostgresShareRepo(db *sql.DB) *PostgresShareRepo {
	return &PostgresShareRepo{db: db}
}

// FindNoteShare は(noteID, sharedWithUserID)で共有リンクを検索する。見つからない場合はnilを返す。
func (r *PostgresShareRepo) FindNoteShare(ctx context.Context, noteID, sharedWithUserID string) (*model.SharedNote, error) {
	share := &model.SharedNote{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, note_id, shared_by_user_id, shared_with_user_id, can_edit, shared_at
		 FROM shared_notes WHERE note_id = $1 AND shared_with_user_id = $2`,
		noteID, sharedWithUserID,
	).Scan(&share.ID, &share.NoteID, &share.SharedByUserID, &share.SharedWithUserID, &share.CanEdit, &share.SharedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ノート共有リンクの検索に失敗しました: %w", err)
	}

	return share, nil
}

// FindFileShare は(fileID, sharedWithUserID)で共有リンクを検索する。見つからない場合はnilを返す。
func (r *PostgresShareRepo) FindFileShare(ctx context.Context, fileID, sharedWithUserID string) (*model.SharedFile, error) {
	share := &model.SharedFile{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, file_id, shared_by_user_id, shared_with_user_id, shared_at
		 FROM shared_files WHERE file_id = $1 AND shared_with_user_id = $2`,
		fileID, sharedWithUserID,
	).Scan(&share.ID, &share.FileID, &share.SharedByUserID, &share.SharedWithUserID, &share.SharedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ファイル共有リンクの検索に失敗しました: %w", err)
	}

	return share, nil
}

// CreateNoteShare はノート共有リンクを作成する。
// 同一(note, shared_with)ペアへの同時共有はユニーク制約違反となり、
// model.AlreadySharedエラーとして返す。
func (r *PostgresShareRepo) CreateNoteShare(ctx context.Context, share *model.SharedNote) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO shared_notes (id, note_id, shared_by_user_id, shared_with_user_id, can_edit, shared_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		share.ID, share.NoteID, share.SharedByUserID, share.SharedWithUserID, share.CanEdit, share.SharedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.NewAlreadySharedError(model.ResourceKindNote)
		}
		return fmt.Errorf("ノート共有リンクの作成に失敗しました: %w", err)
	}
	return nil
}

// CreateFileShare はファイル共有リンクを作成する。
func (r *PostgresShareRepo) CreateFileShare(ctx context.Context, share *model.SharedFile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO shared_files (id, file_id, shared_by_user_id, shared_with_user_id, shared_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		share.ID, share.FileID, share.SharedByUserID, share.SharedWithUserID, share.SharedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.NewAlreadySharedError(model.ResourceKindFile)
		}
		return fmt.Errorf("ファイル共有リンクの作成に失敗しました: %w", err)
	}
	return nil
}

// DeleteNoteShare は(noteID, sharedWithUserID)の共有リンクを削除する。
// 削除した場合はtrue、リンクが存在しなかった場合はfalseを返す。
func (r *PostgresShareRepo) DeleteNoteShare(ctx context.Context, noteID, sharedWithUserID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM shared_notes WHERE note_id = $1 AND shared_with_user_id = $2`,
		noteID, sharedWithUserID,
	)
	if err != nil {
		return false, fmt.Errorf("ノート共有リンクの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	return rowsAffected > 0, nil
}

// DeleteFileShare は(fileID, sharedWithUserID)の共有リンクを削除する。
func (r *PostgresShareRepo) DeleteFileShare(ctx context.Context, fileID, sharedWithUserID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM shared_files WHERE file_id = $1 AND shared_with_user_id = $2`,
		fileID, sharedWithUserID,
	)
	if err != nil {
		return false, fmt.Errorf("ファイル共有リンクの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	return rowsAffected > 0, nil
}

// ListNoteSharesWithUser はユーザーに共有されたノート一覧をshared_at降順で返す。
func (r *PostgresShareRepo) ListNoteSharesWithUser(ctx context.Context, userID string) ([]SharedNoteInfo, error) {
	return r.listNoteShares(ctx, `sn.shared_with_user_id = $1`, userID)
}

// ListNoteSharesByUser はユーザーが共有したノート一覧をshared_at降順で返す。
func (r *PostgresShareRepo) ListNoteSharesByUser(ctx context.Context, userID string) ([]SharedNoteInfo, error) {
	return r.listNoteShares(ctx, `sn.shared_by_user_id = $1`, userID)
}

// listNoteShares は条件付きでノート共有一覧をノート・ユーザー情報と結合して取得する。
func (r *PostgresShareRepo) listNoteShares(ctx context.Context, cond, userID string) ([]SharedNoteInfo, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT
			sn.id, sn.note_id, sn.shared_by_user_id, sn.shared_with_user_id, sn.can_edit, sn.shared_at,
			n.title,
			ub.name, ub.email,
			uw.name, uw.email
		 FROM shared_notes sn
		 JOIN notes n ON sn.note_id = n.id
		 JOIN users ub ON sn.shared_by_user_id = ub.id
		 JOIN users uw ON sn.shared_with_user_id = uw.id
		 WHERE `+cond+`
		 ORDER BY sn.shared_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("ノート共有一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var results []SharedNoteInfo
	for rows.Next() {
		var info SharedNoteInfo
		if err := rows.Scan(
			&info.ID, &info.NoteID, &info.SharedByUserID, &info.SharedWithUserID, &info.CanEdit, &info.SharedAt,
			&info.NoteTitle,
			&info.SharedByName, &info.SharedByEmail,
			&info.SharedWithName, &info.SharedWithEmail,
		); err != nil {
			return nil, fmt.Errorf("ノート共有行の読み取りに失敗しました: %w", err)
		}
		results = append(results, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ノート共有一覧の走査に失敗しました: %w", err)
	}
	return results, nil
}

// ListFileSharesWithUser はユーザーに共有されたファイル一覧をshared_at降順で返す。
func (r *PostgresShareRepo) ListFileSharesWithUser(ctx context.Context, userID string) ([]SharedFileInfo, error) {
	return r.listFileShares(ctx, `sf.shared_with_user_id = $1`, userID)
}

// ListFileSharesByUser はユーザーが共有したファイル一覧をshared_at降順で返す。
func (r *PostgresShareRepo) ListFileSharesByUser(ctx context.Context, userID string) ([]SharedFileInfo, error) {
	return r.listFileShares(ctx, `sf.shared_by_user_id = $1`, userID)
}

// listFileShares は条件付きでファイル共有一覧をファイル・ユーザー情報と結合して取得する。
func (r *PostgresShareRepo) listFileShares(ctx context.Context, cond, userID string) ([]SharedFileInfo, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT
			sf.id, sf.file_id, sf.shared_by_user_id, sf.shared_with_user_id, sf.shared_at,
			f.file_name, f.content_type, f.size_bytes,
			ub.name, ub.email,
			uw.name, uw.email
		 FROM shared_files sf
		 JOIN files f ON sf.file_id = f.id
		 JOIN users ub ON sf.shared_by_user_id = ub.id
		 JOIN users uw ON sf.shared_with_user_id = uw.id
		 WHERE `+cond+`
		 ORDER BY sf.shared_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("ファイル共有一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var results []SharedFileInfo
	for rows.Next() {
		var info SharedFileInfo
		if err := rows.Scan(
			&info.ID, &info.FileID, &info.SharedByUserID, &info.SharedWithUserID, &info.SharedAt,
			&info.FileName, &info.ContentType, &info.SizeBytes,
			&info.SharedByName, &info.SharedByEmail,
			&info.SharedWithName, &info.SharedWithEmail,
		); err != nil {
			return nil, fmt.Errorf("ファイル共有行の読み取りに失敗しました: %w", err)
		}
		results = append(results, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ファイル共有一覧の走査に失敗しました: %w", err)
	}
	return results, nil
}

// compile-time interface check
var _ ShareRepository = (*PostgresShareRepo)(nil)

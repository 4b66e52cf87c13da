package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/noteshare/internal/model"
)

// PostgresFileRepo はPostgreSQLを使用したファイルメタデータリポジトリ。
type PostgresFileRepo struct {
	db *sql.DB
}

// NewPostgresFileRepo はPostgresFileRepoを生成する。
func NewPostgresFileRepo(db *sql.DB) *PostgresFileRepo {
	return &PostgresFileRepo{db: db}
}

// FindByID は指定IDのファイルを取得する。見つからない場合はnilを返す。
func (r *PostgresFileRepo) FindByID(ctx context.Context, id string) (*model.File, error) {
	file := &model.File{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, file_name, storage_key, content_type, size_bytes, uploaded_at
		 FROM files WHERE id = $1`,
		id,
	).Scan(&file.ID, &file.UserID, &file.FileName, &file.StorageKey, &file.ContentType, &file.SizeBytes, &file.UploadedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ファイルの取得に失敗しました: %w", err)
	}

	return file, nil
}

// ListByUserID はユーザーが所有するファイル一覧をuploaded_at降順で返す。
func (r *PostgresFileRepo) ListByUserID(ctx context.Context, userID string) ([]*model.File, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, file_name, storage_key, content_type, size_bytes, uploaded_at
		 FROM files WHERE user_id = $1 ORDER BY uploaded_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("ファイル一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanFiles(rows)
}

// ListByUserIDAndType はcontent_typeの部分一致で絞り込んだファイル一覧をuploaded_at降順で返す。
func (r *PostgresFileRepo) ListByUserIDAndType(ctx context.Context, userID, contentType string) ([]*model.File, error) {
	pattern := "%" + escapeLikePattern(contentType) + "%"
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, file_name, storage_key, content_type, size_bytes, uploaded_at
		 FROM files
		 WHERE user_id = $1 AND content_type ILIKE $2 ESCAPE '\'
		 ORDER BY uploaded_at DESC`,
		userID, pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("種別によるファイル一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanFiles(rows)
}

// ListStorageKeysByUserID はユーザーが所有する全ファイルのストレージキーを返す。
func (r *PostgresFileRepo) ListStorageKeysByUserID(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT storage_key FROM files WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("ストレージキー一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("ストレージキーの読み取りに失敗しました: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ストレージキー一覧の走査に失敗しました: %w", err)
	}
	return keys, nil
}

// Create はファイルメタデータ行を作成する。
func (r *PostgresFileRepo) Create(ctx context.Context, file *model.File) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO files (id, user_id, file_name, storage_key, content_type, size_bytes, uploaded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		file.ID, file.UserID, file.FileName, file.StorageKey, file.ContentType, file.SizeBytes, file.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("ファイル行の作成に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのファイル行を削除する。関連する共有リンクはCASCADE削除される。
func (r *PostgresFileRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM files WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("ファイル行の削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("ファイルが見つかりません: %s", id)
	}
	return nil
}

// scanFiles は結果セットからファイルのスライスを読み取る。
func scanFiles(rows *sql.Rows) ([]*model.File, error) {
	var files []*model.File
	for rows.Next() {
		file := &model.File{}
		if err := rows.Scan(&file.ID, &file.UserID, &file.FileName, &file.StorageKey, &file.ContentType, &file.SizeBytes, &file.UploadedAt); err != nil {
			return nil, fmt.Errorf("ファイル行の読み取りに失敗しました: %w", err)
		}
		files = append(files, file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ファイル一覧の走査に失敗しました: %w", err)
	}
	return files, nil
}

// compile-time interface check
var _ FileRepository = (*PostgresFileRepo)(nil)

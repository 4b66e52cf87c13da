// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/noteshare/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。
	// メールアドレス重複（ユニーク制約違反）はmodel.EmailTakenエラーにマップして返す。
	Create(ctx context.Context, user *model.User) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する（大文字小文字を区別しない）。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するsessions、notes、files、共有リンクはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// NoteRepository はノートデータの永続化インターフェース。
type NoteRepository interface {
	// FindByID は指定IDのノートを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Note, error)

	// ListByUserID はユーザーが所有するノート一覧をcreated_at降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Note, error)

	// Create はノートを作成する。
	Create(ctx context.Context, note *model.Note) error

	// Update はノートのタイトル・本文・updated_atを更新する。
	Update(ctx context.Context, note *model.Note) error

	// DeleteByID は指定IDのノートを削除する。関連する共有リンクはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error

	// Search はユーザーが所有するノートをタイトルまたは本文の部分一致で検索する。
	// 共有で受け取ったノートは検索対象に含めない。
	Search(ctx context.Context, userID, term string) ([]*model.Note, error)
}

// FileRepository はファイルメタデータの永続化インターフェース。
type FileRepository interface {
	// FindByID は指定IDのファイルを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.File, error)

	// ListByUserID はユーザーが所有するファイル一覧をuploaded_at降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.File, error)

	// ListByUserIDAndType はcontent_typeの部分一致で絞り込んだファイル一覧を返す。
	ListByUserIDAndType(ctx context.Context, userID, contentType string) ([]*model.File, error)

	// ListStorageKeysByUserID はユーザーが所有する全ファイルのストレージキーを返す。
	// 退会時のブロブ掃除に使用する。
	ListStorageKeysByUserID(ctx context.Context, userID string) ([]string, error)

	// Create はファイルメタデータ行を作成する。
	Create(ctx context.Context, file *model.File) error

	// DeleteByID は指定IDのファイル行を削除する。関連する共有リンクはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// ShareRepository は共有リンクの永続化インターフェース。
// 重複共有の正しさは(resource, shared_with)のDBユニーク制約が保証し、
// Create系は制約違反をmodel.AlreadySharedエラーにマップして返す。
type ShareRepository interface {
	// FindNoteShare は(noteID, sharedWithUserID)で共有リンクを検索する。見つからない場合はnilを返す。
	FindNoteShare(ctx context.Context, noteID, sharedWithUserID string) (*model.SharedNote, error)

	// FindFileShare は(fileID, sharedWithUserID)で共有リンクを検索する。見つからない場合はnilを返す。
	FindFileShare(ctx context.Context, fileID, sharedWithUserID string) (*model.SharedFile, error)

	// CreateNoteShare はノート共有リンクを作成する。
	CreateNoteShare(ctx context.Context, share *model.SharedNote) error

	// CreateFileShare はファイル共有リンクを作成する。
	CreateFileShare(ctx context.Context, share *model.SharedFile) error

	// DeleteNoteShare は(noteID, sharedWithUserID)の共有リンクを削除する。
	// 削除した場合はtrue、リンクが存在しなかった場合はfalseを返す。
	DeleteNoteShare(ctx context.Context, noteID, sharedWithUserID string) (bool, error)

	// DeleteFileShare は(fileID, sharedWithUserID)の共有リンクを削除する。
	DeleteFileShare(ctx context.Context, fileID, sharedWithUserID string) (bool, error)

	// ListNoteSharesWithUser はユーザーに共有されたノート一覧をshared_at降順で返す。
	ListNoteSharesWithUser(ctx context.Context, userID string) ([]SharedNoteInfo, error)

	// ListNoteSharesByUser はユーザーが共有したノート一覧をshared_at降順で返す。
	ListNoteSharesByUser(ctx context.Context, userID string) ([]SharedNoteInfo, error)

	// ListFileSharesWithUser はユーザーに共有されたファイル一覧をshared_at降順で返す。
	ListFileSharesWithUser(ctx context.Context, userID string) ([]SharedFileInfo, error)

	// ListFileSharesByUser はユーザーが共有したファイル一覧をshared_at降順で返す。
	ListFileSharesByUser(ctx context.Context, userID string) ([]SharedFileInfo, error)
}

// SharedNoteInfo は共有リンクとノート・相手ユーザー情報を結合した構造体。
type SharedNoteInfo struct {
	model.SharedNote
	NoteTitle       string
	SharedByName    string
	SharedByEmail   string
	SharedWithName  string
	SharedWithEmail string
}

// SharedFileInfo は共有リンクとファイル・相手ユーザー情報を結合した構造体。
type SharedFileInfo struct {
	model.SharedFile
	FileName        string
	ContentType     string
	SizeBytes       int64
	SharedByName    string
	SharedByEmail   string
	SharedWithName  string
	SharedWithEmail string
}

// Package model はドメインモデルを定義する。
package model

import "time"

// NoteTitleMaxLength はノートタイトルの最大文字数。
const NoteTitleMaxLength = 200

// Note はユーザーが作成したテキストノートを表す。
// 所有者は常に1人。更新時はUpdatedAtが更新される。
type Note struct {
	ID        string
	UserID    string
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NoteView はアクセス解決後のノート表示用モデル。
// 閲覧者が共有経由でアクセスしているか、編集可能かを含む。
type NoteView struct {
	Note
	IsShared bool
	CanEdit  bool
}

// Package model はドメインモデルを定義する。
package model

import "time"

// FileMaxSizeBytes はアップロード可能なファイルサイズの上限（10MiB）。
const FileMaxSizeBytes = 10 * 1024 * 1024

// File はアップロードされたファイルのメタデータを表す。
// バイト列本体はブロブストアにStorageKeyで保存される。
// 作成後は削除以外の変更を行わない。
type File struct {
	ID          string
	UserID      string
	FileName    string // 表示用の元ファイル名。パスとして信用しない。
	StorageKey  string // ブロブストア上の生成キー
	ContentType string
	SizeBytes   int64
	UploadedAt  time.Time
}

// FileView はアクセス解決後のファイル表示用モデル。
type FileView struct {
	File
	IsShared bool
}

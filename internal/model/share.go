// Package model はドメインモデルを定義する。
package model

import "time"

// ResourceKind は共有対象のリソース種別を表す。
type ResourceKind string

const (
	// ResourceKindNote はノートリソース。
	ResourceKindNote ResourceKind = "note"
	// ResourceKindFile はファイルリソース。
	ResourceKindFile ResourceKind = "file"
)

// SharedNote はノートの共有リンクを表す。
// (NoteID, SharedWithUserID) の組はDBのユニーク制約で一意に保たれる。
type SharedNote struct {
	ID               string
	NoteID           string
	SharedByUserID   string
	SharedWithUserID string
	CanEdit          bool
	SharedAt         time.Time
}

// SharedFile はファイルの共有リンクを表す。
// ファイル共有に編集権限はない（共有は常に読み取り専用）。
type SharedFile struct {
	ID               string
	FileID           string
	SharedByUserID   string
	SharedWithUserID string
	SharedAt         time.Time
}

// AccessLevel はアクセス解決の結果種別を表す。
type AccessLevel string

const (
	// AccessDenied はアクセス拒否（リソース不在を含む）。
	AccessDenied AccessLevel = "denied"
	// AccessOwner は所有者としてのアクセス。削除・共有を含む全操作が可能。
	AccessOwner AccessLevel = "owner"
	// AccessShared は共有リンク経由のアクセス。
	AccessShared AccessLevel = "shared"
)

// AccessDecision はアクセス解決の結果を表す。
// CanEditはLevelがOwnerなら常にtrue、Sharedならリンクの編集フラグ
// （ファイルは常にfalse）、Deniedなら常にfalse。
type AccessDecision struct {
	Level   AccessLevel
	CanEdit bool
}

// Allowed はアクセスが許可されているかを返す。
func (d AccessDecision) Allowed() bool {
	return d.Level != AccessDenied
}

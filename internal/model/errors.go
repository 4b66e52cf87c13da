// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, sharing, content, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotOwner           = "NOT_OWNER"
	ErrCodeUnknownUser        = "UNKNOWN_USER"
	ErrCodeSelfShare          = "SELF_SHARE"
	ErrCodeAlreadyShared      = "ALREADY_SHARED"
	ErrCodeNotShared          = "NOT_SHARED"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeStorageFailure     = "STORAGE_FAILURE"
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
)

// NewNotFoundError はリソース未検出エラーを生成する。
// アクセス権のないリソースも存在を隠すため同じエラーで返す。
func NewNotFoundError(kind ResourceKind) *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("指定された%sが見つかりません。", kindLabel(kind)),
		Category: "content",
		Action:   "IDを確認してください。",
	}
}

// NewForbiddenError は操作不許可エラーを生成する。
// リソースへのアクセス自体は確認済みで、特定の操作のみ拒否された場合に使う。
func NewForbiddenError(operation string) *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  fmt.Sprintf("この操作（%s）を実行する権限がありません。", operation),
		Category: "content",
		Action:   "所有者または編集権限付きで共有されたユーザーのみ実行できます。",
	}
}

// NewNotOwnerError は所有者以外による共有操作エラーを生成する。
func NewNotOwnerError(kind ResourceKind) *APIError {
	return &APIError{
		Code:     ErrCodeNotOwner,
		Message:  fmt.Sprintf("この%sの所有者ではないため、共有設定を変更できません。", kindLabel(kind)),
		Category: "sharing",
		Action:   "共有の作成・解除はリソースの所有者のみ実行できます。",
	}
}

// NewUnknownUserError は共有先ユーザー未検出エラーを生成する。
func NewUnknownUserError(email string) *APIError {
	return &APIError{
		Code:     ErrCodeUnknownUser,
		Message:  fmt.Sprintf("指定されたメールアドレスのユーザーが見つかりません: %s", email),
		Category: "sharing",
		Action:   "共有先ユーザーが登録済みか、メールアドレスを確認してください。",
	}
}

// NewSelfShareError は自分自身への共有エラーを生成する。
func NewSelfShareError() *APIError {
	return &APIError{
		Code:     ErrCodeSelfShare,
		Message:  "自分自身に共有することはできません。",
		Category: "sharing",
		Action:   "他のユーザーのメールアドレスを指定してください。",
	}
}

// NewAlreadySharedError は重複共有エラーを生成する。
func NewAlreadySharedError(kind ResourceKind) *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyShared,
		Message:  fmt.Sprintf("この%sは既にそのユーザーと共有されています。", kindLabel(kind)),
		Category: "sharing",
		Action:   "共有一覧から既存の共有を確認してください。",
	}
}

// NewNotSharedError は共有未存在エラーを生成する。
// 共有解除対象のリンクが存在しない場合に使う（暗黙の成功にはしない）。
func NewNotSharedError(kind ResourceKind) *APIError {
	return &APIError{
		Code:     ErrCodeNotShared,
		Message:  fmt.Sprintf("この%sはそのユーザーと共有されていません。", kindLabel(kind)),
		Category: "sharing",
		Action:   "共有一覧を確認してください。",
	}
}

// NewValidationError はフィールド制約違反エラーを生成する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
		Action:   "入力内容を修正して再度お試しください。",
	}
}

// NewStorageFailureError はブロブ・行の書き込み/削除失敗エラーを生成する。
func NewStorageFailureError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeStorageFailure,
		Message:  message,
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewEmailTakenError はメールアドレス重複エラーを生成する。
func NewEmailTakenError(email string) *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  fmt.Sprintf("このメールアドレスは既に登録されています: %s", email),
		Category: "auth",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// ユーザー不在とパスワード不一致は区別せず同じエラーで返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// kindLabel はリソース種別の日本語表記を返す。
func kindLabel(kind ResourceKind) string {
	if kind == ResourceKindFile {
		return "ファイル"
	}
	return "ノート"
}

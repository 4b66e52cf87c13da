package directory

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/noteshare/internal/model"
)

// --- モック ---

type mockUserRepo struct {
	createFn      func(ctx context.Context, user *model.User) error
	findByIDFn    func(ctx context.Context, id string) (*model.User, error)
	findByEmailFn func(ctx context.Context, email string) (*model.User, error)
	deleteByIDFn  func(ctx context.Context, id string) error
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}
func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}
func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

type mockSessionRepo struct {
	createFn       func(ctx context.Context, session *model.Session) error
	findByIDFn     func(ctx context.Context, id string) (*model.Session, error)
	deleteByIDFn   func(ctx context.Context, id string) error
	deleteByUserFn func(ctx context.Context, userID string) error
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, session)
	}
	return nil
}
func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}
func (m *mockSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if m.deleteByUserFn != nil {
		return m.deleteByUserFn(ctx, userID)
	}
	return nil
}

type mockFileRepo struct {
	listStorageKeysFn func(ctx context.Context, userID string) ([]string, error)
}

func (m *mockFileRepo) FindByID(ctx context.Context, id string) (*model.File, error) {
	return nil, nil
}
func (m *mockFileRepo) ListByUserID(ctx context.Context, userID string) ([]*model.File, error) {
	return nil, nil
}
func (m *mockFileRepo) ListByUserIDAndType(ctx context.Context, userID, contentType string) ([]*model.File, error) {
	return nil, nil
}
func (m *mockFileRepo) ListStorageKeysByUserID(ctx context.Context, userID string) ([]string, error) {
	if m.listStorageKeysFn != nil {
		return m.listStorageKeysFn(ctx, userID)
	}
	return nil, nil
}
func (m *mockFileRepo) Create(ctx context.Context, file *model.File) error { return nil }
func (m *mockFileRepo) DeleteByID(ctx context.Context, id string) error    { return nil }

type mockBlobDeleter struct {
	deleteFn func(ctx context.Context, key string) error
	deleted  []string
}

func (m *mockBlobDeleter) Delete(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, key)
	}
	return nil
}

func newTestService(userRepo *mockUserRepo, sessionRepo *mockSessionRepo) *Service {
	return NewService(userRepo, sessionRepo, nil, nil, ServiceConfig{SessionMaxAge: 3600})
}

// --- テスト ---

// 正常な登録でユーザーとセッションが作成されることを検証
func TestService_Register_Success(t *testing.T) {
	var createdUser *model.User
	var createdSession *model.Session
	userRepo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			createdUser = user
			return nil
		},
	}
	sessionRepo := &mockSessionRepo{
		createFn: func(ctx context.Context, session *model.Session) error {
			createdSession = session
			return nil
		},
	}

	svc := newTestService(userRepo, sessionRepo)

	user, session, err := svc.Register(context.Background(), "alice@example.com", "Alice", "password123")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if createdUser == nil {
		t.Fatal("user should be persisted")
	}
	if createdUser.PasswordHash == "password123" {
		t.Error("password must not be stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(createdUser.PasswordHash), []byte("password123")); err != nil {
		t.Errorf("stored hash should verify the original password: %v", err)
	}
	if createdSession == nil || session == nil {
		t.Fatal("session should be created on register")
	}
	if session.UserID != user.ID {
		t.Errorf("session.UserID = %q, want %q", session.UserID, user.ID)
	}
	if len(session.ID) != 64 {
		t.Errorf("session ID length = %d, want 64 hex chars", len(session.ID))
	}
}

// 入力バリデーションの失敗がValidationErrorとして返ることを検証
func TestService_Register_Validation(t *testing.T) {
	svc := newTestService(&mockUserRepo{}, &mockSessionRepo{})

	tests := []struct {
		name     string
		email    string
		userName string
		password string
	}{
		{"invalid email", "not-an-email", "Alice", "password123"},
		{"empty name", "alice@example.com", "  ", "password123"},
		{"short password", "alice@example.com", "Alice", "short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Register(context.Background(), tt.email, tt.userName, tt.password)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidation {
				t.Errorf("expected VALIDATION_ERROR, got %v", err)
			}
		})
	}
}

// メールアドレス重複がEmailTakenとして伝播することを検証
func TestService_Register_EmailTaken(t *testing.T) {
	userRepo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			return model.NewEmailTakenError(user.Email)
		},
	}
	svc := newTestService(userRepo, &mockSessionRepo{})

	_, _, err := svc.Register(context.Background(), "alice@example.com", "Alice", "password123")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeEmailTaken {
		t.Errorf("expected EMAIL_TAKEN, got %v", err)
	}
}

// 正しい認証情報でログインできることを検証
func TestService_Login_Success(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	userRepo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: "user-1", Email: email, PasswordHash: string(hash)}, nil
		},
	}
	svc := newTestService(userRepo, &mockSessionRepo{})

	user, session, err := svc.Login(context.Background(), "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("user.ID = %q, want %q", user.ID, "user-1")
	}
	if session == nil {
		t.Fatal("session should be issued on login")
	}
}

// ユーザー不在とパスワード不一致が同じエラーになることを検証
func TestService_Login_InvalidCredentials(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	tests := []struct {
		name string
		repo *mockUserRepo
		pass string
	}{
		{
			name: "unknown user",
			repo: &mockUserRepo{},
			pass: "password123",
		},
		{
			name: "wrong password",
			repo: &mockUserRepo{
				findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
					return &model.User{ID: "user-1", Email: email, PasswordHash: string(hash)}, nil
				},
			},
			pass: "wrong-password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(tt.repo, &mockSessionRepo{})
			_, _, err := svc.Login(context.Background(), "alice@example.com", tt.pass)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidCredentials {
				t.Errorf("expected INVALID_CREDENTIALS, got %v", err)
			}
		})
	}
}

// 退会処理でブロブとユーザー行が削除されることを検証
func TestService_Withdraw(t *testing.T) {
	userDeleted := false
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
		deleteByIDFn: func(ctx context.Context, id string) error {
			userDeleted = true
			return nil
		},
	}
	fileRepo := &mockFileRepo{
		listStorageKeysFn: func(ctx context.Context, userID string) ([]string, error) {
			return []string{"key-1", "key-2"}, nil
		},
	}
	blobs := &mockBlobDeleter{}

	svc := NewService(userRepo, &mockSessionRepo{}, fileRepo, blobs, ServiceConfig{SessionMaxAge: 3600})

	if err := svc.Withdraw(context.Background(), "user-1"); err != nil {
		t.Fatalf("Withdraw returned error: %v", err)
	}
	if len(blobs.deleted) != 2 {
		t.Errorf("deleted blobs = %d, want 2", len(blobs.deleted))
	}
	if !userDeleted {
		t.Error("user row should be deleted")
	}
}

// ブロブ削除の失敗が退会処理を止めないことを検証
func TestService_Withdraw_BlobFailureContinues(t *testing.T) {
	userDeleted := false
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
		deleteByIDFn: func(ctx context.Context, id string) error {
			userDeleted = true
			return nil
		},
	}
	fileRepo := &mockFileRepo{
		listStorageKeysFn: func(ctx context.Context, userID string) ([]string, error) {
			return []string{"key-1"}, nil
		},
	}
	blobs := &mockBlobDeleter{
		deleteFn: func(ctx context.Context, key string) error {
			return errors.New("disk error")
		},
	}

	svc := NewService(userRepo, &mockSessionRepo{}, fileRepo, blobs, ServiceConfig{SessionMaxAge: 3600})

	if err := svc.Withdraw(context.Background(), "user-1"); err != nil {
		t.Fatalf("Withdraw should not fail on blob error: %v", err)
	}
	if !userDeleted {
		t.Error("user row should still be deleted")
	}
}

// 存在しないユーザーの退会がUserNotFoundになることを検証
func TestService_Withdraw_UnknownUser(t *testing.T) {
	svc := newTestService(&mockUserRepo{}, &mockSessionRepo{})

	err := svc.Withdraw(context.Background(), "missing")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Errorf("expected USER_NOT_FOUND, got %v", err)
	}
}

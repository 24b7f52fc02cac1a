package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/usersvc/internal/model"
	"github.com/hitoshi/usersvc/internal/user"
)

// mockUserService はテスト用のUserServiceInterfaceモック実装。
type mockUserService struct {
	createFunc  func(ctx context.Context, in user.Input) (*model.User, error)
	listFunc    func(ctx context.Context, skip, limit int) ([]*model.User, error)
	getByIDFunc func(ctx context.Context, id int64) (*model.User, error)
	updateFunc  func(ctx context.Context, id int64, in user.Input) (*model.User, error)
	deleteFunc  func(ctx context.Context, id int64) error
}

var _ UserServiceInterface = (*mockUserService)(nil)

func (m *mockUserService) Create(ctx context.Context, in user.Input) (*model.User, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, in)
	}
	return nil, errors.New("createFunc not set")
}

func (m *mockUserService) List(ctx context.Context, skip, limit int) ([]*model.User, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, skip, limit)
	}
	return []*model.User{}, nil
}

func (m *mockUserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, model.NewUserNotFoundError(id)
}

func (m *mockUserService) Update(ctx context.Context, id int64, in user.Input) (*model.User, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, in)
	}
	return nil, errors.New("updateFunc not set")
}

func (m *mockUserService) Delete(ctx context.Context, id int64) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

// newTestRouter はモックサービスを接続したルーティングを構築する。
// パスパラメータの解決にchiのルートコンテキストが必要なためルーター経由でテストする。
func newTestRouter(service UserServiceInterface) http.Handler {
	h := NewUserHandler(service)
	r := chi.NewRouter()
	r.Post("/users", h.Create)
	r.Get("/users", h.List)
	r.Get("/users/{id}", h.Get)
	r.Put("/users/{id}", h.Update)
	r.Delete("/users/{id}", h.Delete)
	return r
}

func decodeAPIError(t *testing.T, rec *httptest.ResponseRecorder) apiErrorResponse {
	t.Helper()
	var body apiErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return body
}

func TestUserHandler_Create_Success(t *testing.T) {
	service := &mockUserService{
		createFunc: func(ctx context.Context, in user.Input) (*model.User, error) {
			return &model.User{
				ID:        1,
				Name:      in.Name,
				Email:     in.Email,
				Age:       in.Age,
				CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			}, nil
		},
	}
	router := newTestRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/users",
		strings.NewReader(`{"name":"Ana","email":"ana@example.com","age":25}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
	}

	var body userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.ID != 1 {
		t.Errorf("id = %d, want 1", body.ID)
	}
	if body.Email != "ana@example.com" {
		t.Errorf("email = %q, want %q", body.Email, "ana@example.com")
	}
	if body.Age == nil || *body.Age != 25 {
		t.Errorf("age = %v, want 25", body.Age)
	}
}

func TestUserHandler_Create_InvalidJSON(t *testing.T) {
	router := newTestRouter(&mockUserService{})

	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if body := decodeAPIError(t, rec); body.Code != model.ErrCodeInvalidRequest {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeInvalidRequest)
	}
}

// メールアドレス重複は外部契約上409ではなく400を返す。
func TestUserHandler_Create_EmailTaken_Returns400(t *testing.T) {
	service := &mockUserService{
		createFunc: func(ctx context.Context, in user.Input) (*model.User, error) {
			return nil, model.NewEmailTakenError(in.Email)
		},
	}
	router := newTestRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/users",
		strings.NewReader(`{"name":"Ana","email":"taken@example.com"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	body := decodeAPIError(t, rec)
	if body.Code != model.ErrCodeEmailTaken {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeEmailTaken)
	}
	if body.Category != "conflict" {
		t.Errorf("category = %q, want %q", body.Category, "conflict")
	}
}

func TestUserHandler_Create_ValidationFailed(t *testing.T) {
	service := &mockUserService{
		createFunc: func(ctx context.Context, in user.Input) (*model.User, error) {
			return nil, model.NewValidationError("nameは必須です")
		},
	}
	router := newTestRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/users",
		strings.NewReader(`{"name":"","email":"a@example.com"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if body := decodeAPIError(t, rec); body.Code != model.ErrCodeValidationFailed {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeValidationFailed)
	}
}

func TestUserHandler_List_DefaultPagination(t *testing.T) {
	var gotSkip, gotLimit int
	service := &mockUserService{
		listFunc: func(ctx context.Context, skip, limit int) ([]*model.User, error) {
			gotSkip, gotLimit = skip, limit
			return []*model.User{{ID: 1, Name: "Ana", Email: "ana@example.com"}}, nil
		},
	}
	router := newTestRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotSkip != 0 || gotLimit != 100 {
		t.Errorf("service called with skip=%d limit=%d, want 0/100", gotSkip, gotLimit)
	}

	var body []userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body) != 1 {
		t.Errorf("len(body) = %d, want 1", len(body))
	}
}

func TestUserHandler_List_ExplicitPagination(t *testing.T) {
	var gotSkip, gotLimit int
	service := &mockUserService{
		listFunc: func(ctx context.Context, skip, limit int) ([]*model.User, error) {
			gotSkip, gotLimit = skip, limit
			return []*model.User{}, nil
		},
	}
	router := newTestRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/users?skip=5&limit=10", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotSkip != 5 || gotLimit != 10 {
		t.Errorf("service called with skip=%d limit=%d, want 5/10", gotSkip, gotLimit)
	}
}

func TestUserHandler_List_InvalidPagination(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "skipが負数", query: "skip=-1"},
		{name: "limitが0", query: "limit=0"},
		{name: "limitが上限超過", query: "limit=101"},
		{name: "skipが非整数", query: "skip=abc"},
		{name: "limitが非整数", query: "limit=xyz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &mockUserService{
				listFunc: func(ctx context.Context, skip, limit int) ([]*model.User, error) {
					t.Fatal("service should not be called for invalid pagination")
					return nil, nil
				},
			}
			router := newTestRouter(service)

			req := httptest.NewRequest(http.MethodGet, "/users?"+tt.query, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			if body := decodeAPIError(t, rec); body.Code != model.ErrCodeInvalidPagination {
				t.Errorf("code = %q, want %q", body.Code, model.ErrCodeInvalidPagination)
			}
		})
	}
}

func TestUserHandler_Get_Success(t *testing.T) {
	service := &mockUserService{
		getByIDFunc: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, Name: "Ana", Email: "ana@example.com"}, nil
		},
	}
	router := newTestRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/users/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.ID != 1 {
		t.Errorf("id = %d, want 1", body.ID)
	}
	// ageが未設定のユーザーはnullとして返す
	if body.Age != nil {
		t.Errorf("age = %v, want nil", body.Age)
	}
}

func TestUserHandler_Get_NotFound(t *testing.T) {
	router := newTestRouter(&mockUserService{})

	req := httptest.NewRequest(http.MethodGet, "/users/42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if body := decodeAPIError(t, rec); body.Code != model.ErrCodeUserNotFound {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUserNotFound)
	}
}

func TestUserHandler_Get_NonIntegerID(t *testing.T) {
	router := newTestRouter(&mockUserService{
		getByIDFunc: func(ctx context.Context, id int64) (*model.User, error) {
			t.Fatal("service should not be called for non-integer id")
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/users/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if body := decodeAPIError(t, rec); body.Code != model.ErrCodeInvalidRequest {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeInvalidRequest)
	}
}

func TestUserHandler_Update_Success(t *testing.T) {
	service := &mockUserService{
		updateFunc: func(ctx context.Context, id int64, in user.Input) (*model.User, error) {
			return &model.User{ID: id, Name: in.Name, Email: in.Email, Age: in.Age}, nil
		},
	}
	router := newTestRouter(service)

	req := httptest.NewRequest(http.MethodPut, "/users/1",
		strings.NewReader(`{"name":"Ana B","email":"ana@example.com","age":30}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.ID != 1 {
		t.Errorf("id = %d, want 1", body.ID)
	}
	if body.Name != "Ana B" {
		t.Errorf("name = %q, want %q", body.Name, "Ana B")
	}
}

func TestUserHandler_Update_NotFound(t *testing.T) {
	service := &mockUserService{
		updateFunc: func(ctx context.Context, id int64, in user.Input) (*model.User, error) {
			return nil, model.NewUserNotFoundError(id)
		},
	}
	router := newTestRouter(service)

	req := httptest.NewRequest(http.MethodPut, "/users/42",
		strings.NewReader(`{"name":"Ana","email":"a@example.com"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestUserHandler_Delete_Success(t *testing.T) {
	var deletedID int64
	service := &mockUserService{
		deleteFunc: func(ctx context.Context, id int64) error {
			deletedID = id
			return nil
		},
	}
	router := newTestRouter(service)

	req := httptest.NewRequest(http.MethodDelete, "/users/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if deletedID != 1 {
		t.Errorf("deleted id = %d, want 1", deletedID)
	}

	var body messageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Message == "" {
		t.Error("expected non-empty message")
	}
}

func TestUserHandler_Delete_NotFound(t *testing.T) {
	service := &mockUserService{
		deleteFunc: func(ctx context.Context, id int64) error {
			return model.NewUserNotFoundError(id)
		},
	}
	router := newTestRouter(service)

	req := httptest.NewRequest(http.MethodDelete, "/users/42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestUserHandler_InternalError_Returns500(t *testing.T) {
	service := &mockUserService{
		getByIDFunc: func(ctx context.Context, id int64) (*model.User, error) {
			return nil, errors.New("connection refused")
		},
	}
	router := newTestRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/users/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

package core

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const testSecret = "test-secret"

// fakeUserRepo is an in-memory UserRepository keyed by email.
type fakeUserRepo struct {
	users map[string]*UserRecord
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*UserRecord{}}
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*UserRecord, error) {
	u, ok := r.users[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) Create(_ context.Context, email, passwordHash string, name *string, role string) (*UserRecord, error) {
	if _, ok := r.users[email]; ok {
		return nil, &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	}
	u := &UserRecord{
		ID:           NewID(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now(),
	}
	r.users[email] = u
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) HasAdmin(_ context.Context) (bool, error) {
	for _, u := range r.users {
		if u.Role == RoleAdmin {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) List(_ context.Context, page, perPage int) ([]AdminUserListItem, int, error) {
	all := make([]AdminUserListItem, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, AdminUserListItem{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role, CreatedAt: u.CreatedAt})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })
	start := (page - 1) * perPage
	if start > len(all) {
		start = len(all)
	}
	end := start + perPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (r *fakeUserRepo) Count(_ context.Context) (int, error) {
	return len(r.users), nil
}

// failingUserRepo simulates an unreachable user store.
type failingUserRepo struct {
	*fakeUserRepo
	err error
}

func (r *failingUserRepo) FindByEmail(context.Context, string) (*UserRecord, error) {
	return nil, r.err
}

// fakeProductRepo is an in-memory ProductRepository preserving insert order.
type fakeProductRepo struct {
	products map[string]*Product
	order    []string
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[string]*Product{}}
}

func (r *fakeProductRepo) List(_ context.Context, filter ProductFilter) ([]Product, error) {
	items := []Product{}
	// newest first
	for i := len(r.order) - 1; i >= 0; i-- {
		p := r.products[r.order[i]]
		if !p.IsActive {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if s := strings.ToLower(filter.Search); s != "" {
			name := strings.ToLower(p.Name)
			desc := ""
			if p.Description != nil {
				desc = strings.ToLower(*p.Description)
			}
			if !strings.Contains(name, s) && !strings.Contains(desc, s) {
				continue
			}
		}
		items = append(items, *p)
	}
	return items, nil
}

func (r *fakeProductRepo) Get(_ context.Context, id string) (*Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) Create(_ context.Context, in ProductInput) (*Product, error) {
	now := time.Now()
	p := &Product{
		ID:          NewID(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		ImageURL:    in.ImageURL,
		Stock:       in.Stock,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.products[p.ID] = p
	r.order = append(r.order, p.ID)
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) Update(_ context.Context, id string, patch ProductPatch) (*Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.ImageURL != nil {
		p.ImageURL = patch.ImageURL
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
	p.UpdatedAt = time.Now()
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) Deactivate(_ context.Context, id string) (*Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	p.IsActive = false
	p.UpdatedAt = time.Now()
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) Count(_ context.Context) (int, error) {
	return len(r.products), nil
}

// newTestRouter wires a router over the fakes with a fixed test secret.
func newTestRouter(t *testing.T, users UserRepository, products ProductRepository, cache *ProductCache) (*gin.Engine, *TokenService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := Config{TokenTTL: time.Hour, JWTSecret: testSecret}
	tokens := NewTokenService([]byte(cfg.JWTSecret), cfg.TokenTTL)
	authService := NewRepositoryAuthService(users)
	return NewRouter(cfg, tokens, authService, users, products, cache), tokens
}

// doJSON performs a request with an optional JSON body and bearer token.
func doJSON(r *gin.Engine, method, path string, body any, bearer string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// decodeBody unmarshals a recorder body into a generic map.
func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("invalid response body %q: %v", w.Body.String(), err)
	}
	return m
}

// registerUser creates a user directly through the repository.
func registerUser(t *testing.T, repo UserRepository, email, password, role string) User {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u, err := repo.Create(context.Background(), email, hash, nil, role)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return User{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role, CreatedAt: u.CreatedAt}
}

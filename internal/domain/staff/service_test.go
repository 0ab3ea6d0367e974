package staff

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/odonto/clinic/internal/platform/auth"
)

type mockRepo struct {
	items map[uuid.UUID]*User
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*User)}
}

func (m *mockRepo) Create(_ context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	m.items[u.ID] = u
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("staff user not found")
	}
	cp := *u
	return &cp, nil
}

func (m *mockRepo) GetBySubject(_ context.Context, subject string) (*User, error) {
	for _, u := range m.items {
		if u.Subject == subject {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("staff user not found")
}

func (m *mockRepo) Update(_ context.Context, u *User) error {
	if _, ok := m.items[u.ID]; !ok {
		return fmt.Errorf("staff user not found")
	}
	m.items[u.ID] = u
	return nil
}

func (m *mockRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	u, ok := m.items[id]
	if !ok {
		return fmt.Errorf("staff user not found")
	}
	u.Active = active
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*User, int, error) {
	out := make([]*User, 0, len(m.items))
	for _, u := range m.items {
		out = append(out, u)
	}
	return out, len(out), nil
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	if err := svc.Create(ctx, &User{Name: "X", Role: "doctor"}); err == nil {
		t.Error("expected error for missing subject")
	}
	if err := svc.Create(ctx, &User{Subject: "sub-1", Role: "doctor"}); err == nil {
		t.Error("expected error for missing name")
	}
	if err := svc.Create(ctx, &User{Subject: "sub-1", Name: "X", Role: "superuser"}); err == nil {
		t.Error("expected error for invalid role")
	}

	u := &User{Subject: "sub-1", Name: "Dra. Gómez", Role: "doctor"}
	if err := svc.Create(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !u.Active {
		t.Error("new staff users must start active")
	}

	dup := &User{Subject: "sub-1", Name: "Otro", Role: "staff"}
	if err := svc.Create(ctx, dup); err == nil {
		t.Error("expected error for duplicate subject")
	}
}

func TestUpdateKeepsSubject(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	u := &User{Subject: "sub-1", Name: "Dra. Gómez", Role: "doctor"}
	if err := svc.Create(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}

	upd := &User{ID: u.ID, Subject: "sub-hijacked", Name: "Dra. Gómez", Role: "admin", Active: true}
	if err := svc.Update(ctx, upd); err != nil {
		t.Fatalf("update: %v", err)
	}
	if upd.Subject != "sub-1" {
		t.Errorf("subject = %q, want sub-1", upd.Subject)
	}
	if upd.Role != "admin" {
		t.Errorf("role = %q, want admin", upd.Role)
	}
}

func TestRolesFor(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	u := &User{Subject: "sub-1", Name: "Dra. Gómez", Role: "doctor"}
	if err := svc.Create(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}

	if roles := svc.RolesFor(ctx, "sub-1"); len(roles) != 1 || roles[0] != "doctor" {
		t.Errorf("roles = %v, want [doctor]", roles)
	}
	if roles := svc.RolesFor(ctx, "unknown"); roles != nil {
		t.Errorf("roles = %v, want nil for unknown subject", roles)
	}

	if err := svc.Deactivate(ctx, u.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if roles := svc.RolesFor(ctx, "sub-1"); roles != nil {
		t.Errorf("roles = %v, want nil for deactivated user", roles)
	}
}

func TestResolveRolesMiddleware(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	u := &User{Subject: "sub-1", Name: "Dra. Gómez", Role: "doctor"}
	if err := svc.Create(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}

	e := echo.New()
	var got []string
	handler := ResolveRoles(svc)(func(c echo.Context) error {
		got = auth.RolesFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	// Token without roles: the directory fills them in.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), auth.UserIDKey, "sub-1"))
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if len(got) != 1 || got[0] != "doctor" {
		t.Errorf("roles = %v, want [doctor]", got)
	}

	// Token with roles: left alone.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rctx := context.WithValue(req.Context(), auth.UserIDKey, "sub-1")
	rctx = context.WithValue(rctx, auth.UserRolesKey, []string{"staff"})
	req = req.WithContext(rctx)
	rec = httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if len(got) != 1 || got[0] != "staff" {
		t.Errorf("roles = %v, want token roles [staff] untouched", got)
	}
}

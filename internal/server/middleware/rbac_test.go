package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/gosuda/crewhub/internal/domain"
	"github.com/gosuda/crewhub/internal/server/middleware"
)

func withRole(r *http.Request, role domain.Role) *http.Request {
	return setActor(r, domain.Actor{ID: uuid.New(), Role: role})
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		allowed []domain.Role
		role    domain.Role
		want    int
	}{
		{name: "admin allowed for admin-only", allowed: []domain.Role{domain.RoleAdmin}, role: domain.RoleAdmin, want: http.StatusOK},
		{name: "coordinator blocked for admin-only", allowed: []domain.Role{domain.RoleAdmin}, role: domain.RoleCoordinator, want: http.StatusForbidden},
		{name: "coordinator allowed among several", allowed: []domain.Role{domain.RoleAdmin, domain.RoleCoordinator}, role: domain.RoleCoordinator, want: http.StatusOK},
		{name: "viewer blocked among writers", allowed: []domain.Role{domain.RoleAdmin, domain.RoleCoordinator}, role: domain.RoleViewer, want: http.StatusForbidden},
		{name: "empty role is unauthenticated", allowed: []domain.Role{domain.RoleViewer}, role: "", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := middleware.RequireRole(tt.allowed...)(okHandler)
			req := withRole(httptest.NewRequest(http.MethodGet, "/", http.NoBody), tt.role)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequireRole_NoActorInContext_Returns401(t *testing.T) {
	t.Parallel()

	handler := middleware.RequireRole(domain.RoleAdmin)(okHandler)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "authentication required")
}

func TestRequireWriteRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		role   domain.Role
		want   int
	}{
		{name: "viewer reads", method: http.MethodGet, role: domain.RoleViewer, want: http.StatusOK},
		{name: "viewer cannot write", method: http.MethodPost, role: domain.RoleViewer, want: http.StatusForbidden},
		{name: "coordinator writes", method: http.MethodPost, role: domain.RoleCoordinator, want: http.StatusOK},
		{name: "admin deletes", method: http.MethodDelete, role: domain.RoleAdmin, want: http.StatusOK},
		{name: "coordinator puts", method: http.MethodPut, role: domain.RoleCoordinator, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := middleware.RequireWriteRole()(okHandler)
			req := withRole(httptest.NewRequest(tt.method, "/", http.NoBody), tt.role)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

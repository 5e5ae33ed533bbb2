package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evertill/pos-api/internal/common"
)

type stubParser struct {
	identity Identity
	err      error
}

func (s stubParser) ParseAccessToken(string) (Identity, error) {
	return s.identity, s.err
}

func TestRequireAuthAttachesIdentity(t *testing.T) {
	mw := Middleware{Parser: stubParser{identity: Identity{OperatorID: "op-1", Role: RoleOperator}}}

	var gotID, gotRole string
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = common.OperatorID(r.Context())
		gotRole, _ = common.OperatorRole(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "op-1", gotID)
	assert.Equal(t, RoleOperator, gotRole)
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	mw := Middleware{Parser: stubParser{identity: Identity{OperatorID: "op-1"}}}
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthRejectsInvalidToken(t *testing.T) {
	mw := Middleware{Parser: stubParser{err: common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, nil)}}
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	admin := Middleware{Parser: stubParser{identity: Identity{OperatorID: "op-1", Role: RoleAdmin}}}
	operator := Middleware{Parser: stubParser{identity: Identity{OperatorID: "op-2", Role: RoleOperator}}}

	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token")

	rec := httptest.NewRecorder()
	admin.RequireAdmin(http.HandlerFunc(ok)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	operator.RequireAdmin(http.HandlerFunc(ok)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

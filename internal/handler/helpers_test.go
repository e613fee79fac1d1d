package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goldenwok/api/internal/auth"
	"github.com/goldenwok/api/internal/enum"
	"github.com/goldenwok/api/internal/middleware"
	"github.com/google/uuid"
)

// authedRequest builds a request carrying claims, as the Authenticate
// middleware would have attached them.
func authedRequest(method, target string, body interface{}, claims *auth.Claims) *http.Request {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if claims != nil {
		req = req.WithContext(middleware.WithClaims(req.Context(), claims))
	}
	return req
}

func customerClaims(profileID uuid.UUID) *auth.Claims {
	return &auth.Claims{UserID: uuid.New(), ProfileID: profileID, Role: enum.RoleCustomer}
}

func courierClaims(profileID uuid.UUID) *auth.Claims {
	return &auth.Claims{UserID: uuid.New(), ProfileID: profileID, Role: enum.RoleCourier}
}

func chefClaims(profileID uuid.UUID) *auth.Claims {
	return &auth.Claims{UserID: uuid.New(), ProfileID: profileID, Role: enum.RoleChef}
}

func managerClaims() *auth.Claims {
	return &auth.Claims{UserID: uuid.New(), ProfileID: uuid.Nil, Role: enum.RoleManager}
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

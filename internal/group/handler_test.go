package group_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/soulstices/activityhub/internal/group"
	"github.com/soulstices/activityhub/internal/group/join"
	"github.com/soulstices/activityhub/pkg/middleware"
	"github.com/soulstices/activityhub/pkg/response"
)

func doRequest(t *testing.T, h *group.Handler, method, path, body string, asUser int64) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if asUser != 0 {
		req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, asUser))
	}

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) *response.APIResponse {
	t.Helper()
	var resp response.APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
	return &resp
}

func TestJoinEndpoint(t *testing.T) {
	store := newFakeStore()
	seed(store)
	store.addGroup(&group.Group{
		Name:        "Chess Circle",
		JoiningType: join.TypeInviteOnly,
		InviteCode:  strPtr("AB12CD34"),
	})
	store.addGroup(&group.Group{Name: "Morning Runners", JoiningType: join.TypePublic})
	handler := group.NewHandler(newService(store, false))

	t.Run("unauthenticated is rejected", func(t *testing.T) {
		rec := doRequest(t, handler, http.MethodPost, "/2/join", "", 0)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status: got %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("public join succeeds", func(t *testing.T) {
		rec := doRequest(t, handler, http.MethodPost, "/2/join", "", userID)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status: got %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body)
		}
		resp := decodeBody(t, rec)
		if !resp.Success {
			t.Error("expected a success envelope")
		}
	})

	t.Run("repeat join conflicts", func(t *testing.T) {
		rec := doRequest(t, handler, http.MethodPost, "/2/join", "", userID)
		if rec.Code != http.StatusConflict {
			t.Fatalf("status: got %d, want %d", rec.Code, http.StatusConflict)
		}
		resp := decodeBody(t, rec)
		if resp.Error == nil || resp.Error.Code != "DUPLICATE_MEMBERSHIP" {
			t.Errorf("error code: got %v, want DUPLICATE_MEMBERSHIP", resp.Error)
		}
	})

	t.Run("wrong invite code is a bad request", func(t *testing.T) {
		rec := doRequest(t, handler, http.MethodPost, "/1/join", `{"invite_code":"WRONG123"}`, userID)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
		}
		resp := decodeBody(t, rec)
		if resp.Error == nil || resp.Error.Code != "INVALID_INVITE_CODE" {
			t.Errorf("error code: got %v, want INVALID_INVITE_CODE", resp.Error)
		}
	})

	t.Run("correct invite code succeeds", func(t *testing.T) {
		rec := doRequest(t, handler, http.MethodPost, "/1/join", `{"invite_code":"ab12cd34"}`, userID)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status: got %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body)
		}
	})

	t.Run("unknown group is not found", func(t *testing.T) {
		rec := doRequest(t, handler, http.MethodPost, "/404/join", "", userID)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status: got %d, want %d", rec.Code, http.StatusNotFound)
		}
	})
}

func TestGetGroupHidesInviteCode(t *testing.T) {
	store := newFakeStore()
	seed(store)
	g := store.addGroup(&group.Group{
		Name:        "Chess Circle",
		JoiningType: join.TypeInviteOnly,
		InviteCode:  strPtr("AB12CD34"),
	})
	store.admins[[2]int64{g.ID, adminID}] = true
	handler := group.NewHandler(newService(store, false))

	read := func(asUser int64) map[string]interface{} {
		rec := doRequest(t, handler, http.MethodGet, "/1", "", asUser)
		if rec.Code != http.StatusOK {
			t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
		}
		data, ok := decodeBody(t, rec).Data.(map[string]interface{})
		if !ok {
			t.Fatal("expected an object payload")
		}
		return data
	}

	if _, leaked := read(userID)["invite_code"]; leaked {
		t.Error("invite code leaked to a non-admin")
	}
	if _, ok := read(adminID)["invite_code"]; !ok {
		t.Error("admin should see the invite code")
	}
}

func TestApproveEndpoint(t *testing.T) {
	store := newFakeStore()
	seed(store)
	g := store.addGroup(&group.Group{Name: "Book Club", JoiningType: join.TypeScreening})
	store.admins[[2]int64{g.ID, adminID}] = true
	store.memberships[[2]int64{g.ID, userID}] = &group.Membership{
		GroupID: g.ID, UserID: userID, Status: group.MembershipPending,
	}
	handler := group.NewHandler(newService(store, false))

	rec := doRequest(t, handler, http.MethodPost, "/1/requests/3/approve", "", otherID)
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-admin approve: got %d, want %d", rec.Code, http.StatusForbidden)
	}

	rec = doRequest(t, handler, http.MethodPost, "/1/requests/3/approve", "", adminID)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: got %d, want %d: %s", rec.Code, http.StatusOK, rec.Body)
	}

	rec = doRequest(t, handler, http.MethodPost, "/1/requests/3/approve", "", adminID)
	if rec.Code != http.StatusConflict {
		t.Errorf("double approve: got %d, want %d", rec.Code, http.StatusConflict)
	}
	if resp := decodeBody(t, rec); resp.Error == nil || resp.Error.Code != "INVALID_TRANSITION" {
		t.Errorf("error code: got %v, want INVALID_TRANSITION", rec.Body)
	}
}

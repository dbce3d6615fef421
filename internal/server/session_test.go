package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func sessionRequest(cookieName, id string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/verify", nil)
	if id != "" {
		r.AddCookie(&http.Cookie{Name: cookieName, Value: id})
	}
	return r
}

func TestSessionIssueAndIdentify(t *testing.T) {
	a := NewSessionAuth("")

	rr := httptest.NewRecorder()
	id, err := a.Issue(rr, "alice")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if id == "" {
		t.Fatal("empty session id")
	}

	// Issue must set the cookie carrying the opaque id.
	var cookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == defaultSessionCookie {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value != id {
		t.Fatalf("session cookie not set or mismatched")
	}
	if !cookie.HttpOnly {
		t.Errorf("session cookie must be HttpOnly")
	}

	user, err := a.Identify(sessionRequest(defaultSessionCookie, id))
	if err != nil || user != "alice" {
		t.Fatalf("Identify = (%q, %v), want (alice, nil)", user, err)
	}
}

func TestSessionFailuresAreUniform(t *testing.T) {
	a := NewSessionAuth("")

	cases := []struct {
		name string
		req  *http.Request
	}{
		{"no cookie", sessionRequest(defaultSessionCookie, "")},
		{"unknown id", sessionRequest(defaultSessionCookie, "deadbeef")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := a.Identify(tc.req); err != errUnauthenticated {
				t.Errorf("err = %v, want errUnauthenticated", err)
			}
		})
	}
}

func TestSessionLogoutPurgesServerState(t *testing.T) {
	a := NewSessionAuth("")

	id, err := a.Issue(httptest.NewRecorder(), "alice")
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	a.Clear(rr, sessionRequest(defaultSessionCookie, id))

	// The server-side entry is gone: replaying the old id fails even if the
	// client kept the cookie.
	if _, err := a.Identify(sessionRequest(defaultSessionCookie, id)); err != errUnauthenticated {
		t.Fatalf("stale session id still resolves: %v", err)
	}

	// And the response expires the cookie.
	for _, c := range rr.Result().Cookies() {
		if c.Name == defaultSessionCookie && c.MaxAge >= 0 {
			t.Errorf("logout did not expire the cookie")
		}
	}
}

func TestSessionIDsAreUnique(t *testing.T) {
	a := NewSessionAuth("")
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id, err := a.Issue(httptest.NewRecorder(), "alice")
		if err != nil {
			t.Fatal(err)
		}
		if seen[id] {
			t.Fatalf("duplicate session id")
		}
		seen[id] = true
	}
}

package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bdaycal/internal/anilist"
	"bdaycal/internal/birthday"
	"bdaycal/internal/config"
	"bdaycal/internal/store"
)

// fakeSource returns a scripted collection or error for every username.
type fakeSource struct {
	chars birthday.Collection
	err   error
}

func (f *fakeSource) GetOrFetch(ctx context.Context, username string, now time.Time) (birthday.Collection, error) {
	return f.chars, f.err
}

func testCollection(t *testing.T) birthday.Collection {
	t.Helper()
	mk := func(name string, m time.Month, d int) birthday.Character {
		bd, err := birthday.New(m, d)
		if err != nil {
			t.Fatal(err)
		}
		return birthday.Character{Name: name, URL: "https://anilist.co/character/1", Birthday: bd}
	}
	return birthday.Collection{
		mk("Frieren", time.March, 3),
		mk("Fern", time.May, 11),
	}
}

func newTestServer(source CharacterSource) *Server {
	cfg := config.DefaultConfig()
	return NewServer(cfg, source)
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(&fakeSource{})
	rec := get(t, s.Handler(), "/health")

	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestIndex(t *testing.T) {
	s := newTestServer(&fakeSource{})
	rec := get(t, s.Handler(), "/")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "username") {
		t.Error("index page should contain the lookup form")
	}
}

func TestCalendarPage(t *testing.T) {
	s := newTestServer(&fakeSource{chars: testCollection(t)})
	rec := get(t, s.Handler(), "/cal?username=alice")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Birthdays for alice", "Frieren", "Fern", "/ics?username=alice"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestCalendarRequiresUsername(t *testing.T) {
	s := newTestServer(&fakeSource{})

	for _, target := range []string{"/cal", "/cal?username="} {
		if rec := get(t, s.Handler(), target); rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("%s: status = %d, want 422", target, rec.Code)
		}
	}
}

func TestCalendarErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", &anilist.NotFoundError{Username: "alice"}, http.StatusNotFound},
		{"breaker open", store.ErrBreakerOpen, http.StatusServiceUnavailable},
		{"rate limited", anilist.ErrRateLimited, http.StatusInternalServerError},
		{"bad response", anilist.ErrBadResponse, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(&fakeSource{err: tc.err})
			if rec := get(t, s.Handler(), "/cal?username=alice"); rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
		})
	}
}

func TestICSDownload(t *testing.T) {
	s := newTestServer(&fakeSource{chars: testCollection(t)})
	rec := get(t, s.Handler(), "/ics?username=alice")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "birthdays.ics") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.Contains(rec.Body.String(), "BEGIN:VCALENDAR") {
		t.Error("body is not an ICS document")
	}
}

func TestAPIBirthdays(t *testing.T) {
	s := newTestServer(&fakeSource{chars: testCollection(t)})
	rec := get(t, s.Handler(), "/api/birthdays?username=alice")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`"username":"alice"`, `"Frieren"`, `"03-03"`} {
		if !strings.Contains(body, want) {
			t.Errorf("JSON missing %s in %s", want, body)
		}
	}
}

func TestBasicAuth(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "admin", Password: "secret"}
	s := NewServer(cfg, &fakeSource{chars: testCollection(t)})
	h := s.Handler()

	// Unauthenticated requests are rejected.
	if rec := get(t, h, "/cal?username=alice"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	// /health stays open.
	if rec := get(t, h, "/health"); rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}

	// Valid credentials pass.
	req := httptest.NewRequest(http.MethodGet, "/cal?username=alice", nil)
	req.SetBasicAuth("admin", "secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("authed status = %d", rec.Code)
	}
}

package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/spotx/internal/spotify"
)

type fakeCompleter struct {
	calls atomic.Int32
	fn    func(url.Values) (spotify.Credential, error)
}

func (f *fakeCompleter) Complete(_ context.Context, params url.Values) (spotify.Credential, error) {
	f.calls.Add(1)
	return f.fn(params)
}

func csrfError() error {
	return &spotify.Error{Kind: spotify.KindCSRFInvalid, Detail: "callback state does not match"}
}

func serve(h http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestOAuthHandler(t *testing.T) {
	t.Run("Routes", func(t *testing.T) {
		if got := NewOAuthHandler(nil, "").Routes(); len(got) != 1 || got[0] != "/callback" {
			t.Errorf("Routes() = %v", got)
		}
		if got := NewOAuthHandler(nil, "/auth/done").Routes(); got[0] != "/auth/done" {
			t.Errorf("Routes() = %v", got)
		}
	})

	t.Run("Success", func(t *testing.T) {
		completer := &fakeCompleter{fn: func(p url.Values) (spotify.Credential, error) {
			if p.Get("code") != "abc" {
				return spotify.Credential{}, fmt.Errorf("unexpected code %q", p.Get("code"))
			}
			return spotify.Credential{AccessToken: "T1"}, nil
		}}
		h := NewOAuthHandler(completer, "")

		w := serve(h, "/callback?code=abc&state=s1")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), "Authorization Successful") {
			t.Error("expected success page")
		}

		result := <-h.Result()
		if result.Error() != nil || result.Credential.AccessToken != "T1" {
			t.Errorf("unexpected result %+v", result)
		}
	})

	t.Run("Forged Callback Does Not Consume Handler", func(t *testing.T) {
		completer := &fakeCompleter{fn: func(p url.Values) (spotify.Credential, error) {
			if p.Get("state") != "good" {
				return spotify.Credential{}, csrfError()
			}
			return spotify.Credential{AccessToken: "T1"}, nil
		}}
		h := NewOAuthHandler(completer, "")

		if w := serve(h, "/callback?code=x&state=evil"); w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for forged state, got %d", w.Code)
		}

		select {
		case r := <-h.Result():
			t.Fatalf("forged callback must not produce a result, got %+v", r)
		default:
		}

		if w := serve(h, "/callback?code=x&state=good"); w.Code != http.StatusOK {
			t.Fatalf("expected 200 for genuine callback, got %d", w.Code)
		}
		if r := <-h.Result(); r.Credential.AccessToken != "T1" {
			t.Errorf("unexpected result %+v", r)
		}
	})

	t.Run("Authorization Failure", func(t *testing.T) {
		completer := &fakeCompleter{fn: func(url.Values) (spotify.Credential, error) {
			return spotify.Credential{}, &spotify.Error{Kind: spotify.KindAuth, Detail: "access_denied"}
		}}
		h := NewOAuthHandler(completer, "")

		if w := serve(h, "/callback?error=access_denied&state=s1"); w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}

		result := <-h.Result()
		if kind, ok := spotify.KindOf(result.Error()); !ok || kind != spotify.KindAuth {
			t.Errorf("expected AuthError, got %v", result.Error())
		}
	})

	t.Run("Second Callback Rejected", func(t *testing.T) {
		completer := &fakeCompleter{fn: func(url.Values) (spotify.Credential, error) {
			return spotify.Credential{AccessToken: "T1"}, nil
		}}
		h := NewOAuthHandler(completer, "")

		serve(h, "/callback?code=a&state=s")
		if w := serve(h, "/callback?code=b&state=s"); w.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for replayed callback, got %d", w.Code)
		}
		if completer.calls.Load() != 1 {
			t.Errorf("expected one completion, got %d", completer.calls.Load())
		}
	})
}

func TestOAuthHandlerWithFlow(t *testing.T) {
	tokens := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"access-1","token_type":"Bearer","expires_in":3600,"refresh_token":"refresh-1"}`)
	}))
	defer tokens.Close()

	store := spotify.NewStore(spotify.NewMemoryPersister())
	flow, err := spotify.NewFlow(spotify.AuthorizationCodePKCE,
		spotify.ClientIdentity{ClientID: "cid", RedirectURI: "http://127.0.0.1/callback"},
		store,
		spotify.WithEndpoints(spotify.Endpoints{AuthURL: tokens.URL + "/authorize", TokenURL: tokens.URL + "/token"}),
	)
	if err != nil {
		t.Fatalf("NewFlow() error = %v", err)
	}

	authURL, err := flow.Initiate(context.Background(), "user-read-email")
	if err != nil {
		t.Fatalf("Initiate() error = %v", err)
	}
	parsed, _ := url.Parse(authURL)
	state := parsed.Query().Get("state")

	router := NewBasicRouter()
	handler := NewOAuthHandler(flow, "")
	router.Handler(handler)

	if w := serve(router, "/callback?code=c&state=forged"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for forged state, got %d", w.Code)
	}
	if _, ok := store.Pending(); !ok {
		t.Fatal("forged callback must keep the pending authorization")
	}

	if w := serve(router, "/callback?code=c&state="+url.QueryEscape(state)); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	select {
	case result := <-handler.Result():
		if result.Error() != nil {
			t.Fatalf("unexpected error %v", result.Error())
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for result")
	}

	if cred, ok := store.Get(); !ok || cred.AccessToken != "access-1" {
		t.Errorf("store holds %+v", cred)
	}
}

func TestCallbackServer(t *testing.T) {
	completer := &fakeCompleter{fn: func(url.Values) (spotify.Credential, error) {
		return spotify.Credential{AccessToken: "T1"}, nil
	}}
	handler := NewOAuthHandler(completer, "")
	router := NewBasicRouter()
	router.Handler(handler)

	srv, err := Listen("127.0.0.1:0", router)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer srv.Shutdown(context.Background())

	resp, err := http.Get("http://" + srv.Addr() + "/callback?code=a&state=s")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if r := <-handler.Result(); r.Credential.AccessToken != "T1" {
		t.Errorf("unexpected result %+v", r)
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

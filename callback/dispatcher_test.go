package callback

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-interactions/core"
	"github.com/goliatone/go-interactions/transport"
)

func TestDispatcher_PostsChannelMessageOnce(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/api/v10/interactions/42/tok-en/callback" {
			t.Errorf("unexpected callback path %q", r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("expected json content type, got %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"type":4,"data":{"content":"hello"}}` {
			t.Errorf("unexpected callback body %s", body)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	dispatcher := NewDispatcher(server.URL+"/api/v10/", transport.NewRESTAdapter(server.Client()), time.Second)
	if err := dispatcher.Dispatch(context.Background(), "42", "tok-en", core.NewChannelMessage("hello")); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one POST, got %d", calls.Load())
	}
}

func TestDispatcher_NonSuccessIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"nope"}`))
	}))
	defer server.Close()

	dispatcher := NewDispatcher(server.URL, transport.NewRESTAdapter(server.Client()), time.Second)
	err := dispatcher.Dispatch(context.Background(), "42", "secret-token", core.NewChannelMessage("x"))
	if err == nil {
		t.Fatalf("expected dispatch error for 500")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected exactly one attempt, got %d", calls.Load())
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.TextCode != core.ErrorPostCallback || rich.Category != goerrors.CategoryExternal {
		t.Fatalf("expected external post_callback error, got %q %q", rich.Category, rich.TextCode)
	}
	if rich.Metadata["status_code"] != http.StatusInternalServerError {
		t.Fatalf("expected status metadata, got %#v", rich.Metadata["status_code"])
	}
	if strings.Contains(err.Error(), "secret-token") {
		t.Fatalf("expected token to stay out of the error, got %v", err)
	}
}

func TestDispatcher_TransportFailureIsPostCallbackError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := server.URL
	server.Close()

	dispatcher := NewDispatcher(base, transport.NewRESTAdapter(&http.Client{Timeout: time.Second}), time.Second)
	err := dispatcher.Dispatch(context.Background(), "42", "secret-token", core.NewChannelMessage("x"))
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.TextCode != core.ErrorPostCallback {
		t.Fatalf("expected post_callback error, got %v", err)
	}
	if strings.Contains(err.Error(), "secret-token") {
		t.Fatalf("expected token to stay out of the error, got %v", err)
	}
}

func TestDispatcher_EscapesPathSegments(t *testing.T) {
	dispatcher := NewDispatcher("", nil, 0)
	got := dispatcher.CallbackURL("1/2", "a b")
	want := core.DefaultCallbackBaseURL + "/interactions/1%2F2/a%20b/callback"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestDispatcher_RequiresIDAndToken(t *testing.T) {
	dispatcher := NewDispatcher("https://example.com", transport.NewRESTAdapter(nil), 0)
	if err := dispatcher.Dispatch(context.Background(), "", "t", core.NewChannelMessage("x")); err == nil {
		t.Fatalf("expected missing id error")
	}
	if err := dispatcher.Dispatch(context.Background(), "1", "", core.NewChannelMessage("x")); err == nil {
		t.Fatalf("expected missing token error")
	}
}

func TestCallbackMessageShape(t *testing.T) {
	encoded, err := json.Marshal(core.NewChannelMessage(""))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(encoded) != `{"type":4,"data":{"content":""}}` {
		t.Fatalf("unexpected shape %s", encoded)
	}
}

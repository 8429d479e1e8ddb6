package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreAnyFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreAnyFunction("net/http.(*persistConn).writeLoop"),
	)
}

func newTestOllama(t *testing.T, h http.HandlerFunc) *Ollama {
	t.Helper()
	srv := httptest.NewServer(h)
	o := NewOllama(Config{BaseURL: srv.URL + "/", Model: "test-model", Timeout: 5 * time.Second}, nil)
	t.Cleanup(func() {
		o.Close()
		srv.Close()
	})
	return o
}

func TestNewOllama_Defaults(t *testing.T) {
	o := NewOllama(Config{}, nil)
	defer o.Close()

	assert.Equal(t, DefaultBaseURL, o.baseURL)
	assert.Equal(t, DefaultModel, o.model)
	assert.Equal(t, DefaultTimeout, o.client.Timeout)
	assert.Equal(t, "ollama:mistral:instruct", o.Name())
}

func TestChat_SendsConversation(t *testing.T) {
	var got chatRequest
	o := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"Use a stud finder."}}`))
	})

	reply, err := o.Chat(context.Background(), []Message{
		{Role: RoleSystem, Content: "You are DIY Bot."},
		{Role: RoleUser, Content: "How do I hang a shelf?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Use a stud finder.", reply)

	assert.Equal(t, "test-model", got.Model)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, RoleUser, got.Messages[1].Role)
}

func TestComplete_ReadsResponseField(t *testing.T) {
	var got generateRequest
	o := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"response":"{\"steps\":[]}","done":true}`))
	})

	out, err := o.Complete(context.Background(), "plan it")
	require.NoError(t, err)
	assert.Equal(t, `{"steps":[]}`, out)
	assert.Equal(t, "plan it", got.Prompt)
}

func TestUpstreamError_Non2xx(t *testing.T) {
	o := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	})

	_, err := o.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "chat", ue.Op)
	assert.Equal(t, http.StatusNotFound, ue.StatusCode)
	assert.Contains(t, ue.Error(), "model not found")
}

func TestUpstreamError_BadJSON(t *testing.T) {
	o := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := o.Complete(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestUpstreamError_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	o := NewOllama(Config{BaseURL: url, Timeout: time.Second}, nil)
	defer o.Close()

	_, err := o.Complete(context.Background(), "x")
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Zero(t, ue.StatusCode)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestChat_ContextCanceled(t *testing.T) {
	o := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Chat(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestUpstreamError_Messages(t *testing.T) {
	tests := []struct {
		err  *UpstreamError
		want string
	}{
		{&UpstreamError{Op: "chat", StatusCode: 500}, "chat: status 500"},
		{&UpstreamError{Op: "chat", Err: errors.New("refused")}, "chat: refused"},
		{&UpstreamError{Op: "complete", StatusCode: 502, Err: errors.New("bad gateway")}, "complete: status 502: bad gateway"},
		{&UpstreamError{Op: "chat"}, "chat: upstream failure"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}
}

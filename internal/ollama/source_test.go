// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/streamchat/internal/model"
	"github.com/jeranaias/streamchat/internal/session"
)

// chatServer answers /api/chat with one NDJSON line per fragment.
func chatServer(t *testing.T, fragments []string, got *api.ChatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			fmt.Fprint(w, "Ollama is running")
			return
		case "/api/chat":
		default:
			http.NotFound(w, r)
			return
		}

		if got != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}

		w.Header().Set("Content-Type", "application/x-ndjson")
		enc := json.NewEncoder(w)
		for _, f := range fragments {
			_ = enc.Encode(api.ChatResponse{
				Model:   "test",
				Message: api.Message{Role: "assistant", Content: f},
			})
			w.(http.Flusher).Flush()
		}
		_ = enc.Encode(api.ChatResponse{Model: "test", Done: true})
	}))
}

func collect(t *testing.T, src *Source, req session.Request) ([]string, error) {
	t.Helper()
	var out []string
	for f, err := range src.Stream(context.Background(), req) {
		if err != nil {
			return out, err
		}
		out = append(out, f)
	}
	return out, nil
}

func TestStream_YieldsFragmentsInOrder(t *testing.T) {
	var got api.ChatRequest
	srv := chatServer(t, []string{"He", "llo"}, &got)
	defer srv.Close()

	src, err := New(Config{URL: srv.URL, Model: "llama3.2", SystemInstruction: "be brief"})
	require.NoError(t, err)

	frags, err := collect(t, src, session.Request{
		Prompt: "hi",
		History: []model.Message{
			{Role: model.RoleUser, Text: "earlier"},
			{Role: model.RoleAssistant, Text: "reply"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"He", "llo"}, frags)

	assert.Equal(t, "llama3.2", got.Model)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "be brief", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "assistant", got.Messages[2].Role)
	assert.Equal(t, "hi", got.Messages[3].Content)
	require.NotNil(t, got.Stream)
	assert.True(t, *got.Stream)
}

func TestStream_ModelNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintln(w, `{"error":"model \"nope\" not found, try pulling it first"}`)
	}))
	defer srv.Close()

	src, err := New(Config{URL: srv.URL, Model: "nope"})
	require.NoError(t, err)

	_, err = collect(t, src, session.Request{Prompt: "hi"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrModelNotFound), "got %v", err)
}

func TestStream_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintln(w, `{}`)
	}))
	defer srv.Close()

	src, err := New(Config{URL: srv.URL})
	require.NoError(t, err)

	_, err = collect(t, src, session.Request{Prompt: "hi"})
	var cerr *ClientError
	require.True(t, errors.As(err, &cerr), "got %v", err)
	assert.Equal(t, ErrTypeServer, cerr.Type)
}

func TestStream_StopsWhenConsumerBreaks(t *testing.T) {
	srv := chatServer(t, []string{"a", "b", "c", "d"}, nil)
	defer srv.Close()

	src, err := New(Config{URL: srv.URL})
	require.NoError(t, err)

	var got []string
	for f, err := range src.Stream(context.Background(), session.Request{Prompt: "hi"}) {
		require.NoError(t, err)
		got = append(got, f)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestCheckRunning(t *testing.T) {
	srv := chatServer(t, nil, nil)
	src, err := New(Config{URL: srv.URL})
	require.NoError(t, err)
	assert.NoError(t, src.CheckRunning(context.Background()))

	srv.Close()
	err = src.CheckRunning(context.Background())
	assert.True(t, errors.Is(err, ErrNotRunning), "got %v", err)
}

func TestNew_Defaults(t *testing.T) {
	src, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, src.Model())

	_, err = New(Config{URL: "localhost"})
	assert.Error(t, err)
}

func TestClientError_Message(t *testing.T) {
	err := &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: errors.New("deadline")}
	assert.True(t, strings.HasSuffix(err.Error(), ": deadline"))
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.False(t, errors.Is(err, ErrNotRunning))
}

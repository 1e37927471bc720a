package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogmaresca/azdo-management/pkg/azuredevops"
	"github.com/ogmaresca/azdo-management/pkg/commands"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   []byte
}

func runTestApp(t *testing.T, arguments ...string) (*bytes.Buffer, []recordedRequest, error) {
	var requests []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := &bytes.Buffer{}
		_, _ = body.ReadFrom(r.Body)
		requests = append(requests, recordedRequest{Method: r.Method, Path: r.URL.EscapedPath(), Body: body.Bytes()})

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.EscapedPath() {
		case "/myorg/_apis/projects/h":
			_, _ = w.Write([]byte(`{"id":"p-1","name":"h"}`))
		case "/myorg/p-1/_apis/wit/workitems/42/comments":
			_, _ = w.Write([]byte(`{"id":9,"workItemId":42}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	out := &bytes.Buffer{}
	env := commands.NewEnvironment(context.Background())
	env.Out = out
	app := makeApp(env, azuredevops.WithHosts(server.URL, server.URL+"/vssps", server.URL+"/vsrm"))

	err := app.Run(append([]string{"azdo-management"}, arguments...))
	return out, requests, err
}

func TestProjectNamedLikeHelp(t *testing.T) {
	out, requests, err := runTestApp(t, "--organization", "myorg", "--token", "azdtoken", "projects", "get", "h")
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, "/myorg/_apis/projects/h", requests[0].Path)

	project := azuredevops.Project{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &project))
	assert.Equal(t, "p-1", project.ID)
}

func TestCommentTextLikeHelp(t *testing.T) {
	_, requests, err := runTestApp(t, "--organization", "myorg", "--token", "azdtoken",
		"workitem", "comment", "--text", "help", "--mention-id", "d6245f20", "--mention-name", "Jane Doe", "p-1", "42")
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, http.MethodPost, requests[0].Method)
	assert.Contains(t, string(requests[0].Body), "nbsp;help")
}

func TestHelpWithoutConfiguration(t *testing.T) {
	for _, arguments := range [][]string{
		{},
		{"--help"},
		{"help"},
		{"projects"},
		{"projects", "get", "--help"},
		{"workitem", "comment", "-h"},
	} {
		out, requests, err := runTestApp(t, arguments...)
		assert.NoError(t, err, "%v", arguments)
		assert.Empty(t, requests, "%v", arguments)
		assert.NotEmpty(t, out.String(), "%v", arguments)
	}
}

func TestCommandWithoutConfiguration(t *testing.T) {
	_, requests, err := runTestApp(t, "projects", "get", "h")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "organization is required")
	assert.Empty(t, requests)
}

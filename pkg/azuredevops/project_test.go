package azuredevops

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListProjects(t *testing.T) {
	fake := newFakeAzureDevops(t)
	fake.handle(http.MethodGet, "/myorg/_apis/projects", http.StatusOK,
		`{"count":2,"value":[{"id":"p-1","name":"One","state":"wellFormed"},{"id":"p-2","name":"Two","state":"wellFormed"}]}`)

	requests := requestCounter.WithLabelValues(http.MethodGet, projectsRoute, "200")
	before := testutil.ToFloat64(requests)

	projects, err := fake.client().ListProjects(context.Background(), testToken)
	require.NoError(t, err)
	assert.Equal(t, 2, projects.Count)
	require.Len(t, projects.Value, 2)
	assert.Equal(t, "p-1", projects.Value[0].ID)
	assert.Equal(t, "Two", projects.Value[1].Name)

	received := fake.received(http.MethodGet)
	require.Len(t, received, 1)
	assert.Equal(t, "api-version=6.0", received[0].RawQuery)
	assert.Equal(t, "Bearer "+testToken, received[0].Header.Get("Authorization"))
	assert.Equal(t, jsonContentType, received[0].Header.Get("Accept"))

	assert.Equal(t, before+1, testutil.ToFloat64(requests))
}

func TestGetProject(t *testing.T) {
	fake := newFakeAzureDevops(t)
	fake.handle(http.MethodGet, "/myorg/_apis/projects/My%20Project", http.StatusOK,
		`{"id":"p-1","name":"My Project","state":"wellFormed","visibility":"private","revision":12}`)

	project, err := fake.client().GetProject(context.Background(), testToken, "My Project")
	require.NoError(t, err)
	assert.Equal(t, "p-1", project.ID)
	assert.Equal(t, "My Project", project.Name)
	assert.Equal(t, 12, project.Revision)
}

func TestGetProjectWithAPIVersion(t *testing.T) {
	fake := newFakeAzureDevops(t)
	fake.handle(http.MethodGet, "/myorg/_apis/projects/p", http.StatusOK, `{"id":"p-1","name":"p"}`)

	client, err := MakeClient(testOrganization, WithHosts(fake.server.URL, "", ""), WithAPIVersion("7.1"))
	require.NoError(t, err)

	_, err = client.GetProject(context.Background(), testToken, "p")
	require.NoError(t, err)
	assert.Equal(t, "api-version=7.1", fake.received(http.MethodGet)[0].RawQuery)
}

func TestCreateProject(t *testing.T) {
	fake := newFakeAzureDevops(t)
	fake.handle(http.MethodPost, "/myorg/_apis/projects", http.StatusAccepted, `{"id":"abc-123","status":"notSet","url":"https://dev.azure.com/myorg/_apis/operations/abc-123"}`)

	operationID, err := fake.client().CreateProject(context.Background(), testToken, ProjectDescriptor{
		Name:              "New Project",
		Description:       "Created by a test",
		ProcessTemplateID: "6b724908-ef14-45cf-84f8-768b5384da45",
	})
	require.NoError(t, err)
	assert.Equal(t, "abc-123", operationID)

	received := fake.received(http.MethodPost)
	require.Len(t, received, 1)
	assert.Equal(t, "api-version=6.0", received[0].RawQuery)
	assert.Equal(t, jsonContentType, received[0].Header.Get("Content-Type"))
	assert.JSONEq(t, `{
		"name": "New Project",
		"description": "Created by a test",
		"visibility": "private",
		"capabilities": {
			"versioncontrol": {"sourceControlType": "Git"},
			"processTemplate": {"templateTypeId": "6b724908-ef14-45cf-84f8-768b5384da45"}
		}
	}`, string(received[0].Body))
}

func TestCreateProjectVisibility(t *testing.T) {
	fake := newFakeAzureDevops(t)
	fake.handle(http.MethodPost, "/myorg/_apis/projects", http.StatusAccepted, `{"id":"abc-123"}`)

	_, err := fake.client().CreateProject(context.Background(), testToken, ProjectDescriptor{Name: "Public", Visibility: VisibilityPublic})
	require.NoError(t, err)

	payload := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(fake.received(http.MethodPost)[0].Body, &payload))
	assert.Equal(t, VisibilityPublic, payload["visibility"])
}

func TestCreateProjectRejected(t *testing.T) {
	fake := newFakeAzureDevops(t)
	fake.handle(http.MethodPost, "/myorg/_apis/projects", http.StatusBadRequest,
		`{"message":"TF200019: The following project already exists on the Azure DevOps Server: Existing.","typeKey":"ProjectAlreadyExistsException"}`)

	operationID, err := fake.client().CreateProject(context.Background(), testToken, ProjectDescriptor{Name: "Existing"})
	require.Error(t, err)
	assert.Empty(t, operationID)
	assert.True(t, errors.Is(err, ErrProjectCreationFailed))
	assert.Contains(t, err.Error(), "TF200019")
}

func TestCreateProjectInvalidResponse(t *testing.T) {
	fake := newFakeAzureDevops(t)
	fake.handle(http.MethodPost, "/myorg/_apis/projects", http.StatusOK, `not json`)

	operationID, err := fake.client().CreateProject(context.Background(), testToken, ProjectDescriptor{Name: "New"})
	require.Error(t, err)
	assert.Empty(t, operationID)
	assert.False(t, errors.Is(err, ErrProjectCreationFailed))
}

func TestCreateProjectMissingID(t *testing.T) {
	fake := newFakeAzureDevops(t)
	fake.handle(http.MethodPost, "/myorg/_apis/projects", http.StatusAccepted, `{"status":"notSet"}`)

	operationID, err := fake.client().CreateProject(context.Background(), testToken, ProjectDescriptor{Name: "New"})
	assert.Empty(t, operationID)
	assert.True(t, errors.Is(err, ErrMissingField))
}

func TestCreateProjectTwice(t *testing.T) {
	fake := newFakeAzureDevops(t)
	fake.handle(http.MethodPost, "/myorg/_apis/projects", http.StatusAccepted, `{"id":"abc-123"}`)
	client := fake.client()

	for i := 0; i < 2; i++ {
		_, err := client.CreateProject(context.Background(), testToken, ProjectDescriptor{Name: "Same"})
		require.NoError(t, err)
	}
	assert.Len(t, fake.received(http.MethodPost), 2)
}

func TestRequestWithoutResponse(t *testing.T) {
	client, err := MakeClient(testOrganization, WithHosts("http://127.0.0.1:0", "", ""))
	require.NoError(t, err)

	requests := requestCounter.WithLabelValues(http.MethodGet, projectsRoute, "error")
	before := testutil.ToFloat64(requests)

	_, err = client.ListProjects(context.Background(), testToken)
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
	assert.Equal(t, before+1, testutil.ToFloat64(requests))
}

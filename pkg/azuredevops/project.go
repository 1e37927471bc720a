package azuredevops

import (
	"context"
	"net/http"
	"time"

	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/ogmaresca/azdo-management/pkg/logging"
)

const (
	projectsRoute = "/_apis/projects"
	projectRoute  = "/_apis/projects/{project}"

	// VisibilityPrivate is the default visibility of created projects
	VisibilityPrivate = "private"
	// VisibilityPublic makes a project visible to anonymous users
	VisibilityPublic = "public"
)

// Project represents an Azure Devops project.
// curl -H 'Authorization: Bearer token' https://dev.azure.com/organization/_apis/projects/myproject?api-version=6.0
type Project struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	URL            string    `json:"url"`
	State          string    `json:"state"`
	Revision       int       `json:"revision"`
	Visibility     string    `json:"visibility"`
	LastUpdateTime time.Time `json:"lastUpdateTime"`
}

// ProjectList is the response received when listing projects.
type ProjectList struct {
	Count int       `json:"count"`
	Value []Project `json:"value"`
}

// ProjectDescriptor holds the settings of a project to create
type ProjectDescriptor struct {
	Name              string
	Description       string
	ProcessTemplateID string
	// Visibility defaults to VisibilityPrivate
	Visibility string
}

type createProjectRequest struct {
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	Visibility   string              `json:"visibility"`
	Capabilities projectCapabilities `json:"capabilities"`
}

type projectCapabilities struct {
	VersionControl  versionControlCapability  `json:"versioncontrol"`
	ProcessTemplate processTemplateCapability `json:"processTemplate"`
}

type versionControlCapability struct {
	SourceControlType string `json:"sourceControlType"`
}

type processTemplateCapability struct {
	TemplateTypeID string `json:"templateTypeId"`
}

// createProjectResponse is the operation reference returned when queueing a project creation
type createProjectResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	URL    string `json:"url"`
}

// ListProjects retrieves the projects of the organization
func (c ClientImpl) ListProjects(ctx context.Context, token string) (*ProjectList, error) {
	response := new(ProjectList)
	endpoint := c.devOpsURL().path("_apis/projects").apiVersion(c.apiVersion)
	err := c.executeJSON(ctx, request{method: http.MethodGet, route: projectsRoute, endpoint: endpoint, token: token}, response)
	if err != nil {
		return nil, err
	}
	return response, nil
}

// GetProject retrieves a project by name or ID
func (c ClientImpl) GetProject(ctx context.Context, token string, projectName string) (*Project, error) {
	response := new(Project)
	endpoint := c.devOpsURL().path("_apis/projects").segment(projectName).apiVersion(c.apiVersion)
	err := c.executeJSON(ctx, request{method: http.MethodGet, route: projectRoute, endpoint: endpoint, token: token}, response)
	if err != nil {
		return nil, err
	}
	logging.Logger.WithFields(log.Fields{"project": response.Name, "id": response.ID, "state": response.State}).Debug("Retrieved project")
	return response, nil
}

// CreateProject queues the creation of a Git project and returns the ID of the operation creating it.
// A second call with the same descriptor queues a second creation.
func (c ClientImpl) CreateProject(ctx context.Context, token string, project ProjectDescriptor) (string, error) {
	payload := createProjectRequest{}
	if err := copier.Copy(&payload, &project); err != nil {
		return "", errors.Wrap(err, "could not build the project creation request")
	}
	if payload.Visibility == "" {
		payload.Visibility = VisibilityPrivate
	}
	payload.Capabilities.VersionControl.SourceControlType = "Git"
	payload.Capabilities.ProcessTemplate.TemplateTypeID = project.ProcessTemplateID

	endpoint := c.devOpsURL().path("_apis/projects").apiVersion(c.apiVersion)
	req, err := jsonRequest(http.MethodPost, projectsRoute, endpoint, token, payload)
	if err != nil {
		return "", err
	}

	httpResponse, body, err := c.execute(ctx, req)
	if err != nil {
		return "", err
	}

	if !isSuccess(httpResponse.StatusCode) {
		logger := logging.Logger.WithFields(log.Fields{
			"statusCode":      httpResponse.StatusCode,
			"project":         payload.Name,
			"processTemplate": payload.Capabilities.ProcessTemplate.TemplateTypeID,
			"visibility":      payload.Visibility,
		})
		logger.Error("Project creation request was rejected")
		logger.Errorf("Response body: %s", string(body))
		return "", errors.Wrapf(ErrProjectCreationFailed, "project %s: %s", payload.Name, NewHTTPError(httpResponse, body).Error())
	}

	response := new(createProjectResponse)
	if err := unmarshal(body, response); err != nil {
		logging.Logger.WithError(err).Errorf("Cannot parse the project creation response: %s", string(body))
		return "", errors.Wrap(err, "could not parse the project creation response")
	}
	if response.ID == "" {
		logging.Logger.Errorf("The project creation response has no operation ID: %s", string(body))
		return "", errors.Wrap(ErrMissingField, "id")
	}

	logging.Logger.Infof("Queued creation of project %s with operation %s", payload.Name, response.ID)
	return response.ID, nil
}

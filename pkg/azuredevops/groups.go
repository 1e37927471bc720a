package azuredevops

import (
	"context"
	_ "embed"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/ogmaresca/azdo-management/pkg/logging"
)

const (
	serviceEndpointsRoute = "/_apis/serviceendpoint/endpoints"
	serviceEndpointRoute  = "/_apis/serviceendpoint/endpoints/{endpointId}"
	deploymentGroupsRoute = "/{project}/_apis/distributedtask/deploymentgroups"
	deploymentGroupRoute  = "/{project}/_apis/distributedtask/deploymentgroups/{deploymentGroupId}"
	releaseDefsRoute      = "/{project}/_apis/Release/definitions"
	releaseDefRoute       = "/{project}/_apis/Release/definitions/{definitionId}"

	createServiceEndpointAPIVersion = "6.0-preview.4"
	deleteServiceEndpointAPIVersion = "6.1-preview.4"
	createDeploymentGroupAPIVersion = "6.0-preview.1"
	deleteDeploymentGroupAPIVersion = "6.1-preview.1"
	createReleaseDefAPIVersion      = "6.0-preview.4"
	deleteReleaseDefAPIVersion      = "6.1-preview.4"

	disposableResourceName = "DeleteMe"
)

// AdminGroup is an administrators group Azure Devops only provisions when the first resource of its kind is created
type AdminGroup string

const (
	// EndpointAdministrators is provisioned by the first service endpoint of a project
	EndpointAdministrators AdminGroup = "Endpoint Administrators"
	// DeploymentGroupAdministrators is provisioned by the first deployment group of a project
	DeploymentGroupAdministrators AdminGroup = "Deployment Group Administrators"
	// ReleaseAdministrators is provisioned by the first release definition of a project
	ReleaseAdministrators AdminGroup = "Release Administrators"
)

// AdminGroups lists every group that can be triggered
var AdminGroups = []AdminGroup{EndpointAdministrators, DeploymentGroupAdministrators, ReleaseAdministrators}

// releaseDefinitionTemplate is an empty single stage release definition.
// The stage has no owner, see WithReleaseOwner.
//go:embed releasedefinition.json
var releaseDefinitionTemplate string

type serviceEndpointRequest struct {
	Authorization                    serviceEndpointAuthorization      `json:"authorization"`
	Name                             string                            `json:"name"`
	ServiceEndpointProjectReferences []serviceEndpointProjectReference `json:"serviceEndpointProjectReferences"`
	Type                             string                            `json:"type"`
	URL                              string                            `json:"url"`
	IsShared                         bool                              `json:"isShared"`
	Owner                            string                            `json:"owner"`
}

type serviceEndpointAuthorization struct {
	Scheme     string            `json:"scheme"`
	Parameters map[string]string `json:"parameters"`
}

type serviceEndpointProjectReference struct {
	Name             string           `json:"name"`
	ProjectReference projectReference `json:"projectReference"`
}

type projectReference struct {
	ID string `json:"id"`
}

type deploymentGroupRequest struct {
	Name   string `json:"name"`
	PoolID int    `json:"poolId"`
}

type stringIDResponse struct {
	ID string `json:"id"`
}

type intIDResponse struct {
	ID *int `json:"id"`
}

// TriggerEndpointAdminGroupCreation creates and deletes a service endpoint so that the project gets its Endpoint Administrators group
func (c ClientImpl) TriggerEndpointAdminGroupCreation(ctx context.Context, token string, projectID string) error {
	payload := serviceEndpointRequest{
		Authorization: serviceEndpointAuthorization{
			Scheme:     "UsernamePassword",
			Parameters: map[string]string{"username": "", "password": ""},
		},
		Name: "donotuse",
		ServiceEndpointProjectReferences: []serviceEndpointProjectReference{{
			Name:             "dummyServiceConnection",
			ProjectReference: projectReference{ID: projectID},
		}},
		Type:     "generic",
		URL:      "https://bing.com",
		IsShared: false,
		Owner:    "library",
	}

	endpoint := c.devOpsURL().path("_apis/serviceendpoint/endpoints").apiVersion(createServiceEndpointAPIVersion)
	req, err := jsonRequest(http.MethodPost, serviceEndpointsRoute, endpoint, token, payload)
	if err != nil {
		return err
	}

	response := new(stringIDResponse)
	if err := c.createDisposable(ctx, EndpointAdministrators, req, response); err != nil {
		return err
	}
	if response.ID == "" {
		return errors.Wrapf(ErrMissingField, "service endpoint id for %s", EndpointAdministrators)
	}

	c.deleteDisposable(ctx, EndpointAdministrators, request{
		method: http.MethodDelete,
		route:  serviceEndpointRoute,
		endpoint: c.devOpsURL().
			path("_apis/serviceendpoint/endpoints").
			segment(response.ID).
			param("projectIds", projectID).
			apiVersion(deleteServiceEndpointAPIVersion),
		token: token,
	})
	return nil
}

// TriggerDeploymentGroupAdminGroupCreation creates and deletes a deployment group so that the project gets its Deployment Group Administrators group
func (c ClientImpl) TriggerDeploymentGroupAdminGroupCreation(ctx context.Context, token string, projectID string) error {
	endpoint := c.devOpsURL().
		segment(projectID).
		path("_apis/distributedtask/deploymentgroups").
		apiVersion(createDeploymentGroupAPIVersion)
	req, err := jsonRequest(http.MethodPost, deploymentGroupsRoute, endpoint, token, deploymentGroupRequest{Name: disposableResourceName, PoolID: 0})
	if err != nil {
		return err
	}

	response := new(intIDResponse)
	if err := c.createDisposable(ctx, DeploymentGroupAdministrators, req, response); err != nil {
		return err
	}
	if response.ID == nil {
		return errors.Wrapf(ErrMissingField, "deployment group id for %s", DeploymentGroupAdministrators)
	}

	c.deleteDisposable(ctx, DeploymentGroupAdministrators, request{
		method: http.MethodDelete,
		route:  deploymentGroupRoute,
		endpoint: c.devOpsURL().
			segment(projectID).
			path("_apis/distributedtask/deploymentgroups").
			segment(strconv.Itoa(*response.ID)).
			apiVersion(deleteDeploymentGroupAPIVersion),
		token: token,
	})
	return nil
}

// TriggerReleaseAdminGroupCreation creates and deletes a release definition so that the project gets its Release Administrators group
func (c ClientImpl) TriggerReleaseAdminGroupCreation(ctx context.Context, token string, projectName string) error {
	body, err := c.releaseDefinition()
	if err != nil {
		return err
	}
	req := request{
		method: http.MethodPost,
		route:  releaseDefsRoute,
		endpoint: c.releaseURL().
			segment(projectName).
			path("_apis/Release/definitions").
			apiVersion(createReleaseDefAPIVersion),
		token:       token,
		body:        body,
		contentType: jsonContentType,
	}

	response := new(intIDResponse)
	if err := c.createDisposable(ctx, ReleaseAdministrators, req, response); err != nil {
		return err
	}
	if response.ID == nil {
		return errors.Wrapf(ErrMissingField, "release definition id for %s", ReleaseAdministrators)
	}

	c.deleteDisposable(ctx, ReleaseAdministrators, request{
		method: http.MethodDelete,
		route:  releaseDefRoute,
		endpoint: c.releaseURL().
			segment(projectName).
			path("_apis/Release/definitions").
			segment(strconv.Itoa(*response.ID)).
			apiVersion(deleteReleaseDefAPIVersion),
		token:       token,
		contentType: jsonContentType,
	})
	return nil
}

// releaseDefinition returns the release definition template, with the owner of every stage set if configured
func (c ClientImpl) releaseDefinition() ([]byte, error) {
	if c.releaseOwnerID == "" {
		return []byte(releaseDefinitionTemplate), nil
	}

	definition := map[string]interface{}{}
	if err := unmarshal([]byte(releaseDefinitionTemplate), &definition); err != nil {
		return nil, errors.Wrap(err, "could not parse the release definition template")
	}
	environments, _ := definition["environments"].([]interface{})
	for _, environment := range environments {
		if stage, ok := environment.(map[string]interface{}); ok {
			stage["owner"] = map[string]interface{}{"id": c.releaseOwnerID}
		}
	}

	body, err := json.Marshal(definition)
	if err != nil {
		return nil, errors.Wrap(err, "could not serialize the release definition")
	}
	return body, nil
}

// createDisposable creates the resource that provisions group and parses the created resource into response
func (c ClientImpl) createDisposable(ctx context.Context, group AdminGroup, req request, response interface{}) error {
	err := c.executeJSON(ctx, req, response)
	if err == nil {
		return nil
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		logging.Logger.WithFields(log.Fields{
			"group":      group,
			"statusCode": httpErr.StatusCode,
			"endpoint":   httpErr.Endpoint,
		}).Errorf("Could not create the resource provisioning the group: %s", string(httpErr.Body))
	} else {
		logging.Logger.WithError(err).WithField("group", group).Error("Could not create the resource provisioning the group")
	}
	return errors.Wrapf(ErrGroupTriggerFailed, "%s: %s", group, err.Error())
}

// deleteDisposable removes the resource created by createDisposable. Failures are only logged.
func (c ClientImpl) deleteDisposable(ctx context.Context, group AdminGroup, req request) {
	httpResponse, body, err := c.execute(ctx, req)
	if err != nil {
		logging.Logger.WithError(err).Warnf("Could not clean up the resource created for %s", group)
		return
	}
	if !isSuccess(httpResponse.StatusCode) {
		logging.Logger.Warnf("Could not clean up the resource created for %s: %s", group, NewHTTPError(httpResponse, body).Error())
		return
	}
	logging.Logger.Debugf("Triggered the creation of %s", group)
}

// ParseAdminGroup matches a group name case-insensitively
func ParseAdminGroup(name string) (AdminGroup, error) {
	for _, group := range AdminGroups {
		if strings.EqualFold(string(group), strings.TrimSpace(name)) {
			return group, nil
		}
	}
	return "", errUnknownGroup(AdminGroup(name))
}

func errUnknownGroup(group AdminGroup) error {
	return errors.Errorf("unknown administrators group %q", string(group))
}

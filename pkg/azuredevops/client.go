package azuredevops

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const (
	devOpsHost   = "https://dev.azure.com"
	identityHost = "https://vssps.dev.azure.com"
	releaseHost  = "https://vsrm.dev.azure.com"

	// DefaultAPIVersion is the api-version used by endpoints that don't pin their own
	DefaultAPIVersion = "6.0"

	jsonContentType      = "application/json"
	jsonPatchContentType = "application/json-patch+json"
	userAgent            = "go-azdo-management"
)

// Client is used to call Azure Devops.
// Every call takes the OAuth access token to send as the bearer credential.
type Client interface {
	ListProjects(ctx context.Context, token string) (*ProjectList, error)
	GetProject(ctx context.Context, token string, projectName string) (*Project, error)
	CreateProject(ctx context.Context, token string, project ProjectDescriptor) (string, error)
	GetOperation(ctx context.Context, token string, operationID string) (*Operation, error)
	WaitForOperation(ctx context.Context, token string, operationID string) (*Operation, error)

	GetGroupIdentity(ctx context.Context, token string, projectName string, groupName string) (*IdentityList, error)
	GetOrganizationGroupIdentity(ctx context.Context, token string, groupName string) (*IdentityList, error)
	GetDescriptor(ctx context.Context, token string, storageKey string) (*GraphDescriptor, error)

	GetWorkItem(ctx context.Context, token string, projectName string, workItemID int) (*WorkItem, error)
	UpdateWorkItem(ctx context.Context, token string, workItemID int, operations []PatchOperation) (*WorkItem, error)
	AddWorkItemComment(ctx context.Context, token string, projectID string, workItemID int, comment string, mention Mention) (*Comment, error)
	GetMaxAzpID(ctx context.Context, token string, projectName string, teamName string) (int, error)

	TriggerEndpointAdminGroupCreation(ctx context.Context, token string, projectID string) error
	TriggerDeploymentGroupAdminGroupCreation(ctx context.Context, token string, projectID string) error
	TriggerReleaseAdminGroupCreation(ctx context.Context, token string, projectName string) error
}

// ClientImpl is the interface implementation that calls Azure Devops
type ClientImpl struct {
	organization string

	devOpsHost   string
	identityHost string
	releaseHost  string

	apiVersion string

	httpClient *http.Client

	pollMin time.Duration
	pollMax time.Duration

	releaseOwnerID string
}

// Option configures a ClientImpl
type Option func(*ClientImpl)

// WithHTTPClient sets the HTTP client used for all requests
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *ClientImpl) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithHosts overrides the dev.azure.com, vssps.dev.azure.com and vsrm.dev.azure.com hosts
func WithHosts(devOps string, identity string, release string) Option {
	return func(c *ClientImpl) {
		c.devOpsHost = devOps
		c.identityHost = identity
		c.releaseHost = release
	}
}

// WithAPIVersion overrides DefaultAPIVersion. Endpoints that pin their own api-version are not affected.
func WithAPIVersion(version string) Option {
	return func(c *ClientImpl) {
		if version != "" {
			c.apiVersion = version
		}
	}
}

// WithPollInterval sets the bounds of the WaitForOperation poll interval
func WithPollInterval(min time.Duration, max time.Duration) Option {
	return func(c *ClientImpl) {
		c.pollMin = min
		c.pollMax = max
	}
}

// WithReleaseOwner sets the identity that owns the stage of the disposable release definition.
// Without it the stage has no owner and Azure Devops assigns one.
func WithReleaseOwner(identityID string) Option {
	return func(c *ClientImpl) {
		c.releaseOwnerID = identityID
	}
}

// MakeClient creates a new Azure Devops client for an organization.
// The organization can be given as a name or as https://dev.azure.com/{organization}.
func MakeClient(organization string, options ...Option) (Client, error) {
	organization = OrganizationName(organization)
	if organization == "" {
		return nil, ErrEmptyOrganization
	}

	client := ClientImpl{
		organization: organization,
		devOpsHost:   devOpsHost,
		identityHost: identityHost,
		releaseHost:  releaseHost,
		apiVersion:   DefaultAPIVersion,
		httpClient:   &http.Client{},
		pollMin:      time.Second,
		pollMax:      30 * time.Second,
	}
	for _, option := range options {
		option(&client)
	}
	return client, nil
}

// OrganizationName strips the dev.azure.com prefix from an organization URL
func OrganizationName(organization string) string {
	organization = strings.TrimSpace(organization)
	organization = strings.TrimPrefix(organization, devOpsHost)
	return strings.Trim(organization, "/")
}

// Organization returns the organization the client calls
func (c ClientImpl) Organization() string {
	return c.organization
}

func (c ClientImpl) devOpsURL() *endpoint {
	return newEndpoint(c.devOpsHost).segment(c.organization)
}

func (c ClientImpl) identityURL() *endpoint {
	return newEndpoint(c.identityHost).segment(c.organization)
}

func (c ClientImpl) releaseURL() *endpoint {
	return newEndpoint(c.releaseHost).segment(c.organization)
}

// request describes a single call. route is the endpoint template used as the metrics label.
type request struct {
	method      string
	route       string
	endpoint    *endpoint
	token       string
	body        []byte
	contentType string
}

func jsonRequest(method string, route string, e *endpoint, token string, payload interface{}) (request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return request{}, errors.Wrapf(err, "could not serialize request body for %s", route)
	}
	return request{
		method:      method,
		route:       route,
		endpoint:    e,
		token:       token,
		body:        body,
		contentType: jsonContentType,
	}, nil
}

// execute sends the request and reads the whole response body. Non-2xx responses are not treated as errors here.
func (c ClientImpl) execute(ctx context.Context, r request) (*http.Response, []byte, error) {
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, r.method, r.endpoint.String(), body)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "could not create request for %s %s", r.method, r.route)
	}

	httpRequest.Header.Set("Accept", jsonContentType)
	httpRequest.Header.Set("User-Agent", userAgent)
	if r.contentType != "" {
		httpRequest.Header.Set("Content-Type", r.contentType)
	}
	(&oauth2.Token{AccessToken: r.token, TokenType: "Bearer"}).SetAuthHeader(httpRequest)

	start := time.Now()
	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		observeRequest(r.method, r.route, 0, start)
		return nil, nil, errors.Wrapf(err, "error calling %s %s", r.method, r.route)
	}
	defer httpResponse.Body.Close()

	responseBody, err := io.ReadAll(httpResponse.Body)
	observeRequest(r.method, r.route, httpResponse.StatusCode, start)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "could not read response from %s %s", r.method, r.route)
	}

	return httpResponse, responseBody, nil
}

// executeJSON sends the request and parses a 2xx response into response, which may be nil
func (c ClientImpl) executeJSON(ctx context.Context, r request, response interface{}) error {
	httpResponse, body, err := c.execute(ctx, r)
	if err != nil {
		return err
	}

	if !isSuccess(httpResponse.StatusCode) {
		return NewHTTPError(httpResponse, body)
	}

	if response == nil {
		return nil
	}
	if err := unmarshal(body, response); err != nil {
		return errors.Wrapf(err, "Error - could not parse JSON response from %s", r.route)
	}
	return nil
}

func isSuccess(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

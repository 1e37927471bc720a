package tests

import (
	"context"
	"fmt"
	"sync"

	"github.com/ogmaresca/azdo-management/pkg/azuredevops"
)

// Projects creates mock Project objects
func Projects(num int, startPos int) []azuredevops.Project {
	var projects []azuredevops.Project
	for i := startPos; i < startPos+num; i++ {
		projects = append(projects, azuredevops.Project{
			ID:         fmt.Sprintf("project-id-%d", i),
			Name:       fmt.Sprintf("project-%d", i),
			State:      "wellFormed",
			Visibility: azuredevops.VisibilityPrivate,
		})
	}
	return projects
}

// mockAZDClientCalls records the calls made to a mockAZDClient.
// Make this a pointer to allow stateful changes
type mockAZDClientCalls struct {
	mu sync.Mutex

	CreatedProjects []azuredevops.ProjectDescriptor
	TriggeredGroups map[azuredevops.AdminGroup]string
	Tokens          []string
}

func (c *mockAZDClientCalls) token(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Tokens = append(c.Tokens, token)
}

func (c *mockAZDClientCalls) trigger(group azuredevops.AdminGroup, projectRef string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.TriggeredGroups == nil {
		c.TriggeredGroups = map[azuredevops.AdminGroup]string{}
	}
	c.TriggeredGroups[group] = projectRef
}

// mockAZDClient is a mock Azure Devops client
type mockAZDClient struct {
	Calls *mockAZDClientCalls

	ErrorCreateProject bool
	OperationStatus    azuredevops.OperationStatus
	ErrorGetProject    bool
	MaxAzpID           int
	ErrorMaxAzpID      bool
	ErrorGroups        map[azuredevops.AdminGroup]bool
}

func newMockAZDClient() mockAZDClient {
	return mockAZDClient{
		Calls:           &mockAZDClientCalls{},
		OperationStatus: azuredevops.OperationStatusSucceeded,
		ErrorGroups:     map[azuredevops.AdminGroup]bool{},
	}
}

func (c mockAZDClient) projectNamed(name string) azuredevops.Project {
	project := Projects(1, 0)[0]
	project.Name = name
	project.ID = fmt.Sprintf("%s-id", name)
	return project
}

// ListProjects returns the projects that were created
func (c mockAZDClient) ListProjects(ctx context.Context, token string) (*azuredevops.ProjectList, error) {
	c.Calls.token(token)
	c.Calls.mu.Lock()
	defer c.Calls.mu.Unlock()
	list := &azuredevops.ProjectList{}
	for _, descriptor := range c.Calls.CreatedProjects {
		list.Value = append(list.Value, c.projectNamed(descriptor.Name))
	}
	list.Count = len(list.Value)
	return list, nil
}

// GetProject returns a project with the ID {name}-id
func (c mockAZDClient) GetProject(ctx context.Context, token string, projectName string) (*azuredevops.Project, error) {
	c.Calls.token(token)
	if c.ErrorGetProject {
		return nil, fmt.Errorf("Mock AZD Client Error")
	}
	project := c.projectNamed(projectName)
	return &project, nil
}

// CreateProject records the project and returns the operation ID op-{name}
func (c mockAZDClient) CreateProject(ctx context.Context, token string, project azuredevops.ProjectDescriptor) (string, error) {
	c.Calls.token(token)
	if c.ErrorCreateProject {
		return "", azuredevops.ErrProjectCreationFailed
	}
	c.Calls.mu.Lock()
	defer c.Calls.mu.Unlock()
	c.Calls.CreatedProjects = append(c.Calls.CreatedProjects, project)
	return fmt.Sprintf("op-%s", project.Name), nil
}

// GetOperation returns an operation with the configured status
func (c mockAZDClient) GetOperation(ctx context.Context, token string, operationID string) (*azuredevops.Operation, error) {
	c.Calls.token(token)
	return &azuredevops.Operation{ID: operationID, Status: c.OperationStatus}, nil
}

// WaitForOperation fails unless the configured status is succeeded
func (c mockAZDClient) WaitForOperation(ctx context.Context, token string, operationID string) (*azuredevops.Operation, error) {
	operation, _ := c.GetOperation(ctx, token, operationID)
	if operation.Status != azuredevops.OperationStatusSucceeded {
		return operation, azuredevops.ErrOperationFailed
	}
	return operation, nil
}

// GetGroupIdentity returns a single group
func (c mockAZDClient) GetGroupIdentity(ctx context.Context, token string, projectName string, groupName string) (*azuredevops.IdentityList, error) {
	c.Calls.token(token)
	return &azuredevops.IdentityList{Count: 1, Value: []azuredevops.Identity{{
		ID:                  fmt.Sprintf("%s-%s", projectName, groupName),
		ProviderDisplayName: fmt.Sprintf("[%s]\\%s", projectName, groupName),
		IsContainer:         true,
	}}}, nil
}

// GetOrganizationGroupIdentity returns a single group
func (c mockAZDClient) GetOrganizationGroupIdentity(ctx context.Context, token string, groupName string) (*azuredevops.IdentityList, error) {
	return c.GetGroupIdentity(ctx, token, "organization", groupName)
}

// GetDescriptor returns the storage key prefixed with scp.
func (c mockAZDClient) GetDescriptor(ctx context.Context, token string, storageKey string) (*azuredevops.GraphDescriptor, error) {
	c.Calls.token(token)
	return &azuredevops.GraphDescriptor{Value: "scp." + storageKey}, nil
}

// GetWorkItem returns a work item with the configured AZP_ID
func (c mockAZDClient) GetWorkItem(ctx context.Context, token string, projectName string, workItemID int) (*azuredevops.WorkItem, error) {
	c.Calls.token(token)
	return &azuredevops.WorkItem{ID: workItemID, Fields: map[string]interface{}{azuredevops.AzpIDField: c.MaxAzpID}}, nil
}

// UpdateWorkItem returns an empty work item
func (c mockAZDClient) UpdateWorkItem(ctx context.Context, token string, workItemID int, operations []azuredevops.PatchOperation) (*azuredevops.WorkItem, error) {
	c.Calls.token(token)
	return &azuredevops.WorkItem{ID: workItemID, Rev: len(operations)}, nil
}

// AddWorkItemComment returns the comment
func (c mockAZDClient) AddWorkItemComment(ctx context.Context, token string, projectID string, workItemID int, comment string, mention azuredevops.Mention) (*azuredevops.Comment, error) {
	c.Calls.token(token)
	return &azuredevops.Comment{WorkItemID: workItemID, Text: comment}, nil
}

// GetMaxAzpID returns the configured AZP_ID
func (c mockAZDClient) GetMaxAzpID(ctx context.Context, token string, projectName string, teamName string) (int, error) {
	c.Calls.token(token)
	if c.ErrorMaxAzpID {
		return 0, fmt.Errorf("Mock AZD Client Error")
	}
	return c.MaxAzpID, nil
}

func (c mockAZDClient) triggerGroup(token string, group azuredevops.AdminGroup, projectRef string) error {
	c.Calls.token(token)
	if c.ErrorGroups[group] {
		return fmt.Errorf("%s: %s", azuredevops.ErrGroupTriggerFailed.Error(), group)
	}
	c.Calls.trigger(group, projectRef)
	return nil
}

// TriggerEndpointAdminGroupCreation records the trigger
func (c mockAZDClient) TriggerEndpointAdminGroupCreation(ctx context.Context, token string, projectID string) error {
	return c.triggerGroup(token, azuredevops.EndpointAdministrators, projectID)
}

// TriggerDeploymentGroupAdminGroupCreation records the trigger
func (c mockAZDClient) TriggerDeploymentGroupAdminGroupCreation(ctx context.Context, token string, projectID string) error {
	return c.triggerGroup(token, azuredevops.DeploymentGroupAdministrators, projectID)
}

// TriggerReleaseAdminGroupCreation records the trigger
func (c mockAZDClient) TriggerReleaseAdminGroupCreation(ctx context.Context, token string, projectName string) error {
	return c.triggerGroup(token, azuredevops.ReleaseAdministrators, projectName)
}

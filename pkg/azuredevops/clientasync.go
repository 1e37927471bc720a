package azuredevops

import "context"

// ClientAsync is an async version of Client
type ClientAsync interface {
	Sync() Client

	GetProjectAsync(channel chan<- ProjectResponse, ctx context.Context, token string, projectName string)
	GetMaxAzpIDAsync(channel chan<- AzpIDResponse, ctx context.Context, token string, projectName string, teamName string)
	TriggerAdminGroupCreationAsync(channel chan<- AdminGroupResponse, ctx context.Context, token string, group AdminGroup, project Project)
}

// ClientAsyncImpl is the async interface implementation that calls Azure Devops
type ClientAsyncImpl struct {
	client Client
}

// MakeFromClient returns a ClientAsync from the given sync client
func MakeFromClient(client Client) ClientAsync {
	return ClientAsyncImpl{client: client}
}

// Sync returns the synchronous client
func (c ClientAsyncImpl) Sync() Client {
	return c.client
}

// ProjectResponse is a wrapper for Project to allow also returning an error in channels
type ProjectResponse struct {
	Project *Project
	Err     error
}

// GetProjectAsync retrieves a project
func (c ClientAsyncImpl) GetProjectAsync(channel chan<- ProjectResponse, ctx context.Context, token string, projectName string) {
	response, err := c.client.GetProject(ctx, token, projectName)
	channel <- ProjectResponse{response, err}
}

// AzpIDResponse is a wrapper for the max AZP_ID to allow also returning an error in channels
type AzpIDResponse struct {
	AzpID int
	Err   error
}

// GetMaxAzpIDAsync retrieves the highest AZP_ID of a team's "Project" work items
func (c ClientAsyncImpl) GetMaxAzpIDAsync(channel chan<- AzpIDResponse, ctx context.Context, token string, projectName string, teamName string) {
	response, err := c.client.GetMaxAzpID(ctx, token, projectName, teamName)
	channel <- AzpIDResponse{response, err}
}

// AdminGroupResponse is the result of triggering the creation of an administrators group
type AdminGroupResponse struct {
	Group AdminGroup
	Err   error
}

// TriggerAdminGroupCreationAsync triggers the creation of an administrators group in a project
func (c ClientAsyncImpl) TriggerAdminGroupCreationAsync(channel chan<- AdminGroupResponse, ctx context.Context, token string, group AdminGroup, project Project) {
	var err error
	switch group {
	case EndpointAdministrators:
		err = c.client.TriggerEndpointAdminGroupCreation(ctx, token, project.ID)
	case DeploymentGroupAdministrators:
		err = c.client.TriggerDeploymentGroupAdminGroupCreation(ctx, token, project.ID)
	case ReleaseAdministrators:
		err = c.client.TriggerReleaseAdminGroupCreation(ctx, token, project.Name)
	default:
		err = errUnknownGroup(group)
	}
	channel <- AdminGroupResponse{group, err}
}

package bootstrap

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/ogmaresca/azdo-management/pkg/azuredevops"
	"github.com/ogmaresca/azdo-management/pkg/logging"
)

// Request describes the project to bootstrap
type Request struct {
	Project azuredevops.ProjectDescriptor

	// ManagementProject and ManagementTeam locate the "Project" work items used to number projects.
	// The AZP_ID lookup is skipped if either is empty.
	ManagementProject string
	ManagementTeam    string
}

// Result is the outcome of a bootstrap
type Result struct {
	OperationID string               `json:"operationId"`
	Project     *azuredevops.Project `json:"project"`
	Groups      []string             `json:"groups"`
	NextAzpID   int                  `json:"nextAzpId,omitempty"`
}

// Bootstrap creates a project, waits for it to be provisioned and triggers the creation of its administrators groups
func Bootstrap(ctx context.Context, azdClient azuredevops.ClientAsync, token string, request Request) (*Result, error) {
	if request.Project.Name == "" {
		return nil, errors.New("the project name is required")
	}

	client := azdClient.Sync()

	operationID, err := client.CreateProject(ctx, token, request.Project)
	if err != nil {
		return nil, err
	}
	result := &Result{OperationID: operationID}

	logging.Logger.Infof("Waiting for project %s to be created", request.Project.Name)
	if _, err := client.WaitForOperation(ctx, token, operationID); err != nil {
		return result, err
	}

	project, err := client.GetProject(ctx, token, request.Project.Name)
	if err != nil {
		return result, errors.Wrapf(err, "could not retrieve created project %s", request.Project.Name)
	}
	result.Project = project

	azpIDChan := make(chan azuredevops.AzpIDResponse, 1)
	lookupAzpID := request.ManagementProject != "" && request.ManagementTeam != ""
	if lookupAzpID {
		go azdClient.GetMaxAzpIDAsync(azpIDChan, ctx, token, request.ManagementProject, request.ManagementTeam)
	}

	var errs []string
	result.Groups, err = TriggerGroups(ctx, azdClient, token, *project, azuredevops.AdminGroups)
	if err != nil {
		errs = append(errs, err.Error())
	}

	if lookupAzpID {
		response := <-azpIDChan
		if response.Err != nil {
			errs = append(errs, response.Err.Error())
		} else {
			result.NextAzpID = response.AzpID + 1
		}
	}

	if len(errs) > 0 {
		return result, fmt.Errorf("Error(s) bootstrapping project %s:\n%s", request.Project.Name, strings.Join(errs, "\n"))
	}

	logging.Logger.Infof("Bootstrapped project %s (%s)", project.Name, project.ID)
	return result, nil
}

// TriggerGroups triggers the creation of administrators groups concurrently.
// Returns the groups that were triggered, and an error listing every group that failed.
func TriggerGroups(ctx context.Context, azdClient azuredevops.ClientAsync, token string, project azuredevops.Project, groups []azuredevops.AdminGroup) ([]string, error) {
	channel := make(chan azuredevops.AdminGroupResponse, len(groups))
	for _, group := range groups {
		go azdClient.TriggerAdminGroupCreationAsync(channel, ctx, token, group, project)
	}

	triggered := []string{}
	var errs []string
	for range groups {
		response := <-channel
		if response.Err != nil {
			errs = append(errs, response.Err.Error())
			continue
		}
		triggered = append(triggered, string(response.Group))
	}
	sort.Strings(triggered)
	sort.Strings(errs)

	if len(errs) > 0 {
		return triggered, fmt.Errorf("Error(s) triggering groups of project %s:\n%s", project.Name, strings.Join(errs, "\n"))
	}
	return triggered, nil
}

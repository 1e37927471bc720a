package azuredevops

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/ogmaresca/azdo-management/pkg/logging"
)

const (
	workItemRoute         = "/{project}/_apis/wit/workitems/{id}"
	updateWorkItemRoute   = "/_apis/wit/workitems/{id}"
	workItemCommentsRoute = "/{project}/_apis/wit/workitems/{id}/comments"
	wiqlRoute             = "/{project}/{team}/_apis/wit/wiql"

	workItemAPIVersion = "6.0"
	commentAPIVersion  = "6.1-preview.3"

	// AzpIDField is the custom field holding the sequence number of "Project" work items
	AzpIDField = "Custom.AZP_ID"

	maxAzpIDQuery = "SELECT [Custom.AZP_ID] \n" +
		"FROM workitems \n" +
		"WHERE [System.TeamProject] = @project \n" +
		"       and [System.WorkItemType]=\"Project\" \n" +
		"ORDER BY [Custom.AZP_ID] DESC"
)

// WorkItem is the response received when retrieving or updating a work item.
// curl -H 'Authorization: Bearer token' https://dev.azure.com/organization/project/_apis/wit/workitems/1?api-version=6.0
type WorkItem struct {
	ID     int                    `json:"id"`
	Rev    int                    `json:"rev"`
	Fields map[string]interface{} `json:"fields"`
	URL    string                 `json:"url"`
}

// StringField returns a field as a string, or an empty string if it is not set
func (w *WorkItem) StringField(name string) string {
	value, exists := w.Fields[name]
	if !exists || value == nil {
		return ""
	}
	if str, ok := value.(string); ok {
		return str
	}
	return fmt.Sprintf("%v", value)
}

// IntField returns a numeric field as an int
func (w *WorkItem) IntField(name string) (int, error) {
	value, exists := w.Fields[name]
	if !exists || value == nil {
		return 0, errors.Wrapf(ErrMissingField, "work item %d has no field %s", w.ID, name)
	}
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, errors.Wrapf(err, "field %s of work item %d is not a number", name, w.ID)
		}
		return int(f), nil
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case string:
		i, err := strconv.Atoi(v)
		if err != nil {
			return 0, errors.Wrapf(err, "field %s of work item %d is not a number", name, w.ID)
		}
		return i, nil
	default:
		return 0, errors.Errorf("field %s of work item %d has unexpected type %T", name, w.ID, value)
	}
}

// PatchOperation is a JSON patch operation used to update a work item
type PatchOperation struct {
	Op    string      `json:"op"`
	Path  string      `json:"path"`
	From  string      `json:"from,omitempty"`
	Value interface{} `json:"value,omitempty"`
}

// Mention is the identity mentioned at the start of a comment
type Mention struct {
	ID          string
	DisplayName string
}

// Comment is the response received when adding a comment to a work item
type Comment struct {
	ID          int          `json:"id"`
	WorkItemID  int          `json:"workItemId"`
	Version     int          `json:"version"`
	Text        string       `json:"text"`
	CreatedBy   *IdentityRef `json:"createdBy"`
	CreatedDate time.Time    `json:"createdDate"`
	URL         string       `json:"url"`
}

type commentRequest struct {
	Text string `json:"text"`
}

// WorkItemReference is a work item returned by a WIQL query
type WorkItemReference struct {
	ID  int    `json:"id"`
	URL string `json:"url"`
}

// WorkItemQueryResult is the response received when running a WIQL query
type WorkItemQueryResult struct {
	QueryType string              `json:"queryType"`
	AsOf      string              `json:"asOf"`
	WorkItems []WorkItemReference `json:"workItems"`
}

type wiqlRequest struct {
	Query string `json:"query"`
}

// GetWorkItem retrieves a work item
func (c ClientImpl) GetWorkItem(ctx context.Context, token string, projectName string, workItemID int) (*WorkItem, error) {
	response := new(WorkItem)
	endpoint := c.devOpsURL().
		segment(projectName).
		path("_apis/wit/workitems").
		segment(strconv.Itoa(workItemID)).
		apiVersion(workItemAPIVersion)
	err := c.executeJSON(ctx, request{method: http.MethodGet, route: workItemRoute, endpoint: endpoint, token: token}, response)
	if err != nil {
		return nil, err
	}
	return response, nil
}

// UpdateWorkItem applies JSON patch operations to a work item
func (c ClientImpl) UpdateWorkItem(ctx context.Context, token string, workItemID int, operations []PatchOperation) (*WorkItem, error) {
	endpoint := c.devOpsURL().
		path("_apis/wit/workitems").
		segment(strconv.Itoa(workItemID)).
		apiVersion(workItemAPIVersion)
	req, err := jsonRequest(http.MethodPatch, updateWorkItemRoute, endpoint, token, operations)
	if err != nil {
		return nil, err
	}
	req.contentType = jsonPatchContentType

	response := new(WorkItem)
	if err := c.executeJSON(ctx, req, response); err != nil {
		return nil, err
	}
	return response, nil
}

// AddWorkItemComment adds a comment to a work item that starts with a mention
func (c ClientImpl) AddWorkItemComment(ctx context.Context, token string, projectID string, workItemID int, comment string, mention Mention) (*Comment, error) {
	endpoint := c.devOpsURL().
		segment(projectID).
		path("_apis/wit/workitems").
		segment(strconv.Itoa(workItemID)).
		path("comments").
		apiVersion(commentAPIVersion)
	req, err := jsonRequest(http.MethodPost, workItemCommentsRoute, endpoint, token, commentRequest{Text: mentionComment(comment, mention)})
	if err != nil {
		return nil, err
	}

	response := new(Comment)
	if err := c.executeJSON(ctx, req, response); err != nil {
		return nil, err
	}
	return response, nil
}

func mentionComment(comment string, mention Mention) string {
	return fmt.Sprintf("<div><a href=\"#\" data-vss-mention=\"version:2.0,%s\">@%s</a>&nbsp;%s</div>", mention.ID, mention.DisplayName, comment)
}

// GetMaxAzpID returns the highest Custom.AZP_ID of the team's "Project" work items.
// Returns 0 if there are no such work items.
func (c ClientImpl) GetMaxAzpID(ctx context.Context, token string, projectName string, teamName string) (int, error) {
	endpoint := c.devOpsURL().
		segment(projectName).
		segment(teamName).
		path("_apis/wit/wiql").
		param("$top", "1").
		apiVersion(workItemAPIVersion)
	req, err := jsonRequest(http.MethodPost, wiqlRoute, endpoint, token, wiqlRequest{Query: maxAzpIDQuery})
	if err != nil {
		return 0, err
	}

	result := new(WorkItemQueryResult)
	if err := c.executeJSON(ctx, req, result); err != nil {
		return 0, err
	}

	if len(result.WorkItems) == 0 {
		logging.Logger.Warningf("Failed to get %s from the work items of %s/%s - starting with 0", AzpIDField, projectName, teamName)
		return 0, nil
	}

	workItem, err := c.GetWorkItem(ctx, token, projectName, result.WorkItems[0].ID)
	if err != nil {
		return 0, err
	}
	return workItem.IntField(AzpIDField)
}

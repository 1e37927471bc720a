package azuredevops

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/jpillora/backoff"
	"github.com/pkg/errors"

	"github.com/ogmaresca/azdo-management/pkg/logging"
)

const operationRoute = "/_apis/operations/{operationId}"

// OperationStatus is the Status field of Operation
type OperationStatus string

const (
	// OperationStatusNotSet is the status of an operation that has not been queued
	OperationStatusNotSet OperationStatus = "notSet"
	// OperationStatusQueued is the status of a queued operation
	OperationStatusQueued OperationStatus = "queued"
	// OperationStatusInProgress is the status of a running operation
	OperationStatusInProgress OperationStatus = "inProgress"
	// OperationStatusCancelled is the status of a cancelled operation
	OperationStatusCancelled OperationStatus = "cancelled"
	// OperationStatusSucceeded is the status of a successful operation
	OperationStatusSucceeded OperationStatus = "succeeded"
	// OperationStatusFailed is the status of a failed operation
	OperationStatusFailed OperationStatus = "failed"
)

// IsFinished determines if the operation will not change status anymore
func (s OperationStatus) IsFinished() bool {
	return strings.EqualFold(string(s), string(OperationStatusSucceeded)) ||
		strings.EqualFold(string(s), string(OperationStatusFailed)) ||
		strings.EqualFold(string(s), string(OperationStatusCancelled))
}

// Operation is the status of a long running operation, such as a project creation.
// curl -H 'Authorization: Bearer token' https://dev.azure.com/organization/_apis/operations/{operationId}?api-version=6.0
type Operation struct {
	ID              string          `json:"id"`
	Status          OperationStatus `json:"status"`
	URL             string          `json:"url"`
	PluginID        string          `json:"pluginId"`
	DetailedMessage string          `json:"detailedMessage"`
	ResultMessage   string          `json:"resultMessage"`
}

// GetOperation retrieves the status of an operation
func (c ClientImpl) GetOperation(ctx context.Context, token string, operationID string) (*Operation, error) {
	response := new(Operation)
	endpoint := c.devOpsURL().path("_apis/operations").segment(operationID).apiVersion(c.apiVersion)
	err := c.executeJSON(ctx, request{method: http.MethodGet, route: operationRoute, endpoint: endpoint, token: token}, response)
	if err != nil {
		return nil, err
	}
	return response, nil
}

// WaitForOperation polls an operation until it is finished or the context is done.
// Returns ErrOperationFailed if the operation was cancelled or failed. Request errors are returned immediately.
func (c ClientImpl) WaitForOperation(ctx context.Context, token string, operationID string) (*Operation, error) {
	interval := backoff.Backoff{
		Min:    c.pollMin,
		Max:    c.pollMax,
		Factor: 2,
	}

	for {
		operation, err := c.GetOperation(ctx, token, operationID)
		if err != nil {
			return nil, err
		}

		if operation.Status.IsFinished() {
			if !strings.EqualFold(string(operation.Status), string(OperationStatusSucceeded)) {
				return operation, errors.Wrapf(ErrOperationFailed, "operation %s is %s: %s", operationID, operation.Status, operation.DetailedMessage)
			}
			return operation, nil
		}

		wait := interval.Duration()
		logging.Logger.Debugf("Operation %s is %s, checking again in %s", operationID, operation.Status, wait.String())

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return operation, errors.Wrapf(ctx.Err(), "stopped waiting for operation %s", operationID)
		case <-timer.C:
		}
	}
}

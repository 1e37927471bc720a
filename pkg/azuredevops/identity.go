package azuredevops

import (
	"context"
	"fmt"
	"net/http"
)

const (
	identitiesRoute = "/_apis/identities"
	descriptorRoute = "/_apis/graph/descriptors/{storageKey}"
)

// Identity is a user or group known to the organization
type Identity struct {
	ID                  string                 `json:"id"`
	Descriptor          string                 `json:"descriptor"`
	SubjectDescriptor   string                 `json:"subjectDescriptor"`
	ProviderDisplayName string                 `json:"providerDisplayName"`
	IsActive            bool                   `json:"isActive"`
	IsContainer         bool                   `json:"isContainer"`
	Members             []string               `json:"members"`
	MemberOf            []string               `json:"memberOf"`
	ResourceVersion     int                    `json:"resourceVersion"`
	MetaTypeID          int                    `json:"metaTypeId"`
	Properties          map[string]interface{} `json:"properties"`
}

// IdentityList is the response received when searching identities.
// curl -H 'Authorization: Bearer token' 'https://vssps.dev.azure.com/organization/_apis/identities?searchFilter=General&filterValue=%5Bproject%5D%5CContributors&queryMembership=None&api-version=6.0'
type IdentityList struct {
	Count int        `json:"count"`
	Value []Identity `json:"value"`
}

// GraphDescriptor is the response received when resolving a storage key to a graph descriptor
type GraphDescriptor struct {
	Value string `json:"value"`
}

// GetGroupIdentity retrieves a project group, ex: [myproject]\Contributors. The group name must match exactly.
func (c ClientImpl) GetGroupIdentity(ctx context.Context, token string, projectName string, groupName string) (*IdentityList, error) {
	return c.searchGroupIdentity(ctx, token, projectName, groupName)
}

// GetOrganizationGroupIdentity retrieves an organization group, ex: [organization]\Project Collection Administrators
func (c ClientImpl) GetOrganizationGroupIdentity(ctx context.Context, token string, groupName string) (*IdentityList, error) {
	return c.searchGroupIdentity(ctx, token, c.organization, groupName)
}

func (c ClientImpl) searchGroupIdentity(ctx context.Context, token string, scope string, groupName string) (*IdentityList, error) {
	response := new(IdentityList)
	endpoint := c.identityURL().
		path("_apis/identities").
		param("searchFilter", "General").
		param("filterValue", groupFilterValue(scope, groupName)).
		param("queryMembership", "None").
		apiVersion(c.apiVersion)
	err := c.executeJSON(ctx, request{method: http.MethodGet, route: identitiesRoute, endpoint: endpoint, token: token}, response)
	if err != nil {
		return nil, err
	}
	return response, nil
}

func groupFilterValue(scope string, groupName string) string {
	return fmt.Sprintf("[%s]\\%s", scope, groupName)
}

// GetDescriptor resolves the storage key of a project, user or group to its graph descriptor
func (c ClientImpl) GetDescriptor(ctx context.Context, token string, storageKey string) (*GraphDescriptor, error) {
	response := new(GraphDescriptor)
	endpoint := c.identityURL().path("_apis/graph/descriptors").segment(storageKey).apiVersion(c.apiVersion)
	err := c.executeJSON(ctx, request{method: http.MethodGet, route: descriptorRoute, endpoint: endpoint, token: token}, response)
	if err != nil {
		return nil, err
	}
	return response, nil
}

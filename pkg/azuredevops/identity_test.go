package azuredevops

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const identityListResponse = `{
	"count": 1,
	"value": [{
		"id": "4bf1c8ad-3d5c-4c1e-8b65-9a0e4b3e4f30",
		"descriptor": "Microsoft.TeamFoundation.Identity;S-1-9-1551374245",
		"subjectDescriptor": "vssgp.Uy0xLTktMTU1MTM3NDI0NQ",
		"providerDisplayName": "[My Project]\\Contributors",
		"isActive": true,
		"isContainer": true,
		"members": [],
		"memberOf": [],
		"properties": {"SchemaClassName": {"$type": "System.String", "$value": "Group"}}
	}]
}`

func TestGetGroupIdentity(t *testing.T) {
	fake := newFakeAzureDevops(t)
	fake.handle(http.MethodGet, "/vssps/myorg/_apis/identities", http.StatusOK, identityListResponse)

	identities, err := fake.client().GetGroupIdentity(context.Background(), testToken, "My Project", "Contributors")
	require.NoError(t, err)
	assert.Equal(t, 1, identities.Count)
	require.Len(t, identities.Value, 1)
	assert.Equal(t, "vssgp.Uy0xLTktMTU1MTM3NDI0NQ", identities.Value[0].SubjectDescriptor)
	assert.True(t, identities.Value[0].IsContainer)

	received := fake.received(http.MethodGet)
	require.Len(t, received, 1)
	assert.Equal(t, "searchFilter=General&filterValue=%5BMy%20Project%5D%5CContributors&queryMembership=None&api-version=6.0", received[0].RawQuery)
	assert.Equal(t, "Bearer "+testToken, received[0].Header.Get("Authorization"))
}

func TestGetOrganizationGroupIdentity(t *testing.T) {
	fake := newFakeAzureDevops(t)
	fake.handle(http.MethodGet, "/vssps/myorg/_apis/identities", http.StatusOK, `{"count":0,"value":[]}`)

	identities, err := fake.client().GetOrganizationGroupIdentity(context.Background(), testToken, "Project Collection Administrators")
	require.NoError(t, err)
	assert.Equal(t, 0, identities.Count)
	assert.Equal(t,
		"searchFilter=General&filterValue=%5Bmyorg%5D%5CProject%20Collection%20Administrators&queryMembership=None&api-version=6.0",
		fake.received(http.MethodGet)[0].RawQuery)
}

func TestGetDescriptor(t *testing.T) {
	fake := newFakeAzureDevops(t)
	fake.handle(http.MethodGet, "/vssps/myorg/_apis/graph/descriptors/4bf1c8ad-3d5c-4c1e-8b65-9a0e4b3e4f30", http.StatusOK,
		`{"value":"scp.NGJmMWM4YWQtM2Q1Yy00YzFlLThiNjUtOWEwZTRiM2U0ZjMw"}`)

	descriptor, err := fake.client().GetDescriptor(context.Background(), testToken, "4bf1c8ad-3d5c-4c1e-8b65-9a0e4b3e4f30")
	require.NoError(t, err)
	assert.Equal(t, "scp.NGJmMWM4YWQtM2Q1Yy00YzFlLThiNjUtOWEwZTRiM2U0ZjMw", descriptor.Value)
	assert.Equal(t, "api-version=6.0", fake.received(http.MethodGet)[0].RawQuery)
}

func TestGroupFilterValue(t *testing.T) {
	assert.Equal(t, `[My Project]\Release Administrators`, groupFilterValue("My Project", "Release Administrators"))
}

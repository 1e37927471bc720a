package tests

import (
	"testing"

	corev1 "k8s.io/api/core/v1"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogmaresca/azdo-management/pkg/args"
	"github.com/ogmaresca/azdo-management/pkg/kubernetes"
)

func TestResolveToken(t *testing.T) {
	secrets := []*corev1.Secret{
		Secret("azdo", "azdo-token", map[string]string{"token": "secrettoken", "empty": ""}),
	}
	secretArgs := args.KubernetesArgs{Namespace: "azdo", Name: "azdo-token", Key: "token"}

	t.Run("token flag", func(t *testing.T) {
		reads := 0
		token, err := kubernetes.ResolveToken(mockK8sClient{Secrets: secrets, Reads: &reads}, args.AzureDevopsArgs{Token: azdToken}, secretArgs)
		require.NoError(t, err)
		assert.Equal(t, azdToken, token)
		assert.Equal(t, 0, reads)
	})

	t.Run("token secret", func(t *testing.T) {
		reads := 0
		token, err := kubernetes.ResolveToken(mockK8sClient{Secrets: secrets, Reads: &reads}, args.AzureDevopsArgs{}, secretArgs)
		require.NoError(t, err)
		assert.Equal(t, "secrettoken", token)
		assert.Equal(t, 1, reads)
	})

	t.Run("empty key", func(t *testing.T) {
		emptyArgs := secretArgs
		emptyArgs.Key = "empty"
		_, err := kubernetes.ResolveToken(mockK8sClient{Secrets: secrets}, args.AzureDevopsArgs{}, emptyArgs)
		assert.Error(t, err)
	})

	t.Run("missing secret", func(t *testing.T) {
		missingArgs := secretArgs
		missingArgs.Name = "other"
		_, err := kubernetes.ResolveToken(mockK8sClient{Secrets: secrets}, args.AzureDevopsArgs{}, missingArgs)
		assert.Error(t, err)
	})

	t.Run("nothing configured", func(t *testing.T) {
		_, err := kubernetes.ResolveToken(mockK8sClient{Secrets: secrets}, args.AzureDevopsArgs{}, args.KubernetesArgs{})
		assert.Error(t, err)
	})
}

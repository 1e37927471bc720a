package kubernetes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func TestGetSecretValue(t *testing.T) {
	client := MakeFromClientset(fake.NewSimpleClientset(
		&corev1.Secret{
			ObjectMeta: metav1.ObjectMeta{Name: "azdo-token", Namespace: "azdo"},
			Data:       map[string][]byte{"token": []byte("secrettoken\n")},
			StringData: map[string]string{"plain": " plaintoken "},
		},
	))

	value, err := client.GetSecretValue("azdo", "azdo-token", "token")
	require.NoError(t, err)
	assert.Equal(t, "secrettoken", value)

	value, err = client.GetSecretValue("azdo", "azdo-token", "plain")
	require.NoError(t, err)
	assert.Equal(t, "plaintoken", value)

	_, err = client.GetSecretValue("azdo", "azdo-token", "missing")
	assert.Error(t, err)

	_, err = client.GetSecretValue("default", "azdo-token", "token")
	assert.Error(t, err)
}

package tests

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Secret creates a mock Secret object
func Secret(namespace string, name string, data map[string]string) *corev1.Secret {
	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
		},
		Type: corev1.SecretTypeOpaque,
		Data: map[string][]byte{},
	}
	for key, value := range data {
		secret.Data[key] = []byte(value)
	}
	return secret
}

type mockK8sClient struct {
	Secrets []*corev1.Secret
	Reads   *int
}

// GetSecretValue reads a key from the mock secrets
func (c mockK8sClient) GetSecretValue(namespace string, name string, key string) (string, error) {
	if c.Reads != nil {
		*c.Reads++
	}
	for _, secret := range c.Secrets {
		if secret.Namespace != namespace || secret.Name != name {
			continue
		}
		if value, exists := secret.Data[key]; exists {
			return string(value), nil
		}
		return "", fmt.Errorf("Error getting value from secret/%s in namespace %s: key %s does not exist", name, namespace, key)
	}
	return "", fmt.Errorf("Could not find secret/%s in namespace %s", name, namespace)
}

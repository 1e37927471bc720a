package kubernetes

import (
	"fmt"
	"os"
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	k8s "k8s.io/client-go/kubernetes"
	k8srest "k8s.io/client-go/rest"
	k8sclientcmd "k8s.io/client-go/tools/clientcmd"

	"github.com/ogmaresca/azdo-management/pkg/args"
	"github.com/ogmaresca/azdo-management/pkg/logging"
)

// Client is a wrapper around the client-go package for Kubernetes
type Client interface {
	GetSecretValue(namespace string, name string, key string) (string, error)
}

// ClientImpl is the interface implementation of Client
type ClientImpl struct {
	client k8s.Interface
}

// MakeClient returns a Client using the in-cluster config, $KUBECONFIG or ~/.kube/config
func MakeClient() (Client, error) {
	k8sConfig, err := k8srest.InClusterConfig()
	if err != nil {
		kubeconfigEnv := os.Getenv("KUBECONFIG")
		k8sConfig, err = k8sclientcmd.BuildConfigFromFlags("", kubeconfigEnv)
		if err != nil {
			home := os.Getenv("HOME")
			if home == "" {
				home = os.Getenv("USERPROFILE") // windows
			}
			k8sConfig, err = k8sclientcmd.BuildConfigFromFlags("", fmt.Sprintf("%s/.kube/config", home))
			if err != nil {
				return nil, fmt.Errorf("Error initializing Kubernetes config: %s", err.Error())
			}
		}
	}

	clientset, err := k8s.NewForConfig(k8sConfig)
	if err != nil {
		return nil, err
	}
	return ClientImpl{clientset}, nil
}

// MakeFromClientset returns a Client from an existing clientset
func MakeFromClientset(clientset k8s.Interface) Client {
	return ClientImpl{clientset}
}

// GetSecretValue retrieves a single key of a secret
func (c ClientImpl) GetSecretValue(namespace string, name string, key string) (string, error) {
	secret, err := c.client.CoreV1().Secrets(namespace).Get(name, metav1.GetOptions{})
	if err != nil {
		return "", fmt.Errorf("Error getting secret/%s in namespace %s: %s", name, namespace, err.Error())
	} else if secret == nil {
		return "", fmt.Errorf("Could not find secret/%s in namespace %s", name, namespace)
	}

	if value, exists := secret.Data[key]; exists {
		return strings.TrimSpace(string(value)), nil
	}
	if value, exists := secret.StringData[key]; exists {
		return strings.TrimSpace(value), nil
	}
	return "", fmt.Errorf("Error getting value from secret/%s in namespace %s: key %s does not exist", name, namespace, key)
}

// ResolveToken returns the access token from the arguments, reading it from the token secret if needed
func ResolveToken(client Client, azdArgs args.AzureDevopsArgs, secretArgs args.KubernetesArgs) (string, error) {
	if azdArgs.Token != "" {
		return azdArgs.Token, nil
	}
	if !secretArgs.IsSet() {
		return "", fmt.Errorf("Error - no access token or token secret is configured")
	}

	logging.Logger.Debugf("Reading the access token from %s in namespace %s", secretArgs.FriendlyName(), secretArgs.Namespace)
	token, err := client.GetSecretValue(secretArgs.Namespace, secretArgs.Name, secretArgs.Key)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", fmt.Errorf("Error - key %s of %s in namespace %s is empty", secretArgs.Key, secretArgs.FriendlyName(), secretArgs.Namespace)
	}
	return token, nil
}

package azuredevops

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	testOrganization = "myorg"
	testToken        = "azdtoken"
)

// recordedRequest is a request received by fakeAzureDevops
type recordedRequest struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     []byte
}

// fakeAzureDevops serves dev.azure.com at /, vssps.dev.azure.com at /vssps and vsrm.dev.azure.com at /vsrm
type fakeAzureDevops struct {
	t        *testing.T
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	requests []recordedRequest
	server   *httptest.Server
}

func newFakeAzureDevops(t *testing.T) *fakeAzureDevops {
	fake := &fakeAzureDevops{
		t:        t,
		handlers: map[string]http.HandlerFunc{},
	}
	fake.server = httptest.NewServer(http.HandlerFunc(fake.serveHTTP))
	t.Cleanup(fake.server.Close)
	return fake
}

func (f *fakeAzureDevops) serveHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	require.NoError(f.t, err)

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method:   r.Method,
		Path:     r.URL.EscapedPath(),
		RawQuery: r.URL.RawQuery,
		Header:   r.Header.Clone(),
		Body:     body,
	})
	handler, exists := f.handlers[r.Method+" "+r.URL.EscapedPath()]
	f.mu.Unlock()

	if !exists {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"The resource cannot be found.","typeKey":"NotFoundException","errorCode":0,"eventId":3000}`))
		return
	}
	handler(w, r)
}

// handleFunc registers a handler for a method and escaped path
func (f *fakeAzureDevops) handleFunc(method string, path string, handler http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method+" "+path] = handler
}

// handle registers a handler that always returns the same response
func (f *fakeAzureDevops) handle(method string, path string, statusCode int, body string) {
	f.handleFunc(method, path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte(body))
	})
}

// received returns the requests received with the given method
func (f *fakeAzureDevops) received(method string) []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var requests []recordedRequest
	for _, request := range f.requests {
		if request.Method == method {
			requests = append(requests, request)
		}
	}
	return requests
}

func (f *fakeAzureDevops) client() Client {
	client, err := MakeClient(testOrganization,
		WithHosts(f.server.URL, f.server.URL+"/vssps", f.server.URL+"/vsrm"),
		WithHTTPClient(f.server.Client()),
		WithPollInterval(time.Millisecond, 5*time.Millisecond),
	)
	require.NoError(f.t, err)
	return client
}

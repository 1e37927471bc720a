package azuredevops

import (
	"net/url"
	"strings"
)

type queryParam struct {
	key   string
	value string
}

// endpoint builds a request URL.
// Query parameters keep the order they were added in.
type endpoint struct {
	base     string
	segments []string
	query    []queryParam
}

func newEndpoint(base string) *endpoint {
	return &endpoint{base: strings.TrimSuffix(base, "/")}
}

// path appends a literal route, ex: _apis/wit/wiql
func (e *endpoint) path(route string) *endpoint {
	for _, segment := range strings.Split(strings.Trim(route, "/"), "/") {
		if segment != "" {
			e.segments = append(e.segments, segment)
		}
	}
	return e
}

// segment appends a single escaped path segment, such as a project name
func (e *endpoint) segment(value string) *endpoint {
	e.segments = append(e.segments, url.PathEscape(value))
	return e
}

func (e *endpoint) param(key string, value string) *endpoint {
	e.query = append(e.query, queryParam{key, value})
	return e
}

func (e *endpoint) apiVersion(version string) *endpoint {
	return e.param("api-version", version)
}

func (e *endpoint) String() string {
	var builder strings.Builder
	builder.WriteString(e.base)
	for _, segment := range e.segments {
		builder.WriteByte('/')
		builder.WriteString(segment)
	}
	for i, param := range e.query {
		if i == 0 {
			builder.WriteByte('?')
		} else {
			builder.WriteByte('&')
		}
		builder.WriteString(param.key)
		builder.WriteByte('=')
		builder.WriteString(escapeQueryValue(param.value))
	}
	return builder.String()
}

// escapeQueryValue escapes spaces as %20 rather than +
func escapeQueryValue(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}

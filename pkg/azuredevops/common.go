package azuredevops

import (
	"bytes"
	"encoding/json"
)

// Definition is the base type for Azure Devops responses that reference a resource
type Definition struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// IdentityRef is the user/group reference embedded in many Azure Devops responses
type IdentityRef struct {
	DisplayName string `json:"displayName"`
	URL         string `json:"url"`
	ID          string `json:"id"`
	UniqueName  string `json:"uniqueName"`
	ImageURL    string `json:"imageUrl"`
	Descriptor  string `json:"descriptor"`
}

// Error is returned when an error occurs in the API, such as an invalid ID being used.
type Error struct {
	Message   string `json:"message"`
	TypeName  string `json:"typeName"`
	TypeKey   string `json:"typeKey"`
	ErrorCode int    `json:"errorCode"`
	EventID   int    `json:"eventId"`
}

// unmarshal decodes JSON keeping numbers as json.Number so large IDs are not rounded
func unmarshal(data []byte, v interface{}) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	return decoder.Decode(v)
}

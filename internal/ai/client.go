package ai

import (
	"errors"
	"fmt"
	"strings"
)

// Keys of the exported credential mapping
const (
	FieldEndpoint = "endpoint"
	FieldAPIKey   = "api_key"
	FieldModels   = "models"

	modelSeparator = ","
)

// ErrMissingField is matched by every MissingFieldError
var ErrMissingField = errors.New("missing field")

// MissingFieldError reports a mandatory credential field that was absent on import
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field: %s", e.Field)
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// APIClient is a set of credentials for a completion endpoint and the models it offers
type APIClient struct {
	Endpoint string
	APIKey   string
	Models   []string
}

// NewAPIClient creates an APIClient. No validation is performed; see Validate.
func NewAPIClient(endpoint string, apiKey string, models []string) APIClient {
	return APIClient{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Models:   models,
	}
}

// Validate checks that the mandatory fields are set
func (c APIClient) Validate() error {
	if c.Endpoint == "" {
		return &MissingFieldError{Field: FieldEndpoint}
	}
	if c.APIKey == "" {
		return &MissingFieldError{Field: FieldAPIKey}
	}
	return nil
}

// HasModel reports whether the endpoint offers the named model
func (c APIClient) HasModel(name string) bool {
	for _, m := range c.Models {
		if m == name {
			return true
		}
	}
	return false
}

// MaskedKey returns the API key with everything but the last four characters hidden
func (c APIClient) MaskedKey() string {
	if len(c.APIKey) <= 4 {
		return strings.Repeat("*", len(c.APIKey))
	}
	return strings.Repeat("*", len(c.APIKey)-4) + c.APIKey[len(c.APIKey)-4:]
}

// Store exports the client as a flat mapping. Models are comma-joined, so a model name that itself contains a comma
// will not survive ImportAPIClient intact.
func (c APIClient) Store() map[string]string {
	return map[string]string{
		FieldEndpoint: c.Endpoint,
		FieldAPIKey:   c.APIKey,
		FieldModels:   strings.Join(c.Models, modelSeparator),
	}
}

// ImportAPIClient rebuilds a client from the mapping produced by Store. The endpoint and API key are required; a missing
// model list yields no models.
func ImportAPIClient(data map[string]string) (APIClient, error) {
	endpoint, ok := data[FieldEndpoint]
	if !ok {
		return APIClient{}, &MissingFieldError{Field: FieldEndpoint}
	}
	apiKey, ok := data[FieldAPIKey]
	if !ok {
		return APIClient{}, &MissingFieldError{Field: FieldAPIKey}
	}
	models := []string{}
	if joined, ok := data[FieldModels]; ok {
		models = strings.Split(joined, modelSeparator)
	}
	return NewAPIClient(endpoint, apiKey, models), nil
}

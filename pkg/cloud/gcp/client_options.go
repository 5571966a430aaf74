package gcp

import (
	"context"
	"os"

	"cloud.google.com/go/storage"
	"github.com/buildbarn/bb-segment-storage/pkg/util"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// ClientOptionsConfiguration contains options for connecting to Google
// Cloud services.
type ClientOptionsConfiguration struct {
	// CredentialsFile is the path of a JSON file containing service
	// account credentials. If left empty, Application Default
	// Credentials are used.
	CredentialsFile string `json:"credentialsFile"`
	// Endpoint overrides the URL of the service. This is needed to
	// connect to emulators.
	Endpoint string `json:"endpoint"`
	// WithoutAuthentication disables authentication entirely.
	WithoutAuthentication bool `json:"withoutAuthentication"`
}

// NewClientOptionsFromConfiguration creates a list of Google Cloud SDK
// client options based on options specified in a configuration
// message. The resulting client options object can be used to access
// GCP services such as GCS.
func NewClientOptionsFromConfiguration(ctx context.Context, configuration *ClientOptionsConfiguration) ([]option.ClientOption, error) {
	var clientOptions []option.ClientOption
	if configuration.Endpoint != "" {
		clientOptions = append(clientOptions, option.WithEndpoint(configuration.Endpoint))
	}
	if configuration.WithoutAuthentication {
		return append(clientOptions, option.WithoutAuthentication()), nil
	}
	if configuration.CredentialsFile != "" {
		data, err := os.ReadFile(configuration.CredentialsFile)
		if err != nil {
			return nil, util.StatusWrapf(err, "Failed to read credentials file %#v", configuration.CredentialsFile)
		}
		credentials, err := google.CredentialsFromJSON(ctx, data, storage.ScopeReadWrite)
		if err != nil {
			return nil, util.StatusWrap(err, "Failed to parse credentials")
		}
		clientOptions = append(clientOptions, option.WithCredentials(credentials))
	}
	return clientOptions, nil
}

// NewStorageClientFromConfiguration creates a Google Cloud Storage
// client based on options specified in a configuration message.
func NewStorageClientFromConfiguration(ctx context.Context, configuration *ClientOptionsConfiguration) (StorageClient, error) {
	clientOptions, err := NewClientOptionsFromConfiguration(ctx, configuration)
	if err != nil {
		return nil, err
	}
	client, err := storage.NewClient(ctx, clientOptions...)
	if err != nil {
		return nil, util.StatusWrap(err, "Failed to create Google Cloud Storage client")
	}
	return NewWrappedStorageClient(client), nil
}

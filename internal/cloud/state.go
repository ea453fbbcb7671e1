// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// This file is responsible for initializing and holding all the client
// objects needed to communicate with external services. It acts as a
// dependency injection container, creating a single shared ServiceClients
// struct that is passed throughout the application.
//
// Logic Flow:
//  1. NewCloudServiceClients is called at application startup with the
//     loaded configuration.
//  2. It initializes the Google Cloud Storage and IAM credentials clients.
//  3. It builds one OpenAI-compatible chat client per configured script
//     model, pointed at the gateway's base URL and authenticated with the
//     API key named by the model's api_key_env, then wraps each in the
//     rate-limiting QuotaAwareChatModel.
//  4. It creates the shared HTTP client used by the narration, visual,
//     image, and caption services.
package cloud

import (
	"context"
	"net/http"
	"os"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/storage"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// ServiceClients is a container for all the clients that interact with
// external services. This pattern is a form of dependency injection, making
// it easy to share these connections across the application.
type ServiceClients struct {
	StorageClient *storage.Client                   // Client for Google Cloud Storage (GCS).
	IAMClient     *credentials.IamCredentialsClient // Client for IAM, used to sign GCS URLs.
	ScriptModels  map[string]*QuotaAwareChatModel   // Configured chat models, keyed by a logical name from the config.
	HTTPClient    *http.Client                      // Shared HTTP client for the media synthesis services.
}

// Close gracefully shuts down the active client connections. Connections
// are normally managed by the application's root context; this method gives
// tests and controlled shutdowns an explicit release.
func (c *ServiceClients) Close() {
	_ = c.StorageClient.Close()
	if c.IAMClient != nil {
		_ = c.IAMClient.Close()
	}
}

// NewCloudServiceClients initializes all required service clients based on
// the provided configuration. It is the main entry point for setting up the
// application's external dependencies.
func NewCloudServiceClients(ctx context.Context, config *Config) (cloud *ServiceClients, err error) {
	// Create a new Google Cloud Storage client.
	sc, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}

	// Create the IAM credentials client used to mint V4 signed URLs on
	// behalf of the signer service account.
	ic, err := credentials.NewIamCredentialsClient(ctx)
	if err != nil {
		return nil, err
	}

	// Build one chat client per configured script model and wrap it with
	// the rate limiter. Keys come from the environment, never from TOML.
	scriptModels := make(map[string]*QuotaAwareChatModel)
	for smKey := range config.ScriptModels {
		values := config.ScriptModels[smKey]
		opts := []option.RequestOption{
			option.WithAPIKey(os.Getenv(values.APIKeyEnv)),
		}
		if values.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(values.BaseURL))
		}
		client := openai.NewClient(opts...)
		scriptModels[smKey] = NewQuotaAwareChatModel(client, values)
	}

	// The media synthesis services download multi-megabyte clips, so the
	// shared client carries a generous timeout.
	httpClient := &http.Client{Timeout: 5 * time.Minute}

	cloud = &ServiceClients{
		StorageClient: sc,
		IAMClient:     ic,
		ScriptModels:  scriptModels,
		HTTPClient:    httpClient,
	}

	return cloud, err
}

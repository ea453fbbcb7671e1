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

package services_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelcraft/training-video-generator/internal/cloud"
	"github.com/reelcraft/training-video-generator/internal/core/services"
)

// TestImageGenURLResponse verifies the download path: the API returns a
// URL and the service fetches the image from it.
func TestImageGenURLResponse(t *testing.T) {
	t.Setenv("TEST_IMAGE_KEY", "image-secret")

	mux := http.NewServeMux()
	var server *httptest.Server

	mux.HandleFunc("POST /", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer image-secret", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, float64(1), req["n"])
		assert.Equal(t, "1024x1024", req["size"])
		assert.Equal(t, "png", req["output_format"])

		_, _ = fmt.Fprintf(w, `{"data":[{"url":"%s/img.png"}]}`, server.URL)
	})
	mux.HandleFunc("GET /img.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("png-bytes"))
	})

	server = httptest.NewServer(mux)
	defer server.Close()

	service := services.NewImageGenService(server.Client(), cloud.Image{
		BaseURL:   server.URL,
		APIKeyEnv: "TEST_IMAGE_KEY",
	})

	outputPath := filepath.Join(t.TempDir(), "visual_1.png")
	require.NoError(t, service.Synthesize(context.Background(), "forklift warning signage", outputPath))

	content, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(content))
}

// TestImageGenBase64Response verifies the inline path: the API returns the
// image bytes base64-encoded and the service decodes them to disk.
func TestImageGenBase64Response(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("inline-png"))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, `{"data":[{"b64_json":"%s"}]}`, encoded)
	}))
	defer server.Close()

	service := services.NewImageGenService(server.Client(), cloud.Image{BaseURL: server.URL})

	outputPath := filepath.Join(t.TempDir(), "visual_2.png")
	require.NoError(t, service.Synthesize(context.Background(), "prompt", outputPath))

	content, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, "inline-png", string(content))
}

// TestImageGenEmptyResponse verifies an empty data list is an error.
func TestImageGenEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"data":[]}`)
	}))
	defer server.Close()

	service := services.NewImageGenService(server.Client(), cloud.Image{BaseURL: server.URL})
	err := service.Synthesize(context.Background(), "prompt", filepath.Join(t.TempDir(), "v.png"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no image data")
}

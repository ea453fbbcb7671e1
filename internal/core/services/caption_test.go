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
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelcraft/training-video-generator/internal/cloud"
	"github.com/reelcraft/training-video-generator/internal/core/services"
)

// newCaptionConfig returns a caption config pointed at the test server
// with the shortest polling the config allows.
func newCaptionConfig(baseURL string) cloud.Caption {
	return cloud.Caption{
		BaseURL:             baseURL,
		APIKeyEnv:           "TEST_CAPTION_KEY",
		TemplateID:          "template-1",
		PollIntervalSeconds: 1,
		MaxPolls:            3,
	}
}

// TestCaptionRender walks the happy path: render creation with the video
// substituted into the template, polling, and the rendered URL.
func TestCaptionRender(t *testing.T) {
	t.Setenv("TEST_CAPTION_KEY", "caption-secret")

	polls := 0
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v2/renders", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer caption-secret", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "template-1", req["template_id"])

		mods := req["modifications"].(map[string]any)
		assert.Equal(t, "https://cdn.example.com/video.mp4", mods["Video-DHM.source"])

		_ = json.NewEncoder(w).Encode(map[string]string{"id": "render-1", "status": "planned"})
	})
	mux.HandleFunc("GET /v2/renders/render-1", func(w http.ResponseWriter, r *http.Request) {
		polls++
		if polls < 2 {
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "render-1", "status": "rendering"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id": "render-1", "status": "completed", "url": "https://cdn.example.com/captioned.mp4",
		})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	service := services.NewCaptionRenderService(server.Client(), newCaptionConfig(server.URL))
	url, err := service.Render(context.Background(), "https://cdn.example.com/video.mp4")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/captioned.mp4", url)
}

// TestCaptionRenderListResponse verifies the alternative creation response
// shape: a list of render objects instead of a single one.
func TestCaptionRenderListResponse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v2/renders", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `[{"id":"render-2","status":"planned"}]`)
	})
	mux.HandleFunc("GET /v2/renders/render-2", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id": "render-2", "status": "succeeded", "url": "https://cdn.example.com/captioned-2.mp4",
		})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	service := services.NewCaptionRenderService(server.Client(), newCaptionConfig(server.URL))
	url, err := service.Render(context.Background(), "https://cdn.example.com/video.mp4")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/captioned-2.mp4", url)
}

// TestCaptionRenderFailure verifies a failed render surfaces the upstream
// message as an error.
func TestCaptionRenderFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v2/renders", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "render-3"})
	})
	mux.HandleFunc("GET /v2/renders/render-3", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id": "render-3", "status": "failed", "error_message": "template element not found",
		})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	service := services.NewCaptionRenderService(server.Client(), newCaptionConfig(server.URL))
	_, err := service.Render(context.Background(), "https://cdn.example.com/video.mp4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template element not found")
}

// TestCaptionRenderTimeout verifies the fallback contract: when the render
// never completes within the polling window, an empty URL is returned
// without an error, so callers never mistake the uncaptioned video for a
// captioned one.
func TestCaptionRenderTimeout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v2/renders", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "render-4"})
	})
	mux.HandleFunc("GET /v2/renders/render-4", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "render-4", "status": "rendering"})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := newCaptionConfig(server.URL)
	cfg.MaxPolls = 2
	service := services.NewCaptionRenderService(server.Client(), cfg)

	url, err := service.Render(context.Background(), "https://cdn.example.com/original.mp4")
	require.NoError(t, err)
	assert.Empty(t, url)
}

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

// Package services_test exercises the synthesis service clients against
// local httptest doubles that speak the upstream wire formats.
package services_test

import (
	"context"
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

// newClipConfig returns a visual config pointed at the test server with
// the shortest polling the config allows.
func newClipConfig(baseURL string) cloud.Visual {
	return cloud.Visual{
		BaseURL:             baseURL,
		APIKeyEnv:           "TEST_VISUAL_KEY",
		Model:               "video-gen-pro",
		Resolution:          "1080p",
		DurationSeconds:     10,
		PollIntervalSeconds: 1,
		MaxPolls:            5,
	}
}

// TestClipTaskSynthesize walks the full happy path: task creation, status
// polling until success, and clip download.
func TestClipTaskSynthesize(t *testing.T) {
	t.Setenv("TEST_VISUAL_KEY", "test-secret")

	polls := 0
	mux := http.NewServeMux()
	var server *httptest.Server

	mux.HandleFunc("POST /", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-secret", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "video-gen-pro", req["model"])

		// The generation parameters ride along in the prompt text.
		content := req["content"].([]any)[0].(map[string]any)
		assert.Contains(t, content["text"], "--resolution 1080p")
		assert.Contains(t, content["text"], "--duration 10")

		_ = json.NewEncoder(w).Encode(map[string]string{"id": "task-1", "status": "queued"})
	})
	mux.HandleFunc("GET /task-1", func(w http.ResponseWriter, r *http.Request) {
		polls++
		if polls < 2 {
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "task-1", "status": "running"})
			return
		}
		_, _ = fmt.Fprintf(w, `{"id":"task-1","status":"succeeded","content":{"video_url":"%s/video.mp4"}}`, server.URL)
	})
	mux.HandleFunc("GET /video.mp4", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("clip-bytes"))
	})

	server = httptest.NewServer(mux)
	defer server.Close()

	service := services.NewClipTaskService(server.Client(), newClipConfig(server.URL))
	outputPath := filepath.Join(t.TempDir(), "visual_1.mp4")

	err := service.Synthesize(context.Background(), "forklift approaching a loading dock", outputPath)
	require.NoError(t, err)

	content, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, "clip-bytes", string(content))
}

// TestClipTaskOutputsShape verifies the clip URL is found when the API
// reports it in the outputs list instead of the content object.
func TestClipTaskOutputsShape(t *testing.T) {
	mux := http.NewServeMux()
	var server *httptest.Server

	mux.HandleFunc("POST /", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "task-2"})
	})
	mux.HandleFunc("GET /task-2", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, `{"id":"task-2","status":"succeeded","outputs":[{"type":"video","url":"%s/out.mp4"}]}`, server.URL)
	})
	mux.HandleFunc("GET /out.mp4", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	})

	server = httptest.NewServer(mux)
	defer server.Close()

	service := services.NewClipTaskService(server.Client(), newClipConfig(server.URL))
	err := service.Synthesize(context.Background(), "prompt", filepath.Join(t.TempDir(), "v.mp4"))
	assert.NoError(t, err)
}

// TestClipTaskFailure verifies a failed task surfaces the upstream error
// message.
func TestClipTaskFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "task-3"})
	})
	mux.HandleFunc("GET /task-3", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"id":"task-3","status":"failed","error":{"code":"quota","message":"generation quota exceeded"}}`)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	service := services.NewClipTaskService(server.Client(), newClipConfig(server.URL))
	err := service.Synthesize(context.Background(), "prompt", filepath.Join(t.TempDir(), "v.mp4"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generation quota exceeded")
}

// TestClipTaskCreateRejected verifies a non-2xx creation response becomes
// an error carrying the upstream body.
func TestClipTaskCreateRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid model"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	service := services.NewClipTaskService(server.Client(), newClipConfig(server.URL))
	err := service.Synthesize(context.Background(), "prompt", filepath.Join(t.TempDir(), "v.mp4"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid model")
}

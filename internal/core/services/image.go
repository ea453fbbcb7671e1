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

// This file implements the client for the still-image generation service,
// used when a request selects the image-based video type. The endpoint is
// synchronous; the response carries either a download URL or the image
// bytes inline as base64.
package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/reelcraft/training-video-generator/internal/cloud"
)

// ImageGenService synthesizes still images for segments.
type ImageGenService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	size    string
}

// NewImageGenService builds the service from configuration, reading the
// API key from the environment variable the config names.
func NewImageGenService(client *http.Client, cfg cloud.Image) *ImageGenService {
	s := &ImageGenService{
		client:  client,
		baseURL: cfg.BaseURL,
		apiKey:  os.Getenv(cfg.APIKeyEnv),
		size:    cfg.Size,
	}
	if s.size == "" {
		s.size = "1024x1024"
	}
	return s
}

type imageGenRequest struct {
	Prompt       string `json:"prompt"`
	N            int    `json:"n"`
	Size         string `json:"size"`
	OutputFormat string `json:"output_format"`
}

type imageGenResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// Synthesize generates one image for the prompt and writes it to
// outputPath.
func (s *ImageGenService) Synthesize(ctx context.Context, prompt string, outputPath string) error {
	payload, err := json.Marshal(imageGenRequest{
		Prompt:       prompt,
		N:            1,
		Size:         s.size,
		OutputFormat: "png",
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to image generation API: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return readAPIError("image generation", resp)
	}

	var result imageGenResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("invalid image generation response: %w", err)
	}
	if len(result.Data) == 0 {
		return fmt.Errorf("no image data found in response")
	}

	switch data := result.Data[0]; {
	case data.URL != "":
		return downloadToFile(ctx, s.client, data.URL, outputPath)
	case data.B64JSON != "":
		imageBytes, err := base64.StdEncoding.DecodeString(data.B64JSON)
		if err != nil {
			return fmt.Errorf("failed to decode base64 image data: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
			return err
		}
		return os.WriteFile(outputPath, imageBytes, 0o644)
	default:
		return fmt.Errorf("no image data found in response")
	}
}

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

// This file implements the client for the text-to-speech narration
// service. The endpoint is synchronous and streams the audio bytes back
// directly in the response body.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/reelcraft/training-video-generator/internal/cloud"
)

// TTSService converts narration scripts into audio files.
type TTSService struct {
	client          *http.Client
	baseURL         string
	apiKey          string
	voiceID         string
	modelID         string
	stability       float64
	similarityBoost float64
}

// NewTTSService builds the service from configuration, reading the API
// key from the environment variable the config names.
func NewTTSService(client *http.Client, cfg cloud.Narration) *TTSService {
	s := &TTSService{
		client:          client,
		baseURL:         cfg.BaseURL,
		apiKey:          os.Getenv(cfg.APIKeyEnv),
		voiceID:         cfg.VoiceID,
		modelID:         cfg.ModelID,
		stability:       cfg.Stability,
		similarityBoost: cfg.SimilarityBoost,
	}
	if s.modelID == "" {
		s.modelID = "eleven_monolingual_v1"
	}
	if s.stability == 0 {
		s.stability = 0.5
	}
	if s.similarityBoost == 0 {
		s.similarityBoost = 0.5
	}
	return s
}

type ttsRequest struct {
	Text          string           `json:"text"`
	ModelID       string           `json:"model_id"`
	VoiceSettings ttsVoiceSettings `json:"voice_settings"`
}

type ttsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Narrate sends the text through the configured voice and writes the
// returned audio to outputPath.
func (s *TTSService) Narrate(ctx context.Context, text string, outputPath string) error {
	payload, err := json.Marshal(ttsRequest{
		Text:    text,
		ModelID: s.modelID,
		VoiceSettings: ttsVoiceSettings{
			Stability:       s.stability,
			SimilarityBoost: s.similarityBoost,
		},
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", s.baseURL, s.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("xi-api-key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to narration API: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return readAPIError("narration", resp)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to write narration audio: %w", err)
	}
	return nil
}

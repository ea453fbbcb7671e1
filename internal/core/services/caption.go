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

// This file implements the client for the template-based caption rendering
// service. A render is started against a preconfigured template with the
// source video URL substituted into the template's video element, then
// polled until the rendered file is available.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/reelcraft/training-video-generator/internal/cloud"
)

// CaptionRenderService renders captions onto published videos through the
// render template API.
type CaptionRenderService struct {
	client       *http.Client
	baseURL      string
	apiKey       string
	templateID   string
	sourceField  string
	pollInterval time.Duration
	maxPolls     int
}

// NewCaptionRenderService builds the service from configuration, reading
// the API key from the environment variable the config names.
func NewCaptionRenderService(client *http.Client, cfg cloud.Caption) *CaptionRenderService {
	s := &CaptionRenderService{
		client:       client,
		baseURL:      cfg.BaseURL,
		apiKey:       os.Getenv(cfg.APIKeyEnv),
		templateID:   cfg.TemplateID,
		sourceField:  cfg.SourceField,
		pollInterval: time.Duration(cfg.PollIntervalSeconds) * time.Second,
		maxPolls:     cfg.MaxPolls,
	}
	if s.sourceField == "" {
		s.sourceField = "Video-DHM.source"
	}
	if s.pollInterval <= 0 {
		s.pollInterval = 10 * time.Second
	}
	if s.maxPolls <= 0 {
		s.maxPolls = 30
	}
	return s
}

type captionRenderRequest struct {
	TemplateID    string            `json:"template_id"`
	Modifications map[string]string `json:"modifications"`
}

type captionRenderStatus struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	URL          string `json:"url"`
	ErrorMessage string `json:"error_message"`
}

// Render starts a caption render for the video and polls it to completion,
// returning the URL of the captioned file. If the render does not finish
// within the polling window an empty URL is returned with no error, so
// callers fall back to the uncaptioned video without mistaking it for a
// captioned one.
func (s *CaptionRenderService) Render(ctx context.Context, videoURL string) (string, error) {
	payload, err := json.Marshal(captionRenderRequest{
		TemplateID:    s.templateID,
		Modifications: map[string]string{s.sourceField: videoURL},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v2/renders", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to connect to caption rendering API: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", readAPIError("caption rendering", resp)
	}

	renderID, err := decodeRenderID(resp)
	if err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "caption render started", "render_id", renderID, "template_id", s.templateID)

	return s.pollRender(ctx, renderID)
}

// decodeRenderID handles both response shapes the render API uses: a
// single render object or a list of them.
func decodeRenderID(resp *http.Response) (string, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("invalid render creation response: %w", err)
	}

	var single captionRenderStatus
	if err := json.Unmarshal(raw, &single); err == nil && single.ID != "" {
		return single.ID, nil
	}
	var list []captionRenderStatus
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 && list[0].ID != "" {
		return list[0].ID, nil
	}
	return "", fmt.Errorf("no render ID found in response")
}

func (s *CaptionRenderService) pollRender(ctx context.Context, renderID string) (string, error) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for attempt := 1; attempt <= s.maxPolls; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		status, err := s.getRender(ctx, renderID)
		if err != nil {
			return "", err
		}
		slog.DebugContext(ctx, "caption render status", "render_id", renderID, "attempt", attempt, "status", status.Status)

		switch status.Status {
		case "completed", "succeeded":
			if status.URL == "" {
				return "", fmt.Errorf("caption render %s completed without a URL", renderID)
			}
			return status.URL, nil
		case "failed":
			msg := status.ErrorMessage
			if msg == "" {
				msg = "unknown error"
			}
			return "", fmt.Errorf("caption render %s failed: %s", renderID, msg)
		}
	}

	slog.WarnContext(ctx, "caption render did not complete within the polling window",
		"render_id", renderID)
	return "", nil
}

func (s *CaptionRenderService) getRender(ctx context.Context, renderID string) (*captionRenderStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/v2/renders/%s", s.baseURL, renderID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query caption render %s: %w", renderID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError("caption rendering", resp)
	}

	var status captionRenderStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("invalid render status response: %w", err)
	}
	return &status, nil
}

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

// This file implements the client for the asynchronous clip synthesis
// service. Clip generation is a long-running operation: a task is created
// with the generation prompt, its status is polled on a fixed interval, and
// the finished clip is downloaded once the task reports success.
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

// ClipTaskService synthesizes video clips through the task-based
// generation API.
type ClipTaskService struct {
	client       *http.Client
	baseURL      string
	apiKey       string
	model        string
	resolution   string
	duration     int
	pollInterval time.Duration
	maxPolls     int
}

// NewClipTaskService builds the service from configuration, reading the
// API key from the environment variable the config names.
func NewClipTaskService(client *http.Client, cfg cloud.Visual) *ClipTaskService {
	s := &ClipTaskService{
		client:       client,
		baseURL:      cfg.BaseURL,
		apiKey:       os.Getenv(cfg.APIKeyEnv),
		model:        cfg.Model,
		resolution:   cfg.Resolution,
		duration:     cfg.DurationSeconds,
		pollInterval: time.Duration(cfg.PollIntervalSeconds) * time.Second,
		maxPolls:     cfg.MaxPolls,
	}
	if s.resolution == "" {
		s.resolution = "1080p"
	}
	if s.duration <= 0 {
		s.duration = 10
	}
	if s.pollInterval <= 0 {
		s.pollInterval = 25 * time.Second
	}
	if s.maxPolls <= 0 {
		s.maxPolls = 30
	}
	return s
}

type clipTaskRequest struct {
	Model   string            `json:"model"`
	Content []clipTaskContent `json:"content"`
}

type clipTaskContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// clipTaskStatus covers the response shapes the task API uses across
// versions; the video URL has appeared in three different places.
type clipTaskStatus struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Content struct {
		VideoURL string `json:"video_url"`
	} `json:"content"`
	Result struct {
		Content []struct {
			Type string `json:"type"`
			URL  string `json:"url"`
		} `json:"content"`
	} `json:"result"`
	Outputs []struct {
		Type string `json:"type"`
		URL  string `json:"url"`
	} `json:"outputs"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// videoURL returns the clip URL from whichever field the API populated.
func (s *clipTaskStatus) videoURL() string {
	if s.Content.VideoURL != "" {
		return s.Content.VideoURL
	}
	for _, c := range s.Result.Content {
		if c.Type == "video" {
			return c.URL
		}
	}
	for _, o := range s.Outputs {
		if o.Type == "video" {
			return o.URL
		}
	}
	return ""
}

// Synthesize creates a generation task for the prompt, polls it to
// completion, and downloads the clip to outputPath.
func (s *ClipTaskService) Synthesize(ctx context.Context, prompt string, outputPath string) error {
	// Generation parameters ride along in the prompt per the task API's
	// inline directive format.
	formattedPrompt := fmt.Sprintf("%s --resolution %s --duration %d --camerafixed false",
		prompt, s.resolution, s.duration)

	taskID, err := s.createTask(ctx, formattedPrompt)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "clip synthesis task created", "task_id", taskID)

	videoURL, err := s.pollTask(ctx, taskID)
	if err != nil {
		return err
	}

	if err := downloadToFile(ctx, s.client, videoURL, outputPath); err != nil {
		return fmt.Errorf("failed to download clip for task %s: %w", taskID, err)
	}
	slog.InfoContext(ctx, "clip downloaded", "task_id", taskID, "path", outputPath)
	return nil
}

func (s *ClipTaskService) createTask(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(clipTaskRequest{
		Model:   s.model,
		Content: []clipTaskContent{{Type: "text", Text: prompt}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to connect to clip synthesis API: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", readAPIError("clip synthesis", resp)
	}

	var status clipTaskStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return "", fmt.Errorf("invalid task creation response: %w", err)
	}
	if status.ID == "" {
		return "", fmt.Errorf("no task ID returned from clip synthesis API")
	}
	return status.ID, nil
}

// pollTask checks the task status on the configured interval until it
// succeeds, fails, or runs out of attempts.
func (s *ClipTaskService) pollTask(ctx context.Context, taskID string) (string, error) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for attempt := 1; attempt <= s.maxPolls; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		status, err := s.getTask(ctx, taskID)
		if err != nil {
			return "", err
		}
		slog.DebugContext(ctx, "clip task status", "task_id", taskID, "attempt", attempt, "status", status.Status)

		switch status.Status {
		case "succeeded":
			url := status.videoURL()
			if url == "" {
				return "", fmt.Errorf("no video URL found in completed task %s", taskID)
			}
			return url, nil
		case "failed":
			msg := status.Error.Message
			if msg == "" {
				msg = "unknown error"
			}
			return "", fmt.Errorf("clip synthesis task %s failed: %s", taskID, msg)
		}
	}
	return "", fmt.Errorf("clip synthesis task %s timed out after %d attempts", taskID, s.maxPolls)
}

func (s *ClipTaskService) getTask(ctx context.Context, taskID string) (*clipTaskStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", s.baseURL, taskID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query clip synthesis task %s: %w", taskID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError("clip synthesis", resp)
	}

	var status clipTaskStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("invalid task status response: %w", err)
	}
	return &status, nil
}

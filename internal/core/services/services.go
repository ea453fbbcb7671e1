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

// Package services contains the clients for the external media synthesis
// collaborators (clip, image, narration, caption rendering) and the
// publishing layer for Google Cloud Storage. Each service is defined behind
// a small interface so workflows can be tested with stubs.
package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// Synthesizer produces the visual asset for one segment: a video clip or a
// still image, written to outputPath.
type Synthesizer interface {
	Synthesize(ctx context.Context, prompt string, outputPath string) error
}

// Narrator converts narration text into an audio file at outputPath.
type Narrator interface {
	Narrate(ctx context.Context, text string, outputPath string) error
}

// CaptionRenderer sends a published video through the caption template and
// returns the URL of the rendered result.
type CaptionRenderer interface {
	Render(ctx context.Context, videoURL string) (string, error)
}

// Publisher uploads a finished video to object storage and returns its
// public and signed URLs.
type Publisher interface {
	Publish(ctx context.Context, localPath string, objectName string) (*PublishedObject, error)
}

// readAPIError drains a non-2xx response into an error carrying the status
// code and body, mirroring what the upstream actually said.
func readAPIError(service string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("%s API error: %d - %s", service, resp.StatusCode, string(body))
}

// downloadToFile streams a URL to a local file, creating parent directories
// as needed.
func downloadToFile(ctx context.Context, client *http.Client, url string, outputPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return readAPIError("download", resp)
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
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	return nil
}

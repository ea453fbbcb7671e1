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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files, and holds the shared clients for every external
// collaborator: Google Cloud Storage, the OpenAI-compatible script gateway,
// and the narration, visual, image, and caption synthesis services.
//
// This file centralizes all configuration-related structs. Secrets are never
// stored in the TOML files; each service section names the environment
// variable its API key is read from.
package cloud

// PromptTemplates holds the text templates for the four script-generation
// stages. Each template is parsed as a text/template by the command that
// owns it.
type PromptTemplates struct {
	RiskAnalysis string `toml:"risk_analysis"` // Template for the workplace risk analysis prompt.
	Outline      string `toml:"outline"`       // Template for the course outline prompt.
	Segmentation string `toml:"segmentation"`  // Template for the video segmentation prompt.
	ClipPrompts  string `toml:"clip_prompts"`  // Template for the per-segment clip prompt triples.
}

// ScriptModel configures one chat model on the OpenAI-compatible gateway.
type ScriptModel struct {
	Model              string  `toml:"model"`               // The model name passed to the gateway.
	BaseURL            string  `toml:"base_url"`            // The gateway endpoint, e.g. "https://llm.internal/v1".
	APIKeyEnv          string  `toml:"api_key_env"`         // Name of the environment variable holding the API key.
	SystemInstructions string  `toml:"system_instructions"` // The system message sent with every request.
	Temperature        float64 `toml:"temperature"`
	TopP               float64 `toml:"top_p"`
	MaxTokens          int64   `toml:"max_tokens"`
	RateLimit          int     `toml:"rate_limit"` // Requests per second allowed against the gateway.
}

// Narration configures the text-to-speech service.
type Narration struct {
	BaseURL         string  `toml:"base_url"`
	APIKeyEnv       string  `toml:"api_key_env"`
	VoiceID         string  `toml:"voice_id"`
	ModelID         string  `toml:"model_id"`
	Stability       float64 `toml:"stability"`
	SimilarityBoost float64 `toml:"similarity_boost"`
}

// Visual configures the asynchronous clip synthesis service. Clip requests
// return a task id that is polled until the clip is ready for download.
type Visual struct {
	BaseURL             string `toml:"base_url"`
	APIKeyEnv           string `toml:"api_key_env"`
	Model               string `toml:"model"`
	Resolution          string `toml:"resolution"`
	DurationSeconds     int    `toml:"duration_seconds"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"` // Seconds between task status polls.
	MaxPolls            int    `toml:"max_polls"`             // Attempts before the task is declared stuck.
}

// Image configures the still-image generation service used when a request
// asks for the image-based video type.
type Image struct {
	BaseURL   string `toml:"base_url"`
	APIKeyEnv string `toml:"api_key_env"`
	Size      string `toml:"size"` // e.g. "1024x1024"
}

// Caption configures the template-based caption rendering service. A render
// is started against a template with the source video URL substituted in,
// then polled until the rendered file is available.
type Caption struct {
	BaseURL             string `toml:"base_url"`
	APIKeyEnv           string `toml:"api_key_env"`
	TemplateID          string `toml:"template_id"`
	SourceField         string `toml:"source_field"` // Template modification key for the video source.
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
	MaxPolls            int    `toml:"max_polls"`
}

// Assembly configures the local ffmpeg toolchain.
type Assembly struct {
	FFmpegPath          string  `toml:"ffmpeg_path"`
	FFprobePath         string  `toml:"ffprobe_path"`
	DefaultClipSeconds  float64 `toml:"default_clip_seconds"` // Fallback duration when ffprobe cannot read a clip.
	FrameWidth          int     `toml:"frame_width"`
	FrameHeight         int     `toml:"frame_height"`
	WordsPerCaptionLine int     `toml:"words_per_caption_line"`
}

// Pipeline holds the run-level knobs for the generation workflow.
type Pipeline struct {
	SegmentCount int    `toml:"segment_count"` // Number of segments the course is split into.
	ScratchDir   string `toml:"scratch_dir"`   // Root directory for per-run scratch subdirectories.
	OutputDir    string `toml:"output_dir"`    // Directory finished videos are assembled into; served at /video.
}

// Storage represents the configuration for the output bucket.
type Storage struct {
	OutputBucket          string `toml:"output_bucket"`             // Bucket the finished videos are published to.
	OutputPrefix          string `toml:"output_prefix"`             // Object name prefix within the bucket.
	SignedURLTTLInMinutes int    `toml:"signed_url_ttl_in_minutes"` // Lifetime of the V4 signed download URL.
}

// Config represents the overall configuration for the application, loaded
// from TOML files. It acts as the root container for all other
// configuration structs.
type Config struct {
	// Application holds general application settings.
	Application struct {
		Name                      string `toml:"name"`
		GoogleProjectId           string `toml:"google_project_id"`
		GoogleLocation            string `toml:"location"`
		Port                      int    `toml:"port"`
		SignerServiceAccountEmail string `toml:"signer_service_account_email"` // Service account used for signing GCS URLs.
	} `toml:"application"`
	Storage         Storage                `toml:"storage"`
	PromptTemplates PromptTemplates        `toml:"prompt_templates"`
	ScriptModels    map[string]ScriptModel `toml:"script_models"` // Chat models keyed by a logical name (e.g. "script-writer").
	Narration       Narration              `toml:"narration"`
	Visual          Visual                 `toml:"visual"`
	Image           Image                  `toml:"image"`
	Caption         Caption                `toml:"caption"`
	Assembly        Assembly               `toml:"assembly"`
	Pipeline        Pipeline               `toml:"pipeline"`
}

// NewConfig creates a new, initialized Config instance. The map fields must
// be initialized before the TOML loader populates them.
func NewConfig() *Config {
	return &Config{
		ScriptModels: make(map[string]ScriptModel),
	}
}

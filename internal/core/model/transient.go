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

// Package model defines the transient data structures that flow through a
// single generation run: the inbound request, the intermediate artifacts
// produced by the script stages, the per-segment asset records consumed by
// assembly, and the outbound result. Nothing in this package is persisted;
// every value lives exactly as long as one pipeline run.
package model

import "fmt"

// VideoType selects the visual synthesis path for a generation run.
type VideoType string

const (
	VideoTypeVideo VideoType = "video" // per-segment video clips
	VideoTypeImage VideoType = "image" // per-segment still images, animated at assembly
)

// Valid reports whether the value is one of the two supported types.
func (v VideoType) Valid() bool {
	return v == VideoTypeVideo || v == VideoTypeImage
}

// GenerationRequest is the inbound payload for POST /api/generate_video.
// It is immutable once accepted.
type GenerationRequest struct {
	JobTitle       string    `json:"job_title" binding:"required"`
	JobDescription string    `json:"job_description" binding:"required"`
	Location       string    `json:"location" binding:"required"`
	EquipmentUsed  string    `json:"equipment_used" binding:"required"`
	IndustrySector string    `json:"industry_sector" binding:"required"`
	VideoType      VideoType `json:"video_type" binding:"required,oneof=video image"`
}

// RiskAnalysis is the structured output of the risk stage. The three
// slices are parallel: severity and mitigation at index i belong to the
// risk at index i.
type RiskAnalysis struct {
	Risks                []string `json:"risks" jsonschema_description:"Identified workplace risks for the job."`
	SeverityLevels       []string `json:"severity_levels" jsonschema_description:"Severity level for each risk, in the same order."`
	MitigationStrategies []string `json:"mitigation_strategies" jsonschema_description:"Mitigation strategy for each risk, in the same order."`
}

// CourseOutline is the structured output of the outline stage.
type CourseOutline struct {
	Title       string   `json:"title" jsonschema_description:"Title of the training course."`
	Description string   `json:"description" jsonschema_description:"One-paragraph description of the course."`
	Sections    []string `json:"sections" jsonschema_description:"Ordered list of course sections."`
}

// Segment is one narrated sub-unit of the final video.
type Segment struct {
	Description string `json:"description" jsonschema_description:"What this segment of the video should cover."`
}

// Segmentation is the structured output of the segmentation stage: the
// ordered list of segments the video will be built from.
type Segmentation struct {
	Segments []Segment `json:"segments" jsonschema_description:"Ordered video segments covering the full course."`
}

// ClipPrompt carries the three generation prompts for one segment.
type ClipPrompt struct {
	VideoPrompt  string `json:"video_prompt" jsonschema_description:"Prompt describing the visual content of the clip."`
	AudioPrompt  string `json:"audio_prompt" jsonschema_description:"Narration script for the clip."`
	SubtitleText string `json:"subtitle_text" jsonschema_description:"Short title-style subtitle, at most ten words."`
}

// ClipPromptSet is the structured output of the clip-prompt stage, one
// entry per segment in segment order.
type ClipPromptSet struct {
	Clips []ClipPrompt `json:"clips" jsonschema_description:"One prompt triple per video segment, in segment order."`
}

// SegmentAsset records the scratch files synthesized for one segment.
// Both paths must exist before the segment may enter assembly; a missing
// or empty audio file is replaced with silence by the assembler.
type SegmentAsset struct {
	SequenceNumber int    // 1-based segment index
	VisualPath     string // video clip or still image under the run's scratch dir
	AudioPath      string // narration audio; may be absent when narration failed
	SubtitleText   string
}

// GenerationResult is the outbound payload for POST /api/generate_video.
type GenerationResult struct {
	VideoURL          string    `json:"video_url"`
	StorageURL        string    `json:"storage_url"`
	SignedURL         string    `json:"signed_url,omitempty"`
	CaptionedVideoURL string    `json:"captioned_video_url,omitempty"`
	JobTitle          string    `json:"job_title"`
	CourseTitle       string    `json:"course_title"`
	Duration          float64   `json:"duration"`
	ClipCount         int       `json:"clip_count"`
	VideoType         VideoType `json:"video_type"`
	CreatedAt         string    `json:"created_at"`
}

// CaptionRequest is the inbound payload for POST /api/caption_generator.
// It references an already-stored video and never touches the generation
// pipeline.
type CaptionRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	VideoURL    string `json:"video_url" binding:"required,url"`
}

// CaptionResult is the outbound payload for POST /api/caption_generator.
type CaptionResult struct {
	OriginalVideoURL  string `json:"original_video_url"`
	CaptionedVideoURL string `json:"captioned_video_url"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	CreatedAt         string `json:"created_at"`
}

// StageError identifies which pipeline stage failed and carries the
// upstream detail. Segment is zero for stages that are not per-segment.
type StageError struct {
	Stage   string
	Segment int
	Err     error
}

func (e *StageError) Error() string {
	if e.Segment > 0 {
		return fmt.Sprintf("%s, segment %d: %v", e.Stage, e.Segment, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

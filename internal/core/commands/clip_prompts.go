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

// This file defines the command for the last script stage: the per-segment
// prompt triples. For every segment it asks the model for a visual
// generation prompt, a narration script, and a short subtitle, worded for
// the request's video type (clip prompts for video, still-image prompts
// for image). The parsed list is normalized to the segment count with
// generic placeholders, matching the segmentation stage.
package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/reelcraft/training-video-generator/internal/cloud"
	"github.com/reelcraft/training-video-generator/internal/core/cor"
	"github.com/reelcraft/training-video-generator/internal/core/model"
)

var clipPromptSchema = cloud.GenerateSchema[model.ClipPromptSet]()

// ClipPromptCreator is a command that uses the script model to produce the
// generation prompts for every segment.
type ClipPromptCreator struct {
	cor.BaseCommand
	chatModel    *cloud.QuotaAwareChatModel
	template     *template.Template
	segmentCount int
}

// NewClipPromptCreator builds the command with its model, prompt template,
// and segment count.
func NewClipPromptCreator(name string, chatModel *cloud.QuotaAwareChatModel, template *template.Template, segmentCount int) *ClipPromptCreator {
	out := &ClipPromptCreator{
		BaseCommand:  *cor.NewBaseCommand(name),
		chatModel:    chatModel,
		template:     template,
		segmentCount: segmentCount,
	}
	out.InputParamName = CtxSegments
	out.OutputParamName = CtxClipPrompts
	return out
}

// Execute renders the prompt from the segments and request, calls the
// model, and normalizes the prompt list to the segment count.
func (t *ClipPromptCreator) Execute(context cor.Context) {
	segmentation := context.Get(t.GetInputParam()).(*model.Segmentation)
	request := context.Get(CtxRequest).(*model.GenerationRequest)

	var segmentList strings.Builder
	for i, segment := range segmentation.Segments {
		segmentList.WriteString(fmt.Sprintf("- Segment %d: %s\n", i+1, segment.Description))
	}

	visualKind := "video generation prompt"
	if request.VideoType == model.VideoTypeImage {
		visualKind = "image generation prompt"
	}

	exampleJSON, _ := json.Marshal(model.GetExampleClipPrompt())
	params := map[string]interface{}{
		"SEGMENTS":        segmentList.String(),
		"JOB_TITLE":       request.JobTitle,
		"JOB_DESCRIPTION": request.JobDescription,
		"LOCATION":        request.Location,
		"EQUIPMENT_USED":  request.EquipmentUsed,
		"INDUSTRY_SECTOR": request.IndustrySector,
		"VIDEO_TYPE":      string(request.VideoType),
		"VISUAL_KIND":     visualKind,
		"SEGMENT_COUNT":   t.segmentCount,
		"EXAMPLE_JSON":    string(exampleJSON),
	}

	var buffer bytes.Buffer
	if err := t.template.Execute(&buffer, params); err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), fmt.Errorf("failed to execute prompt template: %w", err))
		return
	}

	format := cloud.NewJSONSchemaFormat("clip_prompts",
		"One visual, narration, and subtitle prompt triple per video segment.", clipPromptSchema)
	raw, err := t.chatModel.GenerateStructured(context.GetContext(), buffer.String(), format)
	if err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), err)
		return
	}

	promptSet := &model.ClipPromptSet{}
	if err := json.Unmarshal([]byte(raw), promptSet); err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), fmt.Errorf("failed to parse clip prompt response: %w", err))
		return
	}
	promptSet.Clips = NormalizeClipPrompts(promptSet.Clips, t.segmentCount)

	t.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(t.GetOutputParam(), promptSet)
}

// NormalizeClipPrompts trims or pads the prompt list to exactly count
// entries and fills in any empty fields with generic placeholders.
func NormalizeClipPrompts(clips []model.ClipPrompt, count int) []model.ClipPrompt {
	if len(clips) > count {
		clips = clips[:count]
	}
	for i := len(clips); i < count; i++ {
		clips = append(clips, model.ClipPrompt{})
	}
	for i := range clips {
		if clips[i].VideoPrompt == "" {
			clips[i].VideoPrompt = fmt.Sprintf("Safety training visual for segment %d", i+1)
		}
		if clips[i].AudioPrompt == "" {
			clips[i].AudioPrompt = fmt.Sprintf("Narration for safety segment %d", i+1)
		}
		if clips[i].SubtitleText == "" {
			clips[i].SubtitleText = fmt.Sprintf("Safety Tip #%d", i+1)
		}
	}
	return clips
}

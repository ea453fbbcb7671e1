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

// This file defines the command for the third script stage: splitting the
// course into the fixed number of video segments. The downstream stages
// assume the segment count exactly, so the parsed list is normalized:
// extra segments are dropped and missing ones are padded with generic
// placeholders.
package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/reelcraft/training-video-generator/internal/cloud"
	"github.com/reelcraft/training-video-generator/internal/core/cor"
	"github.com/reelcraft/training-video-generator/internal/core/model"
)

var segmentationSchema = cloud.GenerateSchema[model.Segmentation]()

// SegmentationCreator is a command that uses the script model to split the
// course outline into ordered video segments.
type SegmentationCreator struct {
	cor.BaseCommand
	chatModel    *cloud.QuotaAwareChatModel
	template     *template.Template
	segmentCount int
}

// NewSegmentationCreator builds the command with its model, prompt
// template, and the number of segments the video is divided into.
func NewSegmentationCreator(name string, chatModel *cloud.QuotaAwareChatModel, template *template.Template, segmentCount int) *SegmentationCreator {
	out := &SegmentationCreator{
		BaseCommand:  *cor.NewBaseCommand(name),
		chatModel:    chatModel,
		template:     template,
		segmentCount: segmentCount,
	}
	out.InputParamName = CtxOutline
	out.OutputParamName = CtxSegments
	return out
}

// Execute renders the prompt from the request and the outline, calls the
// model, and normalizes the segment list to the configured count.
func (t *SegmentationCreator) Execute(context cor.Context) {
	outline := context.Get(t.GetInputParam()).(*model.CourseOutline)
	request := context.Get(CtxRequest).(*model.GenerationRequest)

	params := map[string]interface{}{
		"COURSE_TITLE":       outline.Title,
		"COURSE_DESCRIPTION": outline.Description,
		"COURSE_SECTIONS":    bulletList(outline.Sections),
		"JOB_TITLE":          request.JobTitle,
		"JOB_DESCRIPTION":    request.JobDescription,
		"LOCATION":           request.Location,
		"EQUIPMENT_USED":     request.EquipmentUsed,
		"INDUSTRY_SECTOR":    request.IndustrySector,
		"SEGMENT_COUNT":      t.segmentCount,
	}

	var buffer bytes.Buffer
	if err := t.template.Execute(&buffer, params); err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), fmt.Errorf("failed to execute prompt template: %w", err))
		return
	}

	format := cloud.NewJSONSchemaFormat("video_segmentation",
		"Ordered video segments covering the full course.", segmentationSchema)
	raw, err := t.chatModel.GenerateStructured(context.GetContext(), buffer.String(), format)
	if err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), err)
		return
	}

	segmentation := &model.Segmentation{}
	if err := json.Unmarshal([]byte(raw), segmentation); err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), fmt.Errorf("failed to parse segmentation response: %w", err))
		return
	}
	segmentation.Segments = NormalizeSegments(segmentation.Segments, t.segmentCount)

	t.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(t.GetOutputParam(), segmentation)
}

// NormalizeSegments trims or pads the segment list to exactly count
// entries. Padding entries carry a generic description so the synthesis
// stage still has something to work with.
func NormalizeSegments(segments []model.Segment, count int) []model.Segment {
	if len(segments) > count {
		return segments[:count]
	}
	for i := len(segments); i < count; i++ {
		segments = append(segments, model.Segment{
			Description: fmt.Sprintf("Additional safety information part %d", i+1),
		})
	}
	return segments
}

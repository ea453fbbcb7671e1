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

// This file defines the command for the second script stage: the course
// outline. It combines the job details with the risks identified in the
// previous stage so the outline addresses every risk, and parses the
// model's structured response into a CourseOutline.
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

var courseOutlineSchema = cloud.GenerateSchema[model.CourseOutline]()

// CourseOutlineCreator is a command that uses the script model to design
// the training course structure.
type CourseOutlineCreator struct {
	cor.BaseCommand
	chatModel *cloud.QuotaAwareChatModel
	template  *template.Template
}

// NewCourseOutlineCreator builds the command with its model and prompt
// template.
func NewCourseOutlineCreator(name string, chatModel *cloud.QuotaAwareChatModel, template *template.Template) *CourseOutlineCreator {
	out := &CourseOutlineCreator{
		BaseCommand: *cor.NewBaseCommand(name),
		chatModel:   chatModel,
		template:    template,
	}
	out.InputParamName = CtxRiskAnalysis
	out.OutputParamName = CtxOutline
	return out
}

// bulletList renders items as a newline-separated bullet list for prompt
// readability.
func bulletList(items []string) string {
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString("- ")
		sb.WriteString(item)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Execute renders the prompt from the request and the risk analysis, calls
// the model, and parses the structured response.
func (t *CourseOutlineCreator) Execute(context cor.Context) {
	analysis := context.Get(t.GetInputParam()).(*model.RiskAnalysis)
	request := context.Get(CtxRequest).(*model.GenerationRequest)

	exampleJSON, _ := json.Marshal(model.GetExampleOutline())
	params := map[string]interface{}{
		"JOB_TITLE":             request.JobTitle,
		"JOB_DESCRIPTION":       request.JobDescription,
		"LOCATION":              request.Location,
		"EQUIPMENT_USED":        request.EquipmentUsed,
		"INDUSTRY_SECTOR":       request.IndustrySector,
		"RISKS":                 bulletList(analysis.Risks),
		"MITIGATION_STRATEGIES": bulletList(analysis.MitigationStrategies),
		"EXAMPLE_JSON":          string(exampleJSON),
	}

	var buffer bytes.Buffer
	if err := t.template.Execute(&buffer, params); err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), fmt.Errorf("failed to execute prompt template: %w", err))
		return
	}

	format := cloud.NewJSONSchemaFormat("course_outline",
		"Training course title, description, and ordered sections.", courseOutlineSchema)
	raw, err := t.chatModel.GenerateStructured(context.GetContext(), buffer.String(), format)
	if err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), err)
		return
	}

	outline := &model.CourseOutline{}
	if err := json.Unmarshal([]byte(raw), outline); err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), fmt.Errorf("failed to parse course outline response: %w", err))
		return
	}

	t.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(t.GetOutputParam(), outline)
}

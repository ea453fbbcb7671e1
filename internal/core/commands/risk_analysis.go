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

// This file defines the command for the first script stage: the workplace
// risk analysis. It prompts the script model with the job details and a
// few-shot example, requests strict JSON output against the RiskAnalysis
// schema, and places the parsed result on the context for the outline
// stage.
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

var riskAnalysisSchema = cloud.GenerateSchema[model.RiskAnalysis]()

// RiskAnalysisCreator is a command that uses the script model to identify
// workplace risks for the requested job.
type RiskAnalysisCreator struct {
	cor.BaseCommand
	chatModel *cloud.QuotaAwareChatModel
	template  *template.Template
}

// NewRiskAnalysisCreator builds the command with its model and prompt
// template.
func NewRiskAnalysisCreator(name string, chatModel *cloud.QuotaAwareChatModel, template *template.Template) *RiskAnalysisCreator {
	out := &RiskAnalysisCreator{
		BaseCommand: *cor.NewBaseCommand(name),
		chatModel:   chatModel,
		template:    template,
	}
	out.InputParamName = CtxRequest
	out.OutputParamName = CtxRiskAnalysis
	return out
}

// Execute renders the prompt, calls the model, and parses the structured
// response.
func (t *RiskAnalysisCreator) Execute(context cor.Context) {
	request := context.Get(t.GetInputParam()).(*model.GenerationRequest)

	exampleJSON, _ := json.Marshal(model.GetExampleRiskAnalysis())
	params := map[string]interface{}{
		"JOB_TITLE":       request.JobTitle,
		"JOB_DESCRIPTION": request.JobDescription,
		"LOCATION":        request.Location,
		"EQUIPMENT_USED":  request.EquipmentUsed,
		"INDUSTRY_SECTOR": request.IndustrySector,
		"EXAMPLE_JSON":    string(exampleJSON),
	}

	var buffer bytes.Buffer
	if err := t.template.Execute(&buffer, params); err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), fmt.Errorf("failed to execute prompt template: %w", err))
		return
	}

	format := cloud.NewJSONSchemaFormat("risk_analysis",
		"Workplace risks with matching severity levels and mitigation strategies.", riskAnalysisSchema)
	raw, err := t.chatModel.GenerateStructured(context.GetContext(), buffer.String(), format)
	if err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), err)
		return
	}

	analysis := &model.RiskAnalysis{}
	if err := json.Unmarshal([]byte(raw), analysis); err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), fmt.Errorf("failed to parse risk analysis response: %w", err))
		return
	}

	t.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(t.GetOutputParam(), analysis)
}

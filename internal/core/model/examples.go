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

// This file provides factory functions for creating hardcoded, example
// instances of the data models.
//
// These example objects are used for "few-shot" prompting with the script
// models. Providing a concrete example of the desired JSON output inside
// the prompt guides the model toward output that is consistent, correctly
// formatted, and easily parsable.
package model

// GetExampleRiskAnalysis creates a sample RiskAnalysis used to show the
// script model the expected JSON structure, including the parallel
// ordering of the three slices.
func GetExampleRiskAnalysis() *RiskAnalysis {
	return &RiskAnalysis{
		Risks: []string{
			"Falls from ladders while accessing elevated shelving",
			"Back strain from repetitive manual lifting",
		},
		SeverityLevels: []string{"high", "medium"},
		MitigationStrategies: []string{
			"Use three points of contact and inspect ladders before each shift",
			"Apply team lifts for loads over 20kg and rotate lifting tasks",
		},
	}
}

// GetExampleOutline creates a sample CourseOutline for few-shot prompting.
func GetExampleOutline() *CourseOutline {
	return &CourseOutline{
		Title:       "Warehouse Forklift Safety Essentials",
		Description: "A practical course covering the daily hazards of forklift operation in a busy distribution center, from pre-shift inspections through pedestrian awareness and safe load handling.",
		Sections: []string{
			"Introduction and Course Goals",
			"Pre-Operation Inspections",
			"Safe Load Handling",
			"Pedestrian Awareness",
			"Emergency Procedures",
			"Review and Assessment",
		},
	}
}

// GetExampleClipPrompt creates a sample ClipPrompt showing the expected
// triple for one segment.
func GetExampleClipPrompt() *ClipPrompt {
	return &ClipPrompt{
		VideoPrompt:  "A warehouse worker in a high-visibility vest performs a walk-around inspection of a forklift, checking tires and forks under bright industrial lighting",
		AudioPrompt:  "Before every shift, walk around your forklift. Check the tires, the forks, and the hydraulic lines. A two-minute inspection can prevent a serious accident.",
		SubtitleText: "Inspect Your Forklift Every Shift",
	}
}

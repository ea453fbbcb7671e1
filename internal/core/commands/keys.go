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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface: one command per stage
// of the video generation pipeline. Commands communicate exclusively
// through named keys on the shared context so every stage's artifact stays
// addressable for the stages after it.
package commands

// Context keys for the artifacts each pipeline stage produces. The
// generation request and scratch directory are seeded by the workflow
// before the chain runs.
const (
	CtxRequest       = "__REQUEST__"
	CtxScratchDir    = "__SCRATCH_DIR__"
	CtxRiskAnalysis  = "__RISK_ANALYSIS__"
	CtxOutline       = "__OUTLINE__"
	CtxSegments      = "__SEGMENTS__"
	CtxClipPrompts   = "__CLIP_PROMPTS__"
	CtxSegmentAssets = "__SEGMENT_ASSETS__"
	CtxMergedVideo   = "__MERGED_VIDEO__"
	CtxVideoDuration = "__VIDEO_DURATION__"
	CtxPublished     = "__PUBLISHED__"
	CtxCaptionedURL  = "__CAPTIONED_URL__"
)

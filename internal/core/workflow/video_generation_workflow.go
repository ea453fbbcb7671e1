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

// Package workflow defines the high-level business logic orchestrations,
// combining commands into coherent pipelines. This file implements the
// primary video generation workflow: nine stages from risk analysis
// through scratch cleanup, executed synchronously for one request.
package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/google/uuid"

	"github.com/reelcraft/training-video-generator/internal/cloud"
	"github.com/reelcraft/training-video-generator/internal/core/commands"
	"github.com/reelcraft/training-video-generator/internal/core/cor"
	"github.com/reelcraft/training-video-generator/internal/core/media"
	"github.com/reelcraft/training-video-generator/internal/core/model"
	"github.com/reelcraft/training-video-generator/internal/core/services"
)

// Stage names double as the command names on the chain and as the Stage
// field of the StageError a failed run reports.
const (
	StageRiskAnalysis   = "risk analysis"
	StageCourseOutline  = "course outline"
	StageSegmentation   = "segmentation"
	StageClipPrompts    = "clip prompts"
	StageMediaSynthesis = "media synthesis"
	StageAssembly       = "assembly"
	StagePublish        = "publish"
	StageCaptionRender  = "caption render"
	StageCleanup        = "cleanup"
)

// VideoGenerationWorkflow orchestrates the entire process of generating a
// training video from a job description. It is structured as a Chain of
// Responsibility (cor.Chain) whose commands share one context per run.
type VideoGenerationWorkflow struct {
	cor.BaseCommand
	config       *cloud.Config
	chatModel    *cloud.QuotaAwareChatModel
	clipService  services.Synthesizer
	imageService services.Synthesizer
	narrator     services.Narrator
	renderer     services.CaptionRenderer
	publisher    services.Publisher
	assembler    commands.Merger
	chain        cor.Chain
}

// Execute runs the workflow by invoking the underlying chain.
func (w *VideoGenerationWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// initializeChain builds the sequence of commands that make up the
// pipeline. Each stage's output lives under a named context key so later
// stages and the final result assembly can reach every artifact.
func (w *VideoGenerationWorkflow) initializeChain() {
	segmentCount := w.config.Pipeline.SegmentCount
	if segmentCount <= 0 {
		segmentCount = 18
	}

	out := cor.NewBaseChain(w.GetName())

	// Script stages: four structured-output calls to the chat model.
	out.AddCommand(commands.NewRiskAnalysisCreator(StageRiskAnalysis, w.chatModel,
		mustTemplate(StageRiskAnalysis, w.config.PromptTemplates.RiskAnalysis)))
	out.AddCommand(commands.NewCourseOutlineCreator(StageCourseOutline, w.chatModel,
		mustTemplate(StageCourseOutline, w.config.PromptTemplates.Outline)))
	out.AddCommand(commands.NewSegmentationCreator(StageSegmentation, w.chatModel,
		mustTemplate(StageSegmentation, w.config.PromptTemplates.Segmentation), segmentCount))
	out.AddCommand(commands.NewClipPromptCreator(StageClipPrompts, w.chatModel,
		mustTemplate(StageClipPrompts, w.config.PromptTemplates.ClipPrompts), segmentCount))

	// Media stages: synthesis, assembly, publish, caption, cleanup.
	out.AddCommand(commands.NewMediaSynthesizer(StageMediaSynthesis, w.clipService, w.imageService, w.narrator))
	out.AddCommand(commands.NewVideoAssembler(StageAssembly, w.assembler, w.config.Pipeline.OutputDir))
	out.AddCommand(commands.NewVideoPublisher(StagePublish, w.publisher, w.config.Storage.OutputPrefix))
	out.AddCommand(commands.NewCaptionRenderCommand(StageCaptionRender, w.renderer))
	out.AddCommand(commands.NewScratchCleanup(StageCleanup))

	w.chain = out
}

// Run executes the full pipeline for one request. It creates the per-run
// scratch directory, seeds the chain context, and maps a failed run to a
// StageError naming the stage (and segment, where applicable) that
// failed. Scratch files survive a failed run for inspection.
func (w *VideoGenerationWorkflow) Run(ctx context.Context, request *model.GenerationRequest) (*model.GenerationResult, error) {
	scratchRoot := w.config.Pipeline.ScratchDir
	if scratchRoot == "" {
		scratchRoot = "scratch"
	}
	scratchDir := filepath.Join(scratchRoot, uuid.NewString())
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(ctx)
	chainCtx.Add(commands.CtxRequest, request)
	chainCtx.Add(commands.CtxScratchDir, scratchDir)
	chainCtx.Add(cor.CtxIn, request)

	w.Execute(chainCtx)

	if chainCtx.HasErrors() {
		for stage, err := range chainCtx.GetErrors() {
			return nil, asStageError(stage, err)
		}
	}

	published := chainCtx.Get(commands.CtxPublished).(*services.PublishedObject)
	outline := chainCtx.Get(commands.CtxOutline).(*model.CourseOutline)
	assets := chainCtx.Get(commands.CtxSegmentAssets).([]model.SegmentAsset)
	mergedVideo := chainCtx.Get(commands.CtxMergedVideo).(string)
	duration, _ := chainCtx.Get(commands.CtxVideoDuration).(float64)
	captionedURL, _ := chainCtx.Get(commands.CtxCaptionedURL).(string)

	// The merged file lives in the output directory served at /video, so
	// the local URL survives scratch cleanup.
	videoURL := "/video/" + filepath.Base(mergedVideo)

	return &model.GenerationResult{
		VideoURL:          videoURL,
		StorageURL:        published.PublicURL,
		SignedURL:         published.SignedURL,
		CaptionedVideoURL: captionedURL,
		JobTitle:          request.JobTitle,
		CourseTitle:       outline.Title,
		Duration:          duration,
		ClipCount:         len(assets),
		VideoType:         request.VideoType,
		CreatedAt:         time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// asStageError wraps a stage failure so callers can report which stage of
// the pipeline failed. Errors already carrying stage information pass
// through untouched.
func asStageError(stage string, err error) error {
	if stageErr, ok := err.(*model.StageError); ok {
		return stageErr
	}
	return &model.StageError{Stage: stage, Err: err}
}

func mustTemplate(name string, text string) *template.Template {
	// Panic on failure, the app cannot run without valid templates.
	return template.Must(template.New(name).Parse(text))
}

// NewVideoGenerationWorkflow is the constructor for the video generation
// workflow. It wires the script model, the synthesis services, the ffmpeg
// assembler, and the storage publisher, then builds the command chain.
func NewVideoGenerationWorkflow(
	config *cloud.Config,
	serviceClients *cloud.ServiceClients,
	scriptModelName string) *VideoGenerationWorkflow {

	ttl := time.Duration(config.Storage.SignedURLTTLInMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 4 * time.Hour
	}

	pipeline := &VideoGenerationWorkflow{
		BaseCommand:  *cor.NewBaseCommand("video-generation-pipeline"),
		config:       config,
		chatModel:    serviceClients.ScriptModels[scriptModelName],
		clipService:  services.NewClipTaskService(serviceClients.HTTPClient, config.Visual),
		imageService: services.NewImageGenService(serviceClients.HTTPClient, config.Image),
		narrator:     services.NewTTSService(serviceClients.HTTPClient, config.Narration),
		renderer:     services.NewCaptionRenderService(serviceClients.HTTPClient, config.Caption),
		publisher: &services.StorageService{
			StorageClient: serviceClients.StorageClient,
			IAMClient:     serviceClients.IAMClient,
			SignerEmail:   config.Application.SignerServiceAccountEmail,
			Bucket:        config.Storage.OutputBucket,
			SignedURLTTL:  ttl,
		},
		assembler: media.NewAssembler(config.Assembly),
	}
	pipeline.initializeChain()
	return pipeline
}

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

// This file defines the assembly command, which hands the synthesized
// segment assets to the ffmpeg assembler and records the merged video
// path and total duration on the context. The merged file is written to
// the persistent output directory, not the scratch dir: it must survive
// the cleanup stage so the response's local video URL stays valid.
package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/reelcraft/training-video-generator/internal/core/cor"
	"github.com/reelcraft/training-video-generator/internal/core/model"
)

// Merger assembles segment assets into a single video file at outputPath
// and returns the total duration in seconds.
type Merger interface {
	MergeSegments(ctx context.Context, assets []model.SegmentAsset, scratchDir string, outputPath string) (float64, error)
}

// VideoAssembler is a command that merges the segment assets into the
// final local video file.
type VideoAssembler struct {
	cor.BaseCommand
	assembler Merger
	outputDir string
}

func NewVideoAssembler(name string, assembler Merger, outputDir string) *VideoAssembler {
	if outputDir == "" {
		outputDir = "video"
	}
	out := &VideoAssembler{
		BaseCommand: *cor.NewBaseCommand(name),
		assembler:   assembler,
		outputDir:   outputDir,
	}
	out.InputParamName = CtxSegmentAssets
	out.OutputParamName = CtxMergedVideo
	return out
}

// Execute merges the segments into the output directory and stores the
// merged path and duration. The output file is named after the run id
// (the scratch directory's base name) so concurrent runs never collide.
func (t *VideoAssembler) Execute(context cor.Context) {
	assets := context.Get(t.GetInputParam()).([]model.SegmentAsset)
	scratchDir := context.Get(CtxScratchDir).(string)

	if err := os.MkdirAll(t.outputDir, 0o755); err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), fmt.Errorf("failed to create output directory: %w", err))
		return
	}

	outputPath := filepath.Join(t.outputDir, filepath.Base(scratchDir)+".mp4")
	duration, err := t.assembler.MergeSegments(context.GetContext(), assets, scratchDir, outputPath)
	if err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), err)
		return
	}

	t.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(CtxVideoDuration, duration)
	context.Add(t.GetOutputParam(), outputPath)
}

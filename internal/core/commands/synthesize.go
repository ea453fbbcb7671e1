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

// This file defines the media synthesis command: the per-segment loop that
// turns the prompt triples into actual assets under the run's scratch
// directory.
//
// Segments are processed strictly in order. The two synthesis calls per
// segment have different failure semantics:
//   - A visual failure aborts the whole run. Without the visual there is
//     nothing to assemble for that segment, and a shorter video would
//     silently drop course content.
//   - A narration failure degrades the segment. The asset keeps an empty
//     audio path and the assembler substitutes silence, so one flaky TTS
//     call cannot sink an otherwise complete run.
package commands

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/reelcraft/training-video-generator/internal/core/cor"
	"github.com/reelcraft/training-video-generator/internal/core/model"
	"github.com/reelcraft/training-video-generator/internal/core/services"
)

// MediaSynthesizer is a command that generates the visual and narration
// assets for every segment.
type MediaSynthesizer struct {
	cor.BaseCommand
	clipService  services.Synthesizer
	imageService services.Synthesizer
	narrator     services.Narrator
}

// NewMediaSynthesizer builds the command with both visual services; the
// request's video type selects which one is used at execution time.
func NewMediaSynthesizer(name string, clipService services.Synthesizer, imageService services.Synthesizer, narrator services.Narrator) *MediaSynthesizer {
	out := &MediaSynthesizer{
		BaseCommand:  *cor.NewBaseCommand(name),
		clipService:  clipService,
		imageService: imageService,
		narrator:     narrator,
	}
	out.InputParamName = CtxClipPrompts
	out.OutputParamName = CtxSegmentAssets
	return out
}

// Execute synthesizes assets segment by segment and places the asset list
// on the context for the assembly stage.
func (t *MediaSynthesizer) Execute(context cor.Context) {
	promptSet := context.Get(t.GetInputParam()).(*model.ClipPromptSet)
	request := context.Get(CtxRequest).(*model.GenerationRequest)
	scratchDir := context.Get(CtxScratchDir).(string)

	synthesizer := t.clipService
	visualExt := "mp4"
	if request.VideoType == model.VideoTypeImage {
		synthesizer = t.imageService
		visualExt = "png"
	}

	assets := make([]model.SegmentAsset, 0, len(promptSet.Clips))
	for i, clip := range promptSet.Clips {
		sequence := i + 1
		asset := model.SegmentAsset{
			SequenceNumber: sequence,
			VisualPath:     filepath.Join(scratchDir, fmt.Sprintf("visual_%d.%s", sequence, visualExt)),
			AudioPath:      filepath.Join(scratchDir, fmt.Sprintf("narration_%d.mp3", sequence)),
			SubtitleText:   clip.SubtitleText,
		}

		if err := synthesizer.Synthesize(context.GetContext(), clip.VideoPrompt, asset.VisualPath); err != nil {
			t.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(t.GetName(), &model.StageError{Stage: t.GetName(), Segment: sequence, Err: err})
			return
		}
		context.AddTempFile(asset.VisualPath)

		if err := t.narrator.Narrate(context.GetContext(), clip.AudioPrompt, asset.AudioPath); err != nil {
			// Degrade to a silent segment rather than failing the run.
			slog.WarnContext(context.GetContext(), "narration failed, segment will use silent audio",
				"segment", sequence, "error", err)
			asset.AudioPath = ""
		} else {
			context.AddTempFile(asset.AudioPath)
		}

		slog.InfoContext(context.GetContext(), "segment assets synthesized",
			"segment", sequence, "total", len(promptSet.Clips))
		assets = append(assets, asset)
	}

	t.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(t.GetOutputParam(), assets)
}

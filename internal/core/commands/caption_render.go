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

// This file defines the caption rendering command. The published video is
// sent through the caption template service as a finishing pass. The pass
// is best effort: the uncaptioned video is already published and fully
// usable, so a render failure logs a warning and the run succeeds without
// a captioned URL.
package commands

import (
	"log/slog"

	"github.com/reelcraft/training-video-generator/internal/core/cor"
	"github.com/reelcraft/training-video-generator/internal/core/services"
)

// CaptionRenderCommand is a command that renders captions onto the
// published video.
type CaptionRenderCommand struct {
	cor.BaseCommand
	renderer services.CaptionRenderer
}

func NewCaptionRenderCommand(name string, renderer services.CaptionRenderer) *CaptionRenderCommand {
	out := &CaptionRenderCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		renderer:    renderer,
	}
	out.InputParamName = CtxPublished
	out.OutputParamName = CtxCaptionedURL
	return out
}

// Execute starts the caption render against the published video's URL and
// records the resulting URL when the render succeeds.
func (t *CaptionRenderCommand) Execute(context cor.Context) {
	published := context.Get(t.GetInputParam()).(*services.PublishedObject)

	sourceURL := published.SignedURL
	if sourceURL == "" {
		sourceURL = published.PublicURL
	}

	captionedURL, err := t.renderer.Render(context.GetContext(), sourceURL)
	if err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		slog.WarnContext(context.GetContext(), "caption rendering failed, returning uncaptioned video", "error", err)
		return
	}
	if captionedURL == "" {
		// Render never completed within the polling window; the run
		// succeeds without a captioned URL.
		slog.WarnContext(context.GetContext(), "caption render incomplete, returning uncaptioned video")
		return
	}

	t.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(t.GetOutputParam(), captionedURL)
}

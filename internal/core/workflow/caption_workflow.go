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

package workflow

import (
	"context"
	"time"

	"github.com/reelcraft/training-video-generator/internal/cloud"
	"github.com/reelcraft/training-video-generator/internal/core/model"
	"github.com/reelcraft/training-video-generator/internal/core/services"
)

// CaptionWorkflow renders captions onto an already-stored video without
// running the generation pipeline. Unlike the caption stage of the full
// pipeline, a render failure here is fatal: captioning is the only thing
// the caller asked for.
type CaptionWorkflow struct {
	renderer services.CaptionRenderer
}

// Run submits the video to the caption template service and waits for the
// rendered result.
func (w *CaptionWorkflow) Run(ctx context.Context, request *model.CaptionRequest) (*model.CaptionResult, error) {
	captionedURL, err := w.renderer.Render(ctx, request.VideoURL)
	if err != nil {
		return nil, &model.StageError{Stage: StageCaptionRender, Err: err}
	}

	return &model.CaptionResult{
		OriginalVideoURL:  request.VideoURL,
		CaptionedVideoURL: captionedURL,
		Title:             request.Title,
		Description:       request.Description,
		CreatedAt:         time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func NewCaptionWorkflow(config *cloud.Config, serviceClients *cloud.ServiceClients) *CaptionWorkflow {
	return &CaptionWorkflow{
		renderer: services.NewCaptionRenderService(serviceClients.HTTPClient, config.Caption),
	}
}

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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelcraft/training-video-generator/internal/core/model"
	test "github.com/reelcraft/training-video-generator/internal/testutil"
)

// stubRenderer satisfies services.CaptionRenderer for caption workflow
// tests.
type stubRenderer struct {
	sourceURL string
	url       string
	err       error
}

func (s *stubRenderer) Render(_ context.Context, videoURL string) (string, error) {
	s.sourceURL = videoURL
	return s.url, s.err
}

// TestAsStageErrorPassthrough verifies that a stage error raised inside a
// command keeps its original stage and segment attribution.
func TestAsStageErrorPassthrough(t *testing.T) {
	original := &model.StageError{
		Stage:   StageMediaSynthesis,
		Segment: 4,
		Err:     errors.New("visual backend unavailable"),
	}

	mapped := asStageError(StageAssembly, original)

	var stageErr *model.StageError
	require.True(t, errors.As(mapped, &stageErr))
	assert.Equal(t, StageMediaSynthesis, stageErr.Stage)
	assert.Equal(t, 4, stageErr.Segment)
}

// TestAsStageErrorWrapsPlainErrors verifies that a plain error picked up
// from the chain is attributed to the command that produced it.
func TestAsStageErrorWrapsPlainErrors(t *testing.T) {
	cause := errors.New("template execution failed")

	mapped := asStageError(StageSegmentation, cause)

	var stageErr *model.StageError
	require.True(t, errors.As(mapped, &stageErr))
	assert.Equal(t, StageSegmentation, stageErr.Stage)
	assert.True(t, errors.Is(mapped, cause))
}

// TestCaptionWorkflowRun verifies the standalone caption operation: the
// stored video URL goes to the renderer and the result echoes the request
// metadata alongside both URLs.
func TestCaptionWorkflowRun(t *testing.T) {
	renderer := &stubRenderer{url: "https://cdn.example.com/captioned.mp4"}
	w := &CaptionWorkflow{renderer: renderer}

	request := test.GetTestCaptionRequest()
	result, err := w.Run(context.Background(), request)
	require.NoError(t, err)

	assert.Equal(t, request.VideoURL, renderer.sourceURL)
	assert.Equal(t, request.VideoURL, result.OriginalVideoURL)
	assert.Equal(t, "https://cdn.example.com/captioned.mp4", result.CaptionedVideoURL)
	assert.Equal(t, request.Title, result.Title)
	assert.NotEmpty(t, result.CreatedAt)
}

// TestCaptionWorkflowRenderFailure verifies that a render failure is fatal
// for the standalone operation and carries the caption stage name.
func TestCaptionWorkflowRenderFailure(t *testing.T) {
	renderer := &stubRenderer{err: errors.New("render service down")}
	w := &CaptionWorkflow{renderer: renderer}

	_, err := w.Run(context.Background(), test.GetTestCaptionRequest())
	require.Error(t, err)

	var stageErr *model.StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageCaptionRender, stageErr.Stage)
}

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

package commands_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelcraft/training-video-generator/internal/core/commands"
	"github.com/reelcraft/training-video-generator/internal/core/cor"
	"github.com/reelcraft/training-video-generator/internal/core/model"
	test "github.com/reelcraft/training-video-generator/internal/testutil"
)

// stubSynthesizer records every requested output path and can fail on a
// specific call.
type stubSynthesizer struct {
	paths  []string
	failAt int // 1-based call number to fail on; 0 never fails
}

func (s *stubSynthesizer) Synthesize(_ context.Context, _ string, outputPath string) error {
	s.paths = append(s.paths, outputPath)
	if s.failAt > 0 && len(s.paths) == s.failAt {
		return errors.New("visual backend unavailable")
	}
	return nil
}

// stubNarrator can fail on a specific call.
type stubNarrator struct {
	calls  int
	failAt int
}

func (s *stubNarrator) Narrate(_ context.Context, _ string, _ string) error {
	s.calls++
	if s.failAt > 0 && s.calls == s.failAt {
		return errors.New("tts backend unavailable")
	}
	return nil
}

// newSynthesisContext seeds a chain context the way the script stages
// would have left it: request, scratch dir, and the prompt triples.
func newSynthesisContext(videoType model.VideoType, clipCount int) cor.Context {
	request := test.GetTestGenerationRequest()
	request.VideoType = videoType

	clips := make([]model.ClipPrompt, clipCount)
	for i := range clips {
		clips[i] = model.ClipPrompt{
			VideoPrompt:  "visual prompt",
			AudioPrompt:  "narration prompt",
			SubtitleText: "subtitle",
		}
	}

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(commands.CtxRequest, request)
	chainCtx.Add(commands.CtxScratchDir, "scratch/test-run")
	chainCtx.Add(commands.CtxClipPrompts, &model.ClipPromptSet{Clips: clips})
	return chainCtx
}

// TestSynthesizeVideoSegments verifies the video path: the clip service is
// used, assets come out in segment order, and every asset carries both
// files.
func TestSynthesizeVideoSegments(t *testing.T) {
	clipService := &stubSynthesizer{}
	imageService := &stubSynthesizer{}
	narrator := &stubNarrator{}

	command := commands.NewMediaSynthesizer("media synthesis", clipService, imageService, narrator)
	chainCtx := newSynthesisContext(model.VideoTypeVideo, 3)
	command.Execute(chainCtx)

	require.False(t, chainCtx.HasErrors())
	assert.Len(t, clipService.paths, 3)
	assert.Empty(t, imageService.paths)
	assert.Equal(t, 3, narrator.calls)

	assets := chainCtx.Get(commands.CtxSegmentAssets).([]model.SegmentAsset)
	require.Len(t, assets, 3)
	for i, asset := range assets {
		assert.Equal(t, i+1, asset.SequenceNumber)
		assert.Contains(t, asset.VisualPath, ".mp4")
		assert.Contains(t, asset.AudioPath, ".mp3")
		assert.Equal(t, "subtitle", asset.SubtitleText)
	}
}

// TestSynthesizeImageSegments verifies the image path selects the image
// service and produces png visuals.
func TestSynthesizeImageSegments(t *testing.T) {
	clipService := &stubSynthesizer{}
	imageService := &stubSynthesizer{}

	command := commands.NewMediaSynthesizer("media synthesis", clipService, imageService, &stubNarrator{})
	chainCtx := newSynthesisContext(model.VideoTypeImage, 2)
	command.Execute(chainCtx)

	require.False(t, chainCtx.HasErrors())
	assert.Empty(t, clipService.paths)
	require.Len(t, imageService.paths, 2)
	assert.Contains(t, imageService.paths[0], ".png")
}

// TestSynthesizeVisualFailureAborts verifies the hard failure contract: a
// visual synthesis error stops the run and names the failing segment.
func TestSynthesizeVisualFailureAborts(t *testing.T) {
	clipService := &stubSynthesizer{failAt: 2}
	narrator := &stubNarrator{}

	command := commands.NewMediaSynthesizer("media synthesis", clipService, &stubSynthesizer{}, narrator)
	chainCtx := newSynthesisContext(model.VideoTypeVideo, 3)
	command.Execute(chainCtx)

	require.True(t, chainCtx.HasErrors())
	assert.Nil(t, chainCtx.Get(commands.CtxSegmentAssets))

	// Synthesis stopped at the failing segment.
	assert.Len(t, clipService.paths, 2)
	assert.Equal(t, 1, narrator.calls)

	var stageErr *model.StageError
	require.True(t, errors.As(chainCtx.GetErrors()["media synthesis"], &stageErr))
	assert.Equal(t, "media synthesis", stageErr.Stage)
	assert.Equal(t, 2, stageErr.Segment)
}

// TestSynthesizeNarrationFailureDegrades verifies the soft failure
// contract: a narration error leaves the segment without an audio path so
// the assembler substitutes silence, and the run continues.
func TestSynthesizeNarrationFailureDegrades(t *testing.T) {
	narrator := &stubNarrator{failAt: 2}

	command := commands.NewMediaSynthesizer("media synthesis", &stubSynthesizer{}, &stubSynthesizer{}, narrator)
	chainCtx := newSynthesisContext(model.VideoTypeVideo, 3)
	command.Execute(chainCtx)

	require.False(t, chainCtx.HasErrors())
	assets := chainCtx.Get(commands.CtxSegmentAssets).([]model.SegmentAsset)
	require.Len(t, assets, 3)

	assert.NotEmpty(t, assets[0].AudioPath)
	assert.Empty(t, assets[1].AudioPath)
	assert.NotEmpty(t, assets[2].AudioPath)
}

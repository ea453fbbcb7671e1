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

// Package model_test contains unit tests for the transient pipeline data
// structures, covering the video type validation and the stage error
// formatting surfaced to API callers.
package model_test

import (
	"errors"
	"testing"

	"github.com/reelcraft/training-video-generator/internal/core/model"
	"github.com/stretchr/testify/assert"
)

// TestVideoTypeValid verifies that only the two supported visual paths are
// accepted.
func TestVideoTypeValid(t *testing.T) {
	assert.True(t, model.VideoTypeVideo.Valid())
	assert.True(t, model.VideoTypeImage.Valid())
	assert.False(t, model.VideoType("gif").Valid())
	assert.False(t, model.VideoType("").Valid())
}

// TestStageErrorFormatting verifies both error renderings: per-segment
// stages include the segment number, run-level stages do not.
func TestStageErrorFormatting(t *testing.T) {
	cause := errors.New("connection refused")

	withSegment := &model.StageError{Stage: "media synthesis", Segment: 7, Err: cause}
	assert.Equal(t, "media synthesis, segment 7: connection refused", withSegment.Error())

	withoutSegment := &model.StageError{Stage: "assembly", Err: cause}
	assert.Equal(t, "assembly: connection refused", withoutSegment.Error())
}

// TestStageErrorUnwrap verifies that errors.Is can see through the stage
// wrapper to the upstream cause.
func TestStageErrorUnwrap(t *testing.T) {
	cause := errors.New("task timed out")
	err := &model.StageError{Stage: "media synthesis", Segment: 2, Err: cause}

	assert.True(t, errors.Is(err, cause))

	var stageErr *model.StageError
	assert.True(t, errors.As(error(err), &stageErr))
	assert.Equal(t, 2, stageErr.Segment)
}

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

// Package media_test contains unit tests for the ffmpeg assembler's pure
// helpers: subtitle line splitting, SRT formatting, probe output parsing,
// and filter construction. The ffmpeg invocations themselves are exercised
// in integration environments where the binary is present.
package media_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reelcraft/training-video-generator/internal/cloud"
	"github.com/reelcraft/training-video-generator/internal/core/media"
)

// TestSplitSubtitleLines verifies the word-per-line splitting used for the
// single-cue subtitle files.
func TestSplitSubtitleLines(t *testing.T) {
	// A short text stays on one line.
	assert.Equal(t, []string{"Wear your hard hat"},
		media.SplitSubtitleLines("Wear your hard hat", 4))

	// Longer text is wrapped every four words.
	lines := media.SplitSubtitleLines("Always check the forklift horn before entering a shared aisle", 4)
	assert.Equal(t, []string{
		"Always check the forklift",
		"horn before entering a",
		"shared aisle",
	}, lines)

	// Empty text yields the placeholder so the SRT cue is never blank.
	assert.Equal(t, []string{"[No subtitle text]"}, media.SplitSubtitleLines("", 4))
	assert.Equal(t, []string{"[No subtitle text]"}, media.SplitSubtitleLines("   ", 4))
}

// TestFormatSRTTime verifies the HH:MM:SS,mmm rendering of clip durations.
func TestFormatSRTTime(t *testing.T) {
	assert.Equal(t, "00:00:00,000", media.FormatSRTTime(0))
	assert.Equal(t, "00:00:13,000", media.FormatSRTTime(13.0))
	assert.Equal(t, "00:00:10,500", media.FormatSRTTime(10.5))
	assert.Equal(t, "00:01:01,250", media.FormatSRTTime(61.25))
	assert.Equal(t, "01:00:00,000", media.FormatSRTTime(3600))
}

// TestParseProbeDuration verifies the ffprobe stdout parsing.
func TestParseProbeDuration(t *testing.T) {
	duration, err := media.ParseProbeDuration("12.345\n")
	assert.NoError(t, err)
	assert.Equal(t, 12.345, duration)

	_, err = media.ParseProbeDuration("")
	assert.Error(t, err)

	_, err = media.ParseProbeDuration("N/A\n")
	assert.Error(t, err)
}

// TestWriteSubtitleFile verifies the single-cue SRT layout: cue index,
// time range spanning the clip, then the wrapped text lines.
func TestWriteSubtitleFile(t *testing.T) {
	assembler := media.NewAssembler(cloud.Assembly{})
	path := filepath.Join(t.TempDir(), "subtitle_1.srt")

	err := assembler.WriteSubtitleFile(path, "Keep the load low and tilted back at all times", 10.5)
	assert.NoError(t, err)

	content, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t,
		"1\n00:00:00,000 --> 00:00:10,500\nKeep the load low\nand tilted back at\nall times\n",
		string(content))
}

// TestDrawTextFilter verifies the fallback subtitle filter: one drawtext
// entry per line, stacked vertically, followed by the frame scale.
func TestDrawTextFilter(t *testing.T) {
	assembler := media.NewAssembler(cloud.Assembly{})

	filter := assembler.DrawTextFilter([]string{"Check your mirrors", "Sound the horn"})
	parts := strings.Split(filter, ",")
	assert.Equal(t, 3, len(parts))
	assert.Contains(t, parts[0], "drawtext=text='Check your mirrors'")
	assert.Contains(t, parts[0], "y=10")
	assert.Contains(t, parts[1], "y=30")
	assert.Equal(t, "scale=1920:1080", parts[2])

	// Quotes and colons in the text are escaped for the filter syntax.
	escaped := assembler.DrawTextFilter([]string{"Don't rush: stop"})
	assert.Contains(t, escaped, `Don\'t rush\: stop`)

	// No lines still produces a valid filter with the placeholder.
	assert.Contains(t, assembler.DrawTextFilter(nil), "[No subtitle text]")
}

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

// Package media wraps the local ffmpeg toolchain used to assemble the
// per-segment assets into the final training video.
//
// Logic Flow:
// For each segment the assembler builds an intermediate clip in four steps:
//  1. Determine the clip duration from the narration audio via ffprobe,
//     falling back to a configured default when the audio is missing or
//     unreadable.
//  2. Segments without usable narration get a silent audio track of the
//     default duration so every clip carries an audio stream.
//  3. The subtitle text is written as a single-cue SRT file spanning the
//     clip and burned into the video with the subtitles filter. If the
//     subtitles filter fails (some builds lack libass), a drawtext filter
//     chain is used instead; if that also fails the clip proceeds without
//     burned subtitles.
//  4. The narration is muxed in, copying the video stream and encoding the
//     audio as AAC, trimmed to the shorter stream.
//
// Still images are first expanded into a video of the clip duration by
// looping the frame. The intermediate clips are finally joined with the
// concat demuxer in stream-copy mode.
package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/h2non/filetype"

	"github.com/reelcraft/training-video-generator/internal/cloud"
	"github.com/reelcraft/training-video-generator/internal/core/model"
)

const placeholderSubtitle = "[No subtitle text]"

// Assembler drives ffmpeg and ffprobe to merge segment assets into a
// single video file.
type Assembler struct {
	ffmpegPath          string
	ffprobePath         string
	defaultClipSeconds  float64
	frameWidth          int
	frameHeight         int
	wordsPerCaptionLine int
}

// NewAssembler builds an Assembler from the assembly configuration,
// applying defaults for any unset values.
func NewAssembler(cfg cloud.Assembly) *Assembler {
	a := &Assembler{
		ffmpegPath:          cfg.FFmpegPath,
		ffprobePath:         cfg.FFprobePath,
		defaultClipSeconds:  cfg.DefaultClipSeconds,
		frameWidth:          cfg.FrameWidth,
		frameHeight:         cfg.FrameHeight,
		wordsPerCaptionLine: cfg.WordsPerCaptionLine,
	}
	if a.ffmpegPath == "" {
		a.ffmpegPath = "ffmpeg"
	}
	if a.ffprobePath == "" {
		a.ffprobePath = "ffprobe"
	}
	if a.defaultClipSeconds <= 0 {
		a.defaultClipSeconds = 13.0
	}
	if a.frameWidth <= 0 {
		a.frameWidth = 1920
	}
	if a.frameHeight <= 0 {
		a.frameHeight = 1080
	}
	if a.wordsPerCaptionLine <= 0 {
		a.wordsPerCaptionLine = 4
	}
	return a
}

// MergeSegments builds one intermediate clip per segment asset under
// scratchDir and concatenates them into outputPath. It returns the total
// duration of the assembled video in seconds.
//
// Segments whose visual file is missing or empty are skipped; the merge
// fails only when no segment yields a usable clip.
func (a *Assembler) MergeSegments(ctx context.Context, assets []model.SegmentAsset, scratchDir string, outputPath string) (float64, error) {
	var intermediateFiles []string
	var totalDuration float64

	for _, asset := range assets {
		if !usableFile(asset.VisualPath) {
			slog.WarnContext(ctx, "skipping segment with missing visual",
				"segment", asset.SequenceNumber, "path", asset.VisualPath)
			continue
		}

		duration := a.defaultClipSeconds
		audioPath := asset.AudioPath
		if usableFile(audioPath) {
			if d, err := a.ProbeDuration(ctx, audioPath); err == nil {
				duration = d
			} else {
				slog.WarnContext(ctx, "failed to probe narration duration, using default",
					"segment", asset.SequenceNumber, "error", err)
			}
		} else {
			// No usable narration: synthesize silence so the clip still
			// carries an audio stream for the concat step.
			silentPath := filepath.Join(scratchDir, fmt.Sprintf("silent_audio_%d.mp3", asset.SequenceNumber))
			if err := a.CreateSilentAudio(ctx, silentPath, duration); err != nil {
				return 0, fmt.Errorf("segment %d: %w", asset.SequenceNumber, err)
			}
			audioPath = silentPath
		}

		subtitlePath := filepath.Join(scratchDir, fmt.Sprintf("subtitle_%d.srt", asset.SequenceNumber))
		if err := a.WriteSubtitleFile(subtitlePath, asset.SubtitleText, duration); err != nil {
			return 0, fmt.Errorf("segment %d: %w", asset.SequenceNumber, err)
		}

		intermediatePath := filepath.Join(scratchDir, fmt.Sprintf("temp_clip_%d.mp4", asset.SequenceNumber))
		if err := a.buildClip(ctx, asset.VisualPath, audioPath, subtitlePath, intermediatePath, duration); err != nil {
			return 0, fmt.Errorf("segment %d: %w", asset.SequenceNumber, err)
		}
		intermediateFiles = append(intermediateFiles, intermediatePath)
		totalDuration += duration
	}

	if len(intermediateFiles) == 0 {
		return 0, fmt.Errorf("no valid clips were created, cannot generate final video")
	}

	if err := a.Concatenate(ctx, intermediateFiles, outputPath); err != nil {
		return 0, err
	}

	for _, file := range intermediateFiles {
		_ = os.Remove(file)
	}
	return totalDuration, nil
}

// ProbeDuration returns the duration of a media file in seconds using
// ffprobe.
func (a *Assembler) ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, a.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}
	return ParseProbeDuration(string(out))
}

// ParseProbeDuration parses ffprobe's duration output into seconds.
func ParseProbeDuration(out string) (float64, error) {
	trimmed := strings.TrimSpace(out)
	if trimmed == "" {
		return 0, fmt.Errorf("empty ffprobe output")
	}
	duration, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("could not parse duration %q: %w", trimmed, err)
	}
	return duration, nil
}

// CreateSilentAudio writes a silent MP3 of the given duration.
func (a *Assembler) CreateSilentAudio(ctx context.Context, path string, durationSeconds float64) error {
	cmd := exec.CommandContext(ctx, a.ffmpegPath,
		"-f", "lavfi",
		"-i", "anullsrc=r=44100:cl=stereo",
		"-t", formatSeconds(durationSeconds),
		"-c:a", "libmp3lame",
		"-b:a", "128k",
		"-y",
		path)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg silent audio failed: %w: %s", err, string(out))
	}
	return nil
}

// WriteSubtitleFile writes a single-cue SRT file spanning the full clip
// duration, with the text split into short lines to prevent overflow.
func (a *Assembler) WriteSubtitleFile(path string, text string, durationSeconds float64) error {
	lines := SplitSubtitleLines(text, a.wordsPerCaptionLine)
	content := fmt.Sprintf("1\n00:00:00,000 --> %s\n%s\n",
		FormatSRTTime(durationSeconds), strings.Join(lines, "\n"))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to create subtitle file: %w", err)
	}
	return nil
}

// SplitSubtitleLines splits text into lines of approximately wordsPerLine
// words each. Empty text yields a placeholder line.
func SplitSubtitleLines(text string, wordsPerLine int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{placeholderSubtitle}
	}
	if len(words) <= wordsPerLine {
		return []string{strings.Join(words, " ")}
	}
	var lines []string
	for i := 0; i < len(words); i += wordsPerLine {
		end := i + wordsPerLine
		if end > len(words) {
			end = len(words)
		}
		lines = append(lines, strings.Join(words[i:end], " "))
	}
	return lines
}

// FormatSRTTime formats seconds into the SRT time format HH:MM:SS,mmm.
func FormatSRTTime(seconds float64) string {
	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	remainder := seconds - float64(hours*3600) - float64(minutes*60)
	whole := int(remainder)
	millis := int((remainder - float64(whole)) * 1000)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, whole, millis)
}

// buildClip produces one intermediate clip: image expansion if needed,
// subtitle burn, then audio mux.
func (a *Assembler) buildClip(ctx context.Context, visualPath, audioPath, subtitlePath, outputPath string, durationSeconds float64) error {
	videoPath := visualPath
	base := strings.TrimSuffix(outputPath, filepath.Ext(outputPath))

	isImage, err := isImageFile(visualPath)
	if err != nil {
		return err
	}
	if isImage {
		expandedPath := base + "_frame.mp4"
		if err := a.imageToVideo(ctx, visualPath, expandedPath, durationSeconds); err != nil {
			return err
		}
		defer os.Remove(expandedPath)
		videoPath = expandedPath
	}

	subtitledPath := base + "_subtitled.mp4"
	if err := a.burnSubtitles(ctx, videoPath, subtitlePath, subtitledPath); err != nil {
		slog.WarnContext(ctx, "subtitle embedding failed, continuing without subtitles", "error", err)
		subtitledPath = videoPath
	} else {
		defer os.Remove(subtitledPath)
	}

	return a.muxAudio(ctx, subtitledPath, audioPath, outputPath)
}

// imageToVideo loops a still image into a video of the given duration,
// scaled and padded to the configured frame size.
func (a *Assembler) imageToVideo(ctx context.Context, imagePath, outputPath string, durationSeconds float64) error {
	scale := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
		a.frameWidth, a.frameHeight, a.frameWidth, a.frameHeight)
	cmd := exec.CommandContext(ctx, a.ffmpegPath,
		"-loop", "1",
		"-i", imagePath,
		"-c:v", "libx264",
		"-t", formatSeconds(durationSeconds),
		"-pix_fmt", "yuv420p",
		"-vf", scale,
		"-y",
		outputPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg image to video failed: %w: %s", err, string(out))
	}
	return nil
}

// burnSubtitles renders the SRT file into the video. The subtitles filter
// is tried first; drawtext is the fallback for ffmpeg builds without
// libass support.
func (a *Assembler) burnSubtitles(ctx context.Context, videoPath, subtitlePath, outputPath string) error {
	filter := fmt.Sprintf(
		"subtitles='%s':force_style='FontSize=10,FontName=Arial,Alignment=2,BorderStyle=1,Outline=2,Shadow=0,MarginV=25,LineSpacing=2,PrimaryColour=&HFFFFFF,OutlineColour=&H000000',scale=%d:%d",
		escapeFilterPath(subtitlePath), a.frameWidth, a.frameHeight)
	cmd := exec.CommandContext(ctx, a.ffmpegPath,
		"-i", videoPath,
		"-vf", filter,
		"-c:v", "libx264",
		"-preset", "fast",
		"-y",
		outputPath)
	out, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}
	slog.WarnContext(ctx, "subtitles filter failed, retrying with drawtext",
		"error", err, "output", string(out))

	lines, readErr := readSubtitleLines(subtitlePath)
	if readErr != nil {
		return readErr
	}
	cmd = exec.CommandContext(ctx, a.ffmpegPath,
		"-i", videoPath,
		"-vf", a.DrawTextFilter(lines),
		"-c:v", "libx264",
		"-preset", "fast",
		"-y",
		outputPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("drawtext subtitle fallback failed: %w: %s", err, string(out))
	}
	return nil
}

// DrawTextFilter builds a drawtext filter chain that stacks the subtitle
// lines top-center with 20px spacing, followed by the frame scale.
func (a *Assembler) DrawTextFilter(lines []string) string {
	if len(lines) == 0 {
		lines = []string{placeholderSubtitle}
	}
	filters := make([]string, 0, len(lines)+1)
	for i, line := range lines {
		filters = append(filters, fmt.Sprintf(
			"drawtext=text='%s':fontcolor=white:fontsize=10:fontname=Arial:box=1:boxcolor=black@0.5:boxborderw=3:x=(w-text_w)/2:y=%d",
			escapeDrawText(line), 10+i*20))
	}
	filters = append(filters, fmt.Sprintf("scale=%d:%d", a.frameWidth, a.frameHeight))
	return strings.Join(filters, ",")
}

// muxAudio combines the video and audio streams, copying the video and
// encoding the audio as AAC, trimmed to the shorter input.
func (a *Assembler) muxAudio(ctx context.Context, videoPath, audioPath, outputPath string) error {
	cmd := exec.CommandContext(ctx, a.ffmpegPath,
		"-i", videoPath,
		"-i", audioPath,
		"-c:v", "copy",
		"-c:a", "aac",
		"-map", "0:v",
		"-map", "1:a",
		"-shortest",
		"-y",
		outputPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg audio mux failed: %w: %s", err, string(out))
	}
	return nil
}

// Concatenate joins the input files in order using the concat demuxer in
// stream-copy mode.
func (a *Assembler) Concatenate(ctx context.Context, inputFiles []string, outputPath string) error {
	listPath := filepath.Join(filepath.Dir(outputPath), "concat_list.txt")
	var sb strings.Builder
	for _, file := range inputFiles {
		abs, err := filepath.Abs(file)
		if err != nil {
			return err
		}
		sb.WriteString(fmt.Sprintf("file '%s'\n", filepath.ToSlash(abs)))
	}
	if err := os.WriteFile(listPath, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write concat list: %w", err)
	}
	defer os.Remove(listPath)

	cmd := exec.CommandContext(ctx, a.ffmpegPath,
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y",
		outputPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg concatenation failed: %w: %s", err, string(out))
	}
	return nil
}

// usableFile reports whether the path names an existing, non-empty file.
func usableFile(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}

// isImageFile sniffs the file header to decide whether the visual asset
// is a still image that needs expansion into a video.
func isImageFile(path string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	head := make([]byte, 261)
	n, err := file.Read(head)
	if err != nil && n == 0 {
		return false, fmt.Errorf("could not read header of %s: %w", path, err)
	}
	return filetype.IsImage(head[:n]), nil
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}

// escapeFilterPath escapes a path for use inside a quoted ffmpeg filter
// argument.
func escapeFilterPath(path string) string {
	escaped := strings.ReplaceAll(path, "\\", "/")
	return strings.ReplaceAll(escaped, ":", "\\:")
}

// escapeDrawText escapes subtitle text for the drawtext filter.
func escapeDrawText(text string) string {
	r := strings.NewReplacer(
		"\\", "\\\\",
		"'", "\\'",
		"\"", "\\\"",
		":", "\\:",
	)
	return r.Replace(text)
}

// readSubtitleLines extracts the cue text lines from a single-cue SRT
// file: everything from the third line until the first blank line.
func readSubtitleLines(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	all := strings.Split(string(content), "\n")
	var lines []string
	for i := 2; i < len(all); i++ {
		line := strings.TrimSpace(all[i])
		if line == "" {
			break
		}
		lines = append(lines, line)
	}
	return lines, nil
}

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

// This file defines the scratch cleanup command: the final stage of a
// successful run. It removes the run's entire scratch directory. The
// chain stops before this command on any earlier failure, so failed runs
// keep their scratch files for inspection.
package commands

import (
	"log/slog"
	"os"

	"github.com/reelcraft/training-video-generator/internal/core/cor"
)

// ScratchCleanup is a command that removes the run's scratch directory
// after the video has been published.
type ScratchCleanup struct {
	cor.BaseCommand
}

func NewScratchCleanup(name string) *ScratchCleanup {
	out := &ScratchCleanup{BaseCommand: *cor.NewBaseCommand(name)}
	out.InputParamName = CtxScratchDir
	return out
}

// Execute removes the scratch directory. A removal failure is logged but
// never fails the run; the video is already published.
func (t *ScratchCleanup) Execute(context cor.Context) {
	scratchDir := context.Get(t.GetInputParam()).(string)
	if err := os.RemoveAll(scratchDir); err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		slog.WarnContext(context.GetContext(), "failed to remove scratch directory",
			"dir", scratchDir, "error", err)
		return
	}
	slog.InfoContext(context.GetContext(), "scratch directory removed", "dir", scratchDir)
	t.GetSuccessCounter().Add(context.GetContext(), 1)
}

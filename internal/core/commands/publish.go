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

// This file defines the publish command, which uploads the merged video to
// the output bucket under a per-run object name and records the published
// URLs for the response and the caption stage.
package commands

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reelcraft/training-video-generator/internal/core/cor"
	"github.com/reelcraft/training-video-generator/internal/core/services"
)

// VideoPublisher is a command that publishes the merged video to object
// storage.
type VideoPublisher struct {
	cor.BaseCommand
	publisher    services.Publisher
	objectPrefix string
}

func NewVideoPublisher(name string, publisher services.Publisher, objectPrefix string) *VideoPublisher {
	out := &VideoPublisher{
		BaseCommand:  *cor.NewBaseCommand(name),
		publisher:    publisher,
		objectPrefix: objectPrefix,
	}
	out.InputParamName = CtxMergedVideo
	out.OutputParamName = CtxPublished
	return out
}

// Execute uploads the local video under a timestamped, unique object name
// and stores the publish record.
func (t *VideoPublisher) Execute(context cor.Context) {
	localPath := context.Get(t.GetInputParam()).(string)

	objectName := fmt.Sprintf("training_video_%s_%s.mp4",
		time.Now().UTC().Format("20060102T150405"), uuid.NewString())
	if t.objectPrefix != "" {
		objectName = strings.TrimSuffix(t.objectPrefix, "/") + "/" + objectName
	}

	published, err := t.publisher.Publish(context.GetContext(), localPath, objectName)
	if err != nil {
		// Signing can fail after a successful upload; keep the publish
		// record if we got one and only fail the run when the upload
		// itself did not happen.
		if published == nil {
			t.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(t.GetName(), err)
			return
		}
		slog.WarnContext(context.GetContext(), "video published without signed URL", "error", err)
	}

	slog.InfoContext(context.GetContext(), "video published",
		"bucket", published.Bucket, "object", published.Object)
	t.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(t.GetOutputParam(), published)
}

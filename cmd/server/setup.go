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

package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/reelcraft/training-video-generator/internal/cloud"
	"github.com/reelcraft/training-video-generator/internal/core/workflow"
)

// ScriptModelName is the logical name of the chat model the generation
// pipeline writes scripts with. It must exist in the script_models config
// section.
const ScriptModelName = "script-writer"

type StateManager struct {
	config          *cloud.Config
	cloud           *cloud.ServiceClients
	videoWorkflow   *workflow.VideoGenerationWorkflow
	captionWorkflow *workflow.CaptionWorkflow
}

var state = &StateManager{}

// SetupOS seeds the config-loading environment variables when they are not
// already set, and pulls API keys from a local .env file when one exists.
func SetupOS() (err error) {
	// Secrets live in the process environment, never in the TOML files.
	_ = godotenv.Load()

	if os.Getenv(cloud.EnvConfigFilePrefix) == "" {
		if err = os.Setenv(cloud.EnvConfigFilePrefix, "configs"); err != nil {
			return err
		}
	}
	if os.Getenv(cloud.EnvConfigRuntime) == "" {
		err = os.Setenv(cloud.EnvConfigRuntime, "local")
	}
	return err
}

func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup os: %v\n", err)
		}
		// Create a default cloud config
		config := cloud.NewConfig()
		// Load it from the TOML files
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

func InitState(ctx context.Context) {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		panic(err)
	}
	state.cloud = cloudClients

	state.videoWorkflow = workflow.NewVideoGenerationWorkflow(config, cloudClients, ScriptModelName)
	state.captionWorkflow = workflow.NewCaptionWorkflow(config, cloudClients)
}

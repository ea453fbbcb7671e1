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

// Package test provides utility functions and mock data to support the
// application's test suite: a cached test configuration and sample request
// payloads for the generation pipeline.
package test

import (
	"log"
	"os"
	"testing"

	"github.com/reelcraft/training-video-generator/internal/cloud"
	"github.com/reelcraft/training-video-generator/internal/core/model"
)

// StateManager acts as a simple in-memory cache for the application
// configuration during test runs, so the TOML files are read only once per
// test binary.
type StateManager struct {
	config *cloud.Config
}

var state = &StateManager{}

// HandleErr fails the test when err is non-nil. Convenience to reduce
// boilerplate error-checking code in tests.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("Error reading config file: %v", err)
	}
}

// GetTestGenerationRequest returns a canned generation request used across
// pipeline and command tests.
func GetTestGenerationRequest() *model.GenerationRequest {
	return &model.GenerationRequest{
		JobTitle:       "Forklift Operator",
		JobDescription: "Operates a counterbalance forklift to move palletized goods between the loading dock and warehouse racking.",
		Location:       "Distribution warehouse, Columbus, Ohio",
		EquipmentUsed:  "Counterbalance forklift, pallet jack, high-visibility vest, hard hat",
		IndustrySector: "Warehousing and logistics",
		VideoType:      model.VideoTypeVideo,
	}
}

// GetTestCaptionRequest returns a canned caption request for handler and
// workflow tests.
func GetTestCaptionRequest() *model.CaptionRequest {
	return &model.CaptionRequest{
		Title:       "Forklift Safety Basics",
		Description: "Captioned cut of the forklift safety course.",
		VideoURL:    "https://storage.googleapis.com/test-training-videos/forklift-safety.mp4",
	}
}

// SetupOS configures the environment variables the configuration loader
// depends on, pointing it at the test override file
// (configs/.env.test.toml).
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "test")
	return err
}

// GetConfig is a singleton accessor for the test configuration. The config
// is loaded from the TOML files on first use and cached for subsequent
// calls.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

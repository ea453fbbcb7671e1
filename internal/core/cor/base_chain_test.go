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

// Package cor_test verifies the chain execution contract: commands run in
// order, each command's output is piped into the next command's input, and
// the chain stops at the first recorded error.
package cor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/reelcraft/training-video-generator/internal/core/cor"
	"github.com/zeebo/assert"
)

// stageCommand is a minimal command for exercising the chain: it records
// its execution and appends its name to the string flowing through the
// pipe. When fail is set it records an error instead.
type stageCommand struct {
	cor.BaseCommand
	log  *[]string
	fail bool
}

func newStageCommand(name string, log *[]string, fail bool) *stageCommand {
	return &stageCommand{BaseCommand: *cor.NewBaseCommand(name), log: log, fail: fail}
}

func (c *stageCommand) Execute(context cor.Context) {
	*c.log = append(*c.log, c.GetName())
	if c.fail {
		context.AddError(c.GetName(), errors.New("stage failed"))
		return
	}
	in := context.Get(c.GetInputParam()).(string)
	context.Add(c.GetOutputParam(), in+"->"+c.GetName())
}

func newChainContext() cor.Context {
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cor.CtxIn, "start")
	return chainCtx
}

// TestChainPipesOutputToInput runs a two-command chain and verifies that
// each command saw the previous command's output as its input.
func TestChainPipesOutputToInput(t *testing.T) {
	var log []string
	chain := cor.NewBaseChain("test-chain")
	chain.AddCommand(newStageCommand("first", &log, false))
	chain.AddCommand(newStageCommand("second", &log, false))

	chainCtx := newChainContext()
	chain.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.DeepEqual(t, []string{"first", "second"}, log)
	// After the chain finishes the final output has been piped into the
	// input slot.
	assert.Equal(t, "start->first->second", chainCtx.Get(cor.CtxIn).(string))
}

// TestChainStopsOnError verifies that commands after a failing one are
// skipped.
func TestChainStopsOnError(t *testing.T) {
	var log []string
	chain := cor.NewBaseChain("test-chain")
	chain.AddCommand(newStageCommand("first", &log, false))
	chain.AddCommand(newStageCommand("boom", &log, true))
	chain.AddCommand(newStageCommand("never", &log, false))

	chainCtx := newChainContext()
	chain.Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
	assert.DeepEqual(t, []string{"first", "boom"}, log)
	assert.NotNil(t, chainCtx.GetErrors()["boom"])
}

// TestChainContinueOnFailure verifies that the flag keeps later commands
// running after an error.
func TestChainContinueOnFailure(t *testing.T) {
	var log []string
	chain := cor.NewBaseChain("test-chain")
	chain.ContinueOnFailure(true)
	chain.AddCommand(newStageCommand("boom", &log, true))

	// The failing command produces no output to pipe, so the follow-up
	// command reads from its own named key instead of the pipe.
	stillRuns := newStageCommand("still-runs", &log, false)
	stillRuns.InputParamName = "__SEED__"
	chain.AddCommand(stillRuns)

	chainCtx := newChainContext()
	chainCtx.Add("__SEED__", "seed")
	chain.Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
	assert.DeepEqual(t, []string{"boom", "still-runs"}, log)
}

// TestCommandParamDefaults verifies that commands fall back to the shared
// pipe keys when no explicit input or output key is configured.
func TestCommandParamDefaults(t *testing.T) {
	command := cor.NewBaseCommand("defaults")
	assert.Equal(t, cor.CtxIn, command.GetInputParam())
	assert.Equal(t, cor.CtxOut, command.GetOutputParam())

	command.InputParamName = "__CUSTOM_IN__"
	command.OutputParamName = "__CUSTOM_OUT__"
	assert.Equal(t, "__CUSTOM_IN__", command.GetInputParam())
	assert.Equal(t, "__CUSTOM_OUT__", command.GetOutputParam())
}

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

// Package cor (Chain of Responsibility) provides the building blocks for
// composing pipeline stages. A Chain executes Commands in order, piping the
// output of each command into the input of the next, and stops at the first
// command that records an error on the shared Context.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// CtxIn is the default key for a command's primary input. The chain
	// populates it with the previous command's output.
	CtxIn = "__IN__"
	// CtxOut is the default key where a command places its primary output.
	CtxOut = "__OUT__"
)

// Context is the shared state object passed through a chain of commands.
// It carries data, errors keyed by the command that produced them, and a
// list of scratch files to remove when the run is disposed of.
type Context interface {
	SetContext(context context.Context)
	GetContext() context.Context

	// Add stores a key-value pair and returns the Context for chaining.
	Add(key string, value interface{}) Context

	// AddError records an error under the name of the failing command.
	AddError(key string, err error)
	GetErrors() map[string]error
	HasErrors() bool

	Get(key string) interface{}
	Remove(key string)

	// AddTempFile tracks a scratch file created during the run so that
	// Close can remove it. Close is only called after a successful run;
	// failed runs keep their scratch files for inspection.
	AddTempFile(file string)
	GetTempFiles() []string
	Close()
}

// Executable is any object with a core execution step.
type Executable interface {
	Execute(context Context)
}

// Command is an atomic, testable unit of work within a chain.
type Command interface {
	Executable

	GetName() string
	GetInputParam() string
	GetOutputParam() string

	// IsExecutable is a precondition check run before Execute.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain is a sequence of commands. A Chain is itself a Command, so chains
// may be nested.
type Chain interface {
	Command

	// ContinueOnFailure controls whether the chain keeps executing after
	// a command records an error. Defaults to false.
	ContinueOnFailure(bool) Chain

	AddCommand(command Command) Chain
}

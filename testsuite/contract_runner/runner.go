/*
 * Copyright (c) 2021 - present Kurtosis Technologies LLC.
 * All Rights Reserved.
 */

package contract_runner

import (
	"bytes"
	"context"
	"github.com/palantir/stacktrace"
	"github.com/sirupsen/logrus"
	"io/ioutil"
	"time"
)

var wasmMagicHeader = []byte("\x00asm")

type SandboxProvider interface {
	// Provision starts a fresh, isolated network; the caller must Destroy it
	Provision(ctx context.Context) (Sandbox, error)
}

type Sandbox interface {
	// DevDeploy deploys the code to a freshly created account
	DevDeploy(ctx context.Context, wasm []byte) (Contract, error)

	Destroy() error
}

type Contract interface {
	ID() string

	// Call returns an error only if the call couldn't be executed at all; an executed call that failed comes
	// back as a response with a Failure
	Call(ctx context.Context, descriptor CallDescriptor) (*CallResponse, error)
}

type Runner struct {
	provider         SandboxProvider
	artifactFilepath string
	mode             RunMode

	// Zero means no limit
	setupTimeout     time.Duration
	executionTimeout time.Duration
}

func NewRunner(provider SandboxProvider, artifactFilepath string, mode RunMode) *Runner {
	return &Runner{provider: provider, artifactFilepath: artifactFilepath, mode: mode}
}

// WithTimeouts bounds provisioning plus deployment by the setup timeout, and the calls by the execution timeout
func (runner *Runner) WithTimeouts(setupTimeout time.Duration, executionTimeout time.Duration) *Runner {
	runner.setupTimeout = setupTimeout
	runner.executionTimeout = executionTimeout
	return runner
}

func (runner *Runner) Mode() RunMode {
	return runner.mode
}

// Run provisions a sandbox, deploys the artifact to it exactly once, and then issues the sequence's calls one at a
// time against that deployment. Setup problems come back as an error; call failures are recorded in the result.
func (runner *Runner) Run(ctx context.Context, sequence CallSequence) (*RunResult, error) {
	setupCtx, cancelSetup := withOptionalTimeout(ctx, runner.setupTimeout)
	defer cancelSetup()

	logrus.Info("Provisioning sandbox...")
	sandbox, err := runner.provider.Provision(setupCtx)
	if err != nil {
		return nil, stacktrace.PropagateWithCode(err, ProvisioningError, "An error occurred provisioning the sandbox")
	}
	defer func() {
		if err := sandbox.Destroy(); err != nil {
			logrus.Errorf("An error occurred destroying the sandbox; you'll need to clean it up manually: %v", err)
		}
	}()
	logrus.Info("Sandbox provisioned")

	wasm, err := runner.readArtifact()
	if err != nil {
		return nil, err
	}

	logrus.Infof("Deploying contract from '%v'...", runner.artifactFilepath)
	contract, err := sandbox.DevDeploy(setupCtx, wasm)
	if err != nil {
		return nil, stacktrace.PropagateWithCode(err, DeploymentError, "An error occurred deploying contract '%v'", runner.artifactFilepath)
	}
	logrus.Infof("Contract deployed to account '%v'", contract.ID())
	cancelSetup()

	executionCtx, cancelExecution := withOptionalTimeout(ctx, runner.executionTimeout)
	defer cancelExecution()

	calls := sequence(contract.ID())
	result := &RunResult{
		ContractID: contract.ID(),
		Mode:       runner.mode,
		Outcomes:   []*CallOutcome{},
		Skipped:    []CallDescriptor{},
	}
	for idx, descriptor := range calls {
		outcome := issueCall(executionCtx, contract, descriptor)
		result.Outcomes = append(result.Outcomes, outcome)
		if !outcome.IsSuccess() && runner.mode == FailFast {
			result.Aborted = true
			result.Skipped = append(result.Skipped, calls[idx+1:]...)
			logrus.Warnf("Aborting the call sequence after '%v' failed; %v call(s) won't be issued", descriptor.FunctionName, len(result.Skipped))
			break
		}
	}
	return result, nil
}

func (runner *Runner) readArtifact() ([]byte, error) {
	wasm, err := ioutil.ReadFile(runner.artifactFilepath)
	if err != nil {
		return nil, stacktrace.PropagateWithCode(err, MissingArtifact, "An error occurred reading contract artifact '%v'", runner.artifactFilepath)
	}
	if len(wasm) == 0 {
		return nil, stacktrace.NewErrorWithCode(DeploymentError, "Contract artifact '%v' is empty", runner.artifactFilepath)
	}
	if !bytes.HasPrefix(wasm, wasmMagicHeader) {
		return nil, stacktrace.NewErrorWithCode(DeploymentError, "Contract artifact '%v' isn't a wasm module", runner.artifactFilepath)
	}
	return wasm, nil
}

func withOptionalTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func issueCall(ctx context.Context, contract Contract, descriptor CallDescriptor) *CallOutcome {
	logrus.Infof("Calling '%v'...", descriptor.FunctionName)
	start := time.Now()
	response, err := contract.Call(ctx, descriptor)
	outcome := &CallOutcome{
		Descriptor: descriptor,
		Logs:       []string{},
		Duration:   time.Since(start),
	}
	if err != nil {
		outcome.Err = stacktrace.PropagateWithCode(err, CallFailed, "Call '%v' couldn't be executed", descriptor.FunctionName)
		logrus.Errorf("Call '%v' failed with error: %v", descriptor.FunctionName, err)
		return outcome
	}
	outcome.Logs = append(outcome.Logs, response.Logs...)
	if response.Failure != "" {
		outcome.Err = stacktrace.NewErrorWithCode(CallFailed, "Call '%v' failed: %v", descriptor.FunctionName, response.Failure)
		logrus.Errorf("Call '%v' failed with error: %v", descriptor.FunctionName, response.Failure)
		return outcome
	}
	outcome.ReturnValue = response.ReturnValue
	logrus.Infof("Call '%v' succeeded", descriptor.FunctionName)
	return outcome
}

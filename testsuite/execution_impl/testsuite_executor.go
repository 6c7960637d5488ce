/*
 * Copyright (c) 2021 - present Kurtosis Technologies LLC.
 * All Rights Reserved.
 */

package execution_impl

import (
	"context"
	"fmt"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/palantir/stacktrace"
	"github.com/sirupsen/logrus"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/contract_runner"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/lib/testsuite"
	"io"
	"sort"
	"time"
)

const (
	successExitCode     = 0
	testsFailedExitCode = 1
	setupFailedExitCode = 2
)

var (
	passedMark      = color.New(color.FgGreen, color.Bold).Sprint("PASSED")
	failedMark      = color.New(color.FgRed, color.Bold).Sprint("FAILED")
	setupFailedMark = color.New(color.FgRed, color.Bold).Sprint("SETUP FAILED")
)

type TestVerdict struct {
	TestName string

	// Nil if the run never got as far as issuing calls
	Result *contract_runner.RunResult

	// Provisioning, artifact or deployment error
	SetupErr error

	VerifyErr error

	Duration time.Duration
}

func (verdict *TestVerdict) Passed() bool {
	return verdict.SetupErr == nil && verdict.VerifyErr == nil
}

type SuiteResult struct {
	Verdicts []*TestVerdict
}

func (result *SuiteResult) HasSetupFailures() bool {
	for _, verdict := range result.Verdicts {
		if verdict.SetupErr != nil {
			return true
		}
	}
	return false
}

// HasTestFailures is true if a call failed or a verification didn't hold in any test that got past setup
func (result *SuiteResult) HasTestFailures() bool {
	for _, verdict := range result.Verdicts {
		if verdict.SetupErr != nil {
			continue
		}
		if verdict.VerifyErr != nil || (verdict.Result != nil && verdict.Result.Err() != nil) {
			return true
		}
	}
	return false
}

// ExitCode fails the process on setup errors; failed calls and verifications only fail it when asked to
func (result *SuiteResult) ExitCode(failOnCallError bool) int {
	if result.HasSetupFailures() {
		return setupFailedExitCode
	}
	if failOnCallError && result.HasTestFailures() {
		return testsFailedExitCode
	}
	return successExitCode
}

func (result *SuiteResult) Summary(writer io.Writer) {
	table := tablewriter.NewWriter(writer)
	table.SetHeader([]string{"Test", "Contract", "Calls", "Failed calls", "Verdict", "Duration"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	numPassed := 0
	for _, verdict := range result.Verdicts {
		contractId := "-"
		numCalls := "-"
		numFailedCalls := "-"
		if verdict.Result != nil {
			contractId = verdict.Result.ContractID
			numCalls = fmt.Sprintf("%d", len(verdict.Result.Outcomes))
			numFailedCalls = fmt.Sprintf("%d", len(verdict.Result.Failed()))
		}
		mark := passedMark
		switch {
		case verdict.SetupErr != nil:
			mark = setupFailedMark
		case verdict.VerifyErr != nil:
			mark = failedMark
		default:
			numPassed++
		}
		table.Append([]string{
			verdict.TestName,
			contractId,
			numCalls,
			numFailedCalls,
			mark,
			verdict.Duration.Round(time.Millisecond).String(),
		})
	}
	table.SetFooter([]string{"", "", "", "", fmt.Sprintf("%v/%v passed", numPassed, len(result.Verdicts)), ""})
	table.Render()
}

// TestsuiteExecutor runs each test of the suite against its own freshly provisioned sandbox
type TestsuiteExecutor struct {
	suite    testsuite.TestSuite
	provider contract_runner.SandboxProvider
	output   io.Writer

	runModeOverride *contract_runner.RunMode
	failOnCallError bool
}

func NewTestsuiteExecutor(suite testsuite.TestSuite, provider contract_runner.SandboxProvider, output io.Writer) *TestsuiteExecutor {
	return &TestsuiteExecutor{suite: suite, provider: provider, output: output}
}

func (executor *TestsuiteExecutor) OverrideRunMode(runMode contract_runner.RunMode) *TestsuiteExecutor {
	executor.runModeOverride = &runMode
	return executor
}

func (executor *TestsuiteExecutor) FailOnCallError(failOnCallError bool) *TestsuiteExecutor {
	executor.failOnCallError = failOnCallError
	return executor
}

func (executor *TestsuiteExecutor) ShouldFailOnCallError() bool {
	return executor.failOnCallError
}

func (executor *TestsuiteExecutor) RunTests(ctx context.Context) *SuiteResult {
	tests := executor.suite.GetTests()
	testNames := []string{}
	for name := range tests {
		testNames = append(testNames, name)
	}
	sort.Strings(testNames)

	result := &SuiteResult{Verdicts: []*TestVerdict{}}
	for _, name := range testNames {
		verdict := executor.runTest(ctx, name, tests[name])
		result.Verdicts = append(result.Verdicts, verdict)
		switch {
		case verdict.SetupErr != nil:
			logrus.Errorf("Test '%v' couldn't be set up:\n%v", name, verdict.SetupErr)
		case verdict.VerifyErr != nil:
			logrus.Errorf("Test '%v' failed:\n%v", name, verdict.VerifyErr)
		default:
			logrus.Infof("Test '%v' passed", name)
		}
	}
	result.Summary(executor.output)
	return result
}

func (executor *TestsuiteExecutor) runTest(ctx context.Context, name string, test testsuite.Test) *TestVerdict {
	start := time.Now()
	config := test.GetTestConfiguration()
	runMode := config.RunMode
	if executor.runModeOverride != nil {
		runMode = *executor.runModeOverride
	}
	runner := contract_runner.NewRunner(executor.provider, config.ArtifactFilepath, runMode).
		WithTimeouts(test.GetSetupTimeout(), test.GetExecutionTimeout())
	logrus.Infof("Running test '%v' in %v mode...", name, runner.Mode())

	verdict := &TestVerdict{TestName: name}
	result, err := runner.Run(ctx, test.GetCallSequence)
	if err != nil {
		verdict.SetupErr = stacktrace.Propagate(err, "An error occurred setting up test '%v'", name)
		verdict.Duration = time.Since(start)
		return verdict
	}
	verdict.Result = result
	result.Report(executor.output)

	for _, failed := range result.Failed() {
		logrus.Errorf("Call '%v' in test '%v' failed: %v", failed.Descriptor.FunctionName, name, failed.Err)
	}
	verdict.VerifyErr = testsuite.RunVerification(func(testCtx testsuite.TestContext) {
		test.Verify(result, testCtx)
	})
	verdict.Duration = time.Since(start)
	return verdict
}

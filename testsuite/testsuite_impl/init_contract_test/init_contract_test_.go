/*
 * Copyright (c) 2021 - present Kurtosis Technologies LLC.
 * All Rights Reserved.
 */

package init_contract_test

import (
	"github.com/palantir/stacktrace"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/contract_runner"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/lib/testsuite"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/testsuite_impl/testconstants"
	"strings"
	"time"
	"unicode"
)

const (
	initContractFunction = "InitContract"

	expectedInitFlag = 1
)

type InitContractTest struct {
	artifactFilepath string
}

func NewInitContractTest(artifactFilepath string) *InitContractTest {
	return &InitContractTest{artifactFilepath: artifactFilepath}
}

func (test InitContractTest) GetTestConfiguration() testsuite.TestConfiguration {
	return testsuite.TestConfiguration{
		RunMode:          contract_runner.FailFast,
		ArtifactFilepath: test.artifactFilepath,
	}
}

func (test InitContractTest) GetCallSequence(contractId string) []contract_runner.CallDescriptor {
	return []contract_runner.CallDescriptor{
		testconstants.StandardCall(initContractFunction, testconstants.NoArgs()),
	}
}

func (test InitContractTest) Verify(result *contract_runner.RunResult, testCtx testsuite.TestContext) {
	outcome := result.Outcome(initContractFunction)
	if outcome == nil {
		testCtx.Fatal(stacktrace.NewError("'%v' was never called", initContractFunction))
	}
	if !outcome.IsSuccess() {
		testCtx.Fatal(stacktrace.Propagate(outcome.Err, "'%v' didn't succeed", initContractFunction))
	}
	// Contracts are free to return nothing or a message here; only a numeric answer is a flag
	if !returnsFlag(outcome) {
		return
	}
	initFlag, err := outcome.SmallInt()
	if err != nil {
		testCtx.Fatal(stacktrace.Propagate(err, "An error occurred reading the flag '%v' returned", initContractFunction))
	}
	testCtx.AssertTrue(
		initFlag == expectedInitFlag,
		stacktrace.NewError("'%v' returned flag %v but %v was expected", initContractFunction, initFlag, expectedInitFlag))
}

func returnsFlag(outcome *contract_runner.CallOutcome) bool {
	value := strings.TrimSpace(outcome.String())
	return value != "" && unicode.IsDigit(rune(value[0]))
}

func (test InitContractTest) GetSetupTimeout() time.Duration {
	return testconstants.DefaultSetupTimeout
}

func (test InitContractTest) GetExecutionTimeout() time.Duration {
	return 60 * time.Second
}

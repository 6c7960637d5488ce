/*
 * Copyright (c) 2021 - present Kurtosis Technologies LLC.
 * All Rights Reserved.
 */

package greeting_test

import (
	"github.com/palantir/stacktrace"
	"github.com/sirupsen/logrus"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/contract_runner"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/lib/testsuite"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/testsuite_impl/testconstants"
	"time"
)

const (
	initFunction        = "Init"
	getGreetingFunction = "GetGreeting"
	setGreetingFunction = "SetGreeting"

	defaultGreeting = "Hello from NEAR!"
	newGreeting     = "Hello from the testsuite!"
)

type GreetingTest struct {
	artifactFilepath string
}

func NewGreetingTest(artifactFilepath string) *GreetingTest {
	return &GreetingTest{artifactFilepath: artifactFilepath}
}

func (test GreetingTest) GetTestConfiguration() testsuite.TestConfiguration {
	return testsuite.TestConfiguration{
		RunMode:          contract_runner.FailFast,
		ArtifactFilepath: test.artifactFilepath,
	}
}

func (test GreetingTest) GetCallSequence(contractId string) []contract_runner.CallDescriptor {
	return []contract_runner.CallDescriptor{
		testconstants.StandardCall(initFunction, testconstants.NoArgs()),
		testconstants.StandardCall(getGreetingFunction, testconstants.NoArgs()),
		testconstants.StandardCall(getGreetingFunction, testconstants.NoArgs()),
		testconstants.StandardCall(setGreetingFunction, map[string]string{"greeting": newGreeting}),
		testconstants.StandardCall(getGreetingFunction, testconstants.NoArgs()),
	}
}

func (test GreetingTest) Verify(result *contract_runner.RunResult, testCtx testsuite.TestContext) {
	if err := result.Err(); err != nil {
		testCtx.Fatal(stacktrace.Propagate(err, "A call to the greeting contract failed"))
	}
	reads := result.OutcomesFor(getGreetingFunction)
	if len(reads) != 3 {
		testCtx.Fatal(stacktrace.NewError("Expected 3 '%v' outcomes but got %v", getGreetingFunction, len(reads)))
	}
	greetings := []string{}
	for idx, read := range reads {
		greetings = append(greetings, decodeGreeting(read))
		logrus.Debugf("Greeting #%v: '%v'", idx, greetings[idx])
	}

	testCtx.AssertTrue(
		greetings[0] == defaultGreeting,
		stacktrace.NewError("Initial greeting was '%v' but '%v' was expected", greetings[0], defaultGreeting))
	testCtx.AssertTrue(
		greetings[0] == greetings[1],
		stacktrace.NewError("Reading the greeting twice gave '%v' and then '%v'", greetings[0], greetings[1]))
	testCtx.AssertTrue(
		greetings[2] == newGreeting,
		stacktrace.NewError("Greeting after setting '%v' was '%v'", newGreeting, greetings[2]))
}

func (test GreetingTest) GetSetupTimeout() time.Duration {
	return testconstants.DefaultSetupTimeout
}

func (test GreetingTest) GetExecutionTimeout() time.Duration {
	return testconstants.DefaultExecutionTimeout
}

// The generated contract bindings return strings JSON-encoded; hand-written exports return them raw
func decodeGreeting(outcome *contract_runner.CallOutcome) string {
	var greeting string
	if err := outcome.Json(&greeting); err != nil {
		return outcome.String()
	}
	return greeting
}

/*
 * Copyright (c) 2021 - present Kurtosis Technologies LLC.
 * All Rights Reserved.
 */

package status_messages_test

import (
	"github.com/palantir/stacktrace"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/contract_runner"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/lib/testsuite"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/testsuite_impl/testconstants"
	"time"
)

const (
	setStatusFunction = "SetStatus"
	getStatusFunction = "GetStatus"

	testStatusMessage = "testInputValue"
)

// StatusMessagesTest sets a status as the contract account and reads it back by that account's ID
type StatusMessagesTest struct {
	artifactFilepath string
}

func NewStatusMessagesTest(artifactFilepath string) *StatusMessagesTest {
	return &StatusMessagesTest{artifactFilepath: artifactFilepath}
}

func (test StatusMessagesTest) GetTestConfiguration() testsuite.TestConfiguration {
	return testsuite.TestConfiguration{
		RunMode:          contract_runner.CollectAll,
		ArtifactFilepath: test.artifactFilepath,
	}
}

func (test StatusMessagesTest) GetCallSequence(contractId string) []contract_runner.CallDescriptor {
	return []contract_runner.CallDescriptor{
		testconstants.StandardCall(setStatusFunction, map[string]string{"message": testStatusMessage}),
		// Calls are signed by the contract account, so that's whose status was set
		testconstants.StandardCall(getStatusFunction, map[string]string{"account_id": contractId}),
	}
}

func (test StatusMessagesTest) Verify(result *contract_runner.RunResult, testCtx testsuite.TestContext) {
	if err := result.Err(); err != nil {
		testCtx.Fatal(stacktrace.Propagate(err, "A call to the status messages contract failed"))
	}
	status := result.Outcome(getStatusFunction).String()
	testCtx.AssertTrue(
		status == testStatusMessage,
		stacktrace.NewError("Status of '%v' is '%v' but '%v' was set", result.ContractID, status, testStatusMessage))
}

func (test StatusMessagesTest) GetSetupTimeout() time.Duration {
	return testconstants.DefaultSetupTimeout
}

func (test StatusMessagesTest) GetExecutionTimeout() time.Duration {
	return 60 * time.Second
}

/*
 * Copyright (c) 2021 - present Kurtosis Technologies LLC.
 * All Rights Reserved.
 */

package full_stack_template_test

import (
	"github.com/palantir/stacktrace"
	"github.com/sirupsen/logrus"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/contract_runner"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/lib/testsuite"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/testsuite_impl/testconstants"
	"time"
)

const (
	initContractFunction       = "InitContract"
	writeDataFunction          = "WriteData"
	readDataFunction           = "ReadData"
	acceptPaymentFunction      = "AcceptPayment"
	readIncomingTxDataFunction = "ReadIncommingTxData"
	readBlockchainDataFunction = "ReadBlockchainData"

	testKey  = "testKey"
	testData = "testData"
)

// FullStackTemplateTest exercises every entry point of the full-stack template contract, reporting on all of
// them even when some fail
type FullStackTemplateTest struct {
	artifactFilepath string
}

func NewFullStackTemplateTest(artifactFilepath string) *FullStackTemplateTest {
	return &FullStackTemplateTest{artifactFilepath: artifactFilepath}
}

func (test FullStackTemplateTest) GetTestConfiguration() testsuite.TestConfiguration {
	return testsuite.TestConfiguration{
		RunMode:          contract_runner.CollectAll,
		ArtifactFilepath: test.artifactFilepath,
	}
}

func (test FullStackTemplateTest) GetCallSequence(contractId string) []contract_runner.CallDescriptor {
	return []contract_runner.CallDescriptor{
		testconstants.StandardCall(initContractFunction, testconstants.NoArgs()),
		testconstants.StandardCall(writeDataFunction, map[string]string{"key": testKey, "data": testData}),
		testconstants.StandardCall(readDataFunction, map[string]string{"key": testKey}),
		testconstants.StandardCall(acceptPaymentFunction, testconstants.NoArgs()),
		testconstants.StandardCall(readIncomingTxDataFunction, testconstants.NoArgs()),
		testconstants.StandardCall(readBlockchainDataFunction, testconstants.NoArgs()),
	}
}

func (test FullStackTemplateTest) Verify(result *contract_runner.RunResult, testCtx testsuite.TestContext) {
	if err := result.Err(); err != nil {
		testCtx.Fatal(stacktrace.Propagate(err, "%v call(s) to the contract failed", len(result.Failed())))
	}

	readOutcome := result.Outcome(readDataFunction)
	logrus.Infof("Read back value '%v' for key '%v'", readOutcome.String(), testKey)
	testCtx.AssertTrue(
		readOutcome.String() == testData,
		stacktrace.NewError("'%v' returned '%v' for key '%v' but '%v' was written", readDataFunction, readOutcome.String(), testKey, testData))
}

func (test FullStackTemplateTest) GetSetupTimeout() time.Duration {
	return testconstants.DefaultSetupTimeout
}

func (test FullStackTemplateTest) GetExecutionTimeout() time.Duration {
	return testconstants.DefaultExecutionTimeout
}

/*
 * Copyright (c) 2021 - present Kurtosis Technologies LLC.
 * All Rights Reserved.
 */

package testsuite

import (
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/contract_runner"
	"time"
)

type TestSuite interface {
	GetTests() map[string]Test
}

type TestConfiguration struct {
	RunMode contract_runner.RunMode

	// Overrides the suite-wide artifact path when non-empty
	ArtifactFilepath string
}

// Test is a fixed call sequence against a freshly deployed contract, plus the checks to run on its outcomes
type Test interface {
	GetTestConfiguration() TestConfiguration

	GetCallSequence(contractId string) []contract_runner.CallDescriptor

	// Verify is only called if the contract was deployed; failed calls are already in the result
	Verify(result *contract_runner.RunResult, testCtx TestContext)

	// Covers provisioning the sandbox and deploying the contract
	GetSetupTimeout() time.Duration

	GetExecutionTimeout() time.Duration
}

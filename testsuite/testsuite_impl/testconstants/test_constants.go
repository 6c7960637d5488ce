/*
 * Copyright (c) 2021 - present Kurtosis Technologies LLC.
 * All Rights Reserved.
 */

package testconstants

import (
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/contract_runner"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/near_client"
	"time"
)

const (
	StandardDepositNear = 3
	StandardGasTgas     = 300

	DefaultSetupTimeout     = 120 * time.Second
	DefaultExecutionTimeout = 120 * time.Second
)

// StandardCall attaches the deposit and gas every test call in this suite uses
func StandardCall(functionName string, args interface{}) contract_runner.CallDescriptor {
	return contract_runner.CallDescriptor{
		FunctionName: functionName,
		Args:         args,
		Deposit:      near_client.NearTokenFromNear(StandardDepositNear),
		Gas:          near_client.NearGasFromTgas(StandardGasTgas),
	}
}

// NoArgs serializes to an empty JSON object
func NoArgs() map[string]interface{} {
	return map[string]interface{}{}
}

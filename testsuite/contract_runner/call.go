/*
 * Copyright (c) 2021 - present Kurtosis Technologies LLC.
 * All Rights Reserved.
 */

package contract_runner

import (
	"encoding/json"
	"github.com/palantir/stacktrace"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/near_client"
	"strconv"
	"strings"
	"time"
)

// CallDescriptor is one remote invocation; Args is serialized to JSON when the call is issued
type CallDescriptor struct {
	FunctionName string
	Args         interface{}
	Deposit      near_client.NearToken
	Gas          near_client.NearGas
}

// CallSequence builds the ordered calls once the contract is deployed, so arguments can refer to its account ID
type CallSequence func(contractId string) []CallDescriptor

// CallResponse is what the sandbox reports for a call that got executed
type CallResponse struct {
	Logs        []string
	ReturnValue []byte

	// Non-empty when the call executed but failed (panic, out of gas, failure status)
	Failure string
}

type CallOutcome struct {
	Descriptor  CallDescriptor
	Logs        []string
	ReturnValue []byte
	Duration    time.Duration

	// Nil on success
	Err error
}

func (outcome *CallOutcome) IsSuccess() bool {
	return outcome.Err == nil
}

func (outcome *CallOutcome) String() string {
	return string(outcome.ReturnValue)
}

func (outcome *CallOutcome) Json(value interface{}) error {
	if !outcome.IsSuccess() {
		return stacktrace.Propagate(outcome.Err, "Call '%v' didn't succeed so it has no return value", outcome.Descriptor.FunctionName)
	}
	if err := json.Unmarshal(outcome.ReturnValue, value); err != nil {
		return stacktrace.PropagateWithCode(
			err,
			MalformedResponse,
			"Return value '%v' of call '%v' isn't valid JSON for the expected type",
			string(outcome.ReturnValue),
			outcome.Descriptor.FunctionName)
	}
	return nil
}

// SmallInt decodes a return value that's expected to be a small unsigned integer flag, e.g. "1", rejecting
// anything else with a MalformedResponse error instead of silently truncating it
func (outcome *CallOutcome) SmallInt() (uint8, error) {
	if !outcome.IsSuccess() {
		return 0, stacktrace.Propagate(outcome.Err, "Call '%v' didn't succeed so it has no return value", outcome.Descriptor.FunctionName)
	}
	valueStr := strings.TrimSpace(string(outcome.ReturnValue))
	value, err := strconv.ParseUint(valueStr, 10, 8)
	if err != nil {
		return 0, stacktrace.PropagateWithCode(
			err,
			MalformedResponse,
			"Expected call '%v' to return a small integer, but it returned '%v'",
			outcome.Descriptor.FunctionName,
			valueStr)
	}
	return uint8(value), nil
}

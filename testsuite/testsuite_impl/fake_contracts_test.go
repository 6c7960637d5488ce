/*
 * Copyright (c) 2021 - present Kurtosis Technologies LLC.
 * All Rights Reserved.
 */

package testsuite_impl

import (
	"context"
	"encoding/json"
	"github.com/palantir/stacktrace"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/contract_runner"
)

const (
	fakeContractId = "dev-1-abcdef01.test.near"
)

// fakeContracts behaves like the sample contracts: the full-stack template, status messages and greeting
// entry points all answer on one account
type fakeContracts struct {
	storage   map[string]string
	statuses  map[string]string
	greeting  string
	overrides map[string]string

	// Function name to the failure reported for it
	failures map[string]string
}

func newFakeContracts() *fakeContracts {
	return &fakeContracts{
		storage:   map[string]string{},
		statuses:  map[string]string{},
		overrides: map[string]string{},
		failures:  map[string]string{},
	}
}

func (contracts *fakeContracts) Provision(ctx context.Context) (contract_runner.Sandbox, error) {
	return contracts, nil
}

func (contracts *fakeContracts) DevDeploy(ctx context.Context, wasm []byte) (contract_runner.Contract, error) {
	return contracts, nil
}

func (contracts *fakeContracts) Destroy() error {
	return nil
}

func (contracts *fakeContracts) ID() string {
	return fakeContractId
}

func (contracts *fakeContracts) Call(ctx context.Context, descriptor contract_runner.CallDescriptor) (*contract_runner.CallResponse, error) {
	argsBytes, err := json.Marshal(descriptor.Args)
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred serializing the args")
	}
	args := map[string]string{}
	if err := json.Unmarshal(argsBytes, &args); err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred deserializing the args")
	}
	if failure, found := contracts.failures[descriptor.FunctionName]; found {
		return &contract_runner.CallResponse{Logs: []string{}, Failure: failure}, nil
	}
	if override, found := contracts.overrides[descriptor.FunctionName]; found {
		return respond(override), nil
	}

	switch descriptor.FunctionName {
	case "InitContract":
		return respond("Init Smart Contract", "Init Smart Contract"), nil
	case "WriteData":
		contracts.storage[args["key"]] = args["data"]
		return respond("WriteData was successful", "env.StorageWrite returned true"), nil
	case "ReadData":
		return respond(contracts.storage[args["key"]], "ReadData was successful"), nil
	case "AcceptPayment", "ReadIncommingTxData", "ReadBlockchainData":
		return respond(""), nil
	case "SetStatus":
		contracts.statuses[fakeContractId] = args["message"]
		return respond(args["message"]), nil
	case "GetStatus":
		return respond(contracts.statuses[args["account_id"]]), nil
	case "Init":
		contracts.greeting = "Hello from NEAR!"
		return respond("", "Hello from Init Method"), nil
	case "GetGreeting":
		greetingJson, _ := json.Marshal(contracts.greeting)
		return respond(string(greetingJson)), nil
	case "SetGreeting":
		contracts.greeting = args["greeting"]
		return respond(""), nil
	}
	return &contract_runner.CallResponse{Logs: []string{}, Failure: "MethodNotFound"}, nil
}

func respond(returnValue string, logs ...string) *contract_runner.CallResponse {
	return &contract_runner.CallResponse{Logs: append([]string{}, logs...), ReturnValue: []byte(returnValue)}
}

/*
 * Copyright (c) 2021 - present Kurtosis Technologies LLC.
 * All Rights Reserved.
 */

package contract_runner

import (
	"context"
	"encoding/json"
	"github.com/palantir/stacktrace"
)

const (
	fakeContractId = "dev-1.test.near"
)

type event struct {
	kind         string
	functionName string
}

// fakeSandbox emulates a deployed contract with key-value storage, recording every deploy and call in order
type fakeSandbox struct {
	provisionErr error
	deployErr    error

	// Functions that execute but fail, keyed by name
	failures map[string]string

	// Functions the sandbox refuses to execute at all
	rejections map[string]bool

	events    []event
	storage   map[string]string
	destroyed bool
}

func newFakeSandbox() *fakeSandbox {
	return &fakeSandbox{
		failures:   map[string]string{},
		rejections: map[string]bool{},
		events:     []event{},
		storage:    map[string]string{},
	}
}

func (sandbox *fakeSandbox) Provision(ctx context.Context) (Sandbox, error) {
	if sandbox.provisionErr != nil {
		return nil, sandbox.provisionErr
	}
	sandbox.events = append(sandbox.events, event{kind: "provision"})
	return sandbox, nil
}

func (sandbox *fakeSandbox) DevDeploy(ctx context.Context, wasm []byte) (Contract, error) {
	sandbox.events = append(sandbox.events, event{kind: "deploy"})
	if sandbox.deployErr != nil {
		return nil, sandbox.deployErr
	}
	return &fakeContract{sandbox: sandbox}, nil
}

func (sandbox *fakeSandbox) Destroy() error {
	sandbox.destroyed = true
	return nil
}

func (sandbox *fakeSandbox) calledFunctions() []string {
	names := []string{}
	for _, e := range sandbox.events {
		if e.kind == "call" {
			names = append(names, e.functionName)
		}
	}
	return names
}

type fakeContract struct {
	sandbox *fakeSandbox
}

func (contract *fakeContract) ID() string {
	return fakeContractId
}

func (contract *fakeContract) Call(ctx context.Context, descriptor CallDescriptor) (*CallResponse, error) {
	sandbox := contract.sandbox
	sandbox.events = append(sandbox.events, event{kind: "call", functionName: descriptor.FunctionName})
	if sandbox.rejections[descriptor.FunctionName] {
		return nil, stacktrace.NewError("InvalidTxError: the transaction for '%v' was rejected", descriptor.FunctionName)
	}
	if failure, found := sandbox.failures[descriptor.FunctionName]; found {
		return &CallResponse{Logs: []string{}, Failure: failure}, nil
	}

	argsBytes, err := json.Marshal(descriptor.Args)
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred serializing the args")
	}
	args := map[string]string{}
	if err := json.Unmarshal(argsBytes, &args); err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred deserializing the args")
	}

	switch descriptor.FunctionName {
	case "InitContract":
		return &CallResponse{Logs: []string{"Init Smart Contract"}, ReturnValue: []byte("1")}, nil
	case "WriteData":
		sandbox.storage[args["key"]] = args["data"]
		return &CallResponse{Logs: []string{"env.StorageWrite returned true"}, ReturnValue: []byte("WriteData was successful")}, nil
	case "ReadData":
		return &CallResponse{Logs: []string{"ReadData was successful"}, ReturnValue: []byte(sandbox.storage[args["key"]])}, nil
	}
	return &CallResponse{Logs: []string{}, ReturnValue: []byte(descriptor.FunctionName)}, nil
}

/*
 * Copyright (c) 2021 - present Kurtosis Technologies LLC.
 * All Rights Reserved.
 */

package execution_impl

import (
	"encoding/json"
	"github.com/palantir/stacktrace"
	"github.com/sirupsen/logrus"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/contract_runner"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/lib/testsuite"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/near_client"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/networks_impl"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/testsuite_impl"
	"os"
	"strings"
)

type ContractTestsuiteConfigurator struct{}

func NewContractTestsuiteConfigurator() *ContractTestsuiteConfigurator {
	return &ContractTestsuiteConfigurator{}
}

func (t ContractTestsuiteConfigurator) SetLogLevel(logLevelStr string) error {
	level, err := logrus.ParseLevel(logLevelStr)
	if err != nil {
		return stacktrace.Propagate(err, "An error occurred parsing loglevel string '%v'", logLevelStr)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})
	return nil
}

func (t ContractTestsuiteConfigurator) ParseParamsAndCreateSuite(paramsJsonStr string) (testsuite.TestSuite, error) {
	args, err := parseParams(DefaultContractTestsuiteArgs(), paramsJsonStr)
	if err != nil {
		return nil, err
	}
	suite, err := testsuite_impl.NewContractTestsuite(args.WasmFilepath, args.Artifacts, args.Tests)
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred creating the testsuite")
	}
	return suite, nil
}

// ParseParamsAndCreateExecutor layers the params JSON, if any, over the base args and wires up the suite and
// the sandbox network it runs against
func (t ContractTestsuiteConfigurator) ParseParamsAndCreateExecutor(baseArgs ContractTestsuiteArgs, paramsJsonStr string) (*TestsuiteExecutor, error) {
	args, err := parseParams(baseArgs, paramsJsonStr)
	if err != nil {
		return nil, err
	}
	suite, err := testsuite_impl.NewContractTestsuite(args.WasmFilepath, args.Artifacts, args.Tests)
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred creating the testsuite")
	}

	devAccountBalance := near_client.NearTokenFromNear(args.DevAccountBalanceNear)
	var network *networks_impl.NearSandboxNetwork
	if strings.TrimSpace(args.SandboxRpcUrl) != "" {
		logrus.Debugf("Tests will run against the sandbox at '%v'", args.SandboxRpcUrl)
		network = networks_impl.NewAttachedNearSandboxNetwork(args.SandboxRpcUrl, args.RootAccountKeyFile, devAccountBalance)
	} else {
		network = networks_impl.NewNearSandboxNetwork(args.SandboxBinary, devAccountBalance)
	}

	executor := NewTestsuiteExecutor(suite, network, os.Stdout).FailOnCallError(args.FailOnCallError)
	if args.RunMode != "" {
		runMode, err := contract_runner.ParseRunMode(args.RunMode)
		if err != nil {
			return nil, stacktrace.Propagate(err, "An error occurred parsing the run mode")
		}
		executor.OverrideRunMode(runMode)
	}
	return executor, nil
}

func parseParams(baseArgs ContractTestsuiteArgs, paramsJsonStr string) (ContractTestsuiteArgs, error) {
	args := baseArgs
	if strings.TrimSpace(paramsJsonStr) != "" {
		if err := json.Unmarshal([]byte(paramsJsonStr), &args); err != nil {
			return ContractTestsuiteArgs{}, stacktrace.Propagate(err, "An error occurred deserializing the testsuite params JSON")
		}
	}
	if err := validateArgs(args); err != nil {
		return ContractTestsuiteArgs{}, stacktrace.Propagate(err, "An error occurred validating the deserialized testsuite params")
	}
	return args, nil
}

func validateArgs(args ContractTestsuiteArgs) error {
	if strings.TrimSpace(args.WasmFilepath) == "" {
		return stacktrace.NewError("Wasm filepath is empty")
	}
	for testName, artifactFilepath := range args.Artifacts {
		if strings.TrimSpace(artifactFilepath) == "" {
			return stacktrace.NewError("Artifact filepath for test '%v' is empty", testName)
		}
	}
	if strings.TrimSpace(args.SandboxRpcUrl) == "" {
		if strings.TrimSpace(args.SandboxBinary) == "" {
			return stacktrace.NewError("Sandbox binary is empty and no sandbox RPC URL was given to attach to")
		}
	} else if strings.TrimSpace(args.RootAccountKeyFile) == "" {
		return stacktrace.NewError("A root account key file is required to attach to the sandbox at '%v'", args.SandboxRpcUrl)
	}
	if args.RunMode != "" {
		if _, err := contract_runner.ParseRunMode(args.RunMode); err != nil {
			return stacktrace.Propagate(err, "Invalid run mode")
		}
	}
	if args.DevAccountBalanceNear == 0 {
		return stacktrace.NewError("Dev account balance must be at least 1 NEAR")
	}
	return nil
}

/*
 * Copyright (c) 2021 - present Kurtosis Technologies LLC.
 * All Rights Reserved.
 */

package execution_impl

const (
	defaultWasmFilepath          = "../main.wasm"
	defaultSandboxBinary         = "near-sandbox"
	defaultDevAccountBalanceNear = 100
)

// ContractTestsuiteArgs are the testsuite's custom params; they arrive as JSON, or from flags, environment and
// config file through viper
type ContractTestsuiteArgs struct {
	WasmFilepath string `json:"wasmFilepath" mapstructure:"wasmFilepath"`

	// Test name -> artifact, for tests that target a different contract than WasmFilepath
	Artifacts map[string]string `json:"artifacts" mapstructure:"artifacts"`

	SandboxBinary string `json:"sandboxBinary" mapstructure:"sandboxBinary"`

	// When set, tests run against this already-running sandbox instead of starting their own
	SandboxRpcUrl      string `json:"sandboxRpcUrl" mapstructure:"sandboxRpcUrl"`
	RootAccountKeyFile string `json:"rootAccountKeyFile" mapstructure:"rootAccountKeyFile"`

	// Overrides every test's own run mode when non-empty
	RunMode string `json:"runMode" mapstructure:"runMode"`

	// Empty means every test
	Tests []string `json:"tests" mapstructure:"tests"`

	DevAccountBalanceNear uint64 `json:"devAccountBalanceNear" mapstructure:"devAccountBalanceNear"`

	FailOnCallError bool `json:"failOnCallError" mapstructure:"failOnCallError"`
}

func DefaultContractTestsuiteArgs() ContractTestsuiteArgs {
	return ContractTestsuiteArgs{
		WasmFilepath:          defaultWasmFilepath,
		Artifacts:             map[string]string{},
		SandboxBinary:         defaultSandboxBinary,
		Tests:                 []string{},
		DevAccountBalanceNear: defaultDevAccountBalanceNear,
	}
}

/*
 * Copyright (c) 2021 - present Kurtosis Technologies LLC.
 * All Rights Reserved.
 */

package execution_impl

import (
	"bytes"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/networks_impl"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/testsuite_impl"
	"testing"
)

func TestSetLogLevel(t *testing.T) {
	configurator := NewContractTestsuiteConfigurator()
	previousLevel := logrus.GetLevel()
	defer logrus.SetLevel(previousLevel)

	require.NoError(t, configurator.SetLogLevel("debug"))
	require.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	require.Error(t, configurator.SetLogLevel("chatty"))
}

func TestParseParamsAndCreateSuiteDefaults(t *testing.T) {
	suite, err := NewContractTestsuiteConfigurator().ParseParamsAndCreateSuite("")
	require.NoError(t, err)
	require.Len(t, suite.GetTests(), len(testsuite_impl.GetAllTestNames()))
	for _, test := range suite.GetTests() {
		require.Equal(t, defaultWasmFilepath, test.GetTestConfiguration().ArtifactFilepath)
	}
}

func TestParseParamsAndCreateSuiteSelectsTests(t *testing.T) {
	params := `{"wasmFilepath": "build/main.wasm", "tests": ["statusMessagesTest"], "artifacts": {"statusMessagesTest": "status.wasm"}}`
	suite, err := NewContractTestsuiteConfigurator().ParseParamsAndCreateSuite(params)
	require.NoError(t, err)
	tests := suite.GetTests()
	require.Len(t, tests, 1)
	require.Equal(t, "status.wasm", tests[testsuite_impl.StatusMessagesTestName].GetTestConfiguration().ArtifactFilepath)
}

func TestParseParamsRejectsBadParams(t *testing.T) {
	invalidParams := map[string]string{
		"malformed JSON":            `{"wasmFilepath": `,
		"empty wasm filepath":       `{"wasmFilepath": " "}`,
		"unknown test":              `{"tests": ["smartContractTest"]}`,
		"unknown run mode":          `{"runMode": "best-effort"}`,
		"attach without key file":   `{"sandboxRpcUrl": "http://127.0.0.1:3030"}`,
		"no binary and no rpc url":  `{"sandboxBinary": ""}`,
		"zero dev account balance":  `{"devAccountBalanceNear": 0}`,
		"empty artifact for a test": `{"artifacts": {"greetingTest": ""}}`,
	}
	configurator := NewContractTestsuiteConfigurator()
	for description, params := range invalidParams {
		_, err := configurator.ParseParamsAndCreateExecutor(DefaultContractTestsuiteArgs(), params)
		require.Error(t, err, "Expected params with %v to be rejected", description)
	}
}

func TestParamsLayerOverBaseArgs(t *testing.T) {
	baseArgs := DefaultContractTestsuiteArgs()
	baseArgs.FailOnCallError = true
	baseArgs.SandboxRpcUrl = "http://127.0.0.1:3030"
	baseArgs.RootAccountKeyFile = "/tmp/validator_key.json"

	executor, err := NewContractTestsuiteConfigurator().ParseParamsAndCreateExecutor(baseArgs, `{"runMode": "fail-fast"}`)
	require.NoError(t, err)
	require.True(t, executor.ShouldFailOnCallError())
	require.NotNil(t, executor.runModeOverride)

	network, ok := executor.provider.(*networks_impl.NearSandboxNetwork)
	require.True(t, ok)
	require.True(t, network.IsAttached())
}

func TestProcessModeIsDefault(t *testing.T) {
	executor, err := NewContractTestsuiteConfigurator().ParseParamsAndCreateExecutor(DefaultContractTestsuiteArgs(), "")
	require.NoError(t, err)
	require.False(t, executor.ShouldFailOnCallError())
	require.Nil(t, executor.runModeOverride)

	network, ok := executor.provider.(*networks_impl.NearSandboxNetwork)
	require.True(t, ok)
	require.False(t, network.IsAttached())
}

func TestArtifactsFromConfigFileResolveTestNames(t *testing.T) {
	configYaml := `
wasmFilepath: build/main.wasm
tests:
  - greetingTest
artifacts:
  greetingTest: build/greeting.wasm
`
	config := viper.New()
	config.SetConfigType("yaml")
	require.NoError(t, config.ReadConfig(bytes.NewBufferString(configYaml)))
	args := DefaultContractTestsuiteArgs()
	require.NoError(t, config.Unmarshal(&args))

	executor, err := NewContractTestsuiteConfigurator().ParseParamsAndCreateExecutor(args, "")
	require.NoError(t, err)
	tests := executor.suite.GetTests()
	require.Len(t, tests, 1)
	require.Equal(t, "build/greeting.wasm", tests[testsuite_impl.GreetingTestName].GetTestConfiguration().ArtifactFilepath)
}

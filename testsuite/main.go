/*
 * Copyright (c) 2021 - present Kurtosis Technologies LLC.
 * All Rights Reserved.
 */

package main

import (
	"context"
	"fmt"
	"github.com/palantir/stacktrace"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/execution_impl"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/testsuite_impl"
	"os"
	"os/signal"
	"strings"
)

const (
	envPrefix = "NEAR_TESTSUITE"

	configFileKey            = "config"
	paramsKey                = "params"
	logLevelKey              = "logLevel"
	wasmFilepathKey          = "wasmFilepath"
	sandboxBinaryKey         = "sandboxBinary"
	sandboxRpcUrlKey         = "sandboxRpcUrl"
	rootAccountKeyFileKey    = "rootAccountKeyFile"
	runModeKey               = "runMode"
	testsKey                 = "tests"
	devAccountBalanceNearKey = "devAccountBalanceNear"
	failOnCallErrorKey       = "failOnCallError"

	defaultLogLevel = "info"

	setupFailedExitCode = 2
)

var defaultTests = []string{
	testsuite_impl.InitContractTestName,
	testsuite_impl.FullStackTemplateTestName,
}

var exitCode = 0

var rootCmd = &cobra.Command{
	Use:   "near-contract-testsuite",
	Short: "Deploys a NEAR contract to a throwaway sandbox and runs integration tests against it",
	Example: "near-contract-testsuite --wasm-filepath ../main.wasm\n" +
		"near-contract-testsuite --tests greetingTest --wasm-filepath examples/greeting/main.wasm --run-mode fail-fast",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.Flags()
	flags.String("config", "", "Config file (JSON, YAML or TOML) holding any of the testsuite args")
	flags.String("params", "", "Testsuite params JSON, applied over flags, environment and config file")
	flags.String("log-level", defaultLogLevel, fmt.Sprintf("Log level (%v)", strings.Join(logLevelNames(), ", ")))
	flags.String("wasm-filepath", "../main.wasm", "Contract artifact to deploy")
	flags.String("sandbox-binary", "near-sandbox", "near-sandbox binary to start a sandbox node from")
	flags.String("sandbox-rpc-url", "", "RPC URL of an already-running sandbox to use instead of starting one")
	flags.String("root-account-key-file", "", "Key file of the sandbox's root account, needed with --sandbox-rpc-url")
	flags.String("run-mode", "", "Run every test as 'collect-all' or 'fail-fast' instead of in its own mode")
	flags.StringSlice("tests", defaultTests, fmt.Sprintf("Tests to run, from %v", testsuite_impl.GetAllTestNames()))
	flags.Uint64("dev-account-balance-near", 100, "NEAR to fund each dev account with")
	flags.Bool("fail-on-call-error", false, "Exit non-zero when a contract call or a test verification fails")

	flagKeys := map[string]string{
		"config":                   configFileKey,
		"params":                   paramsKey,
		"log-level":                logLevelKey,
		"wasm-filepath":            wasmFilepathKey,
		"sandbox-binary":           sandboxBinaryKey,
		"sandbox-rpc-url":          sandboxRpcUrlKey,
		"root-account-key-file":    rootAccountKeyFileKey,
		"run-mode":                 runModeKey,
		"tests":                    testsKey,
		"dev-account-balance-near": devAccountBalanceNearKey,
		"fail-on-call-error":       failOnCallErrorKey,
	}
	for flagName, key := range flagKeys {
		cobra.CheckErr(viper.BindPFlag(key, flags.Lookup(flagName)))
	}
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()
}

func initConfig() {
	configFile := viper.GetString(configFileKey)
	if configFile == "" {
		return
	}
	viper.SetConfigFile(configFile)
	if err := viper.ReadInConfig(); err != nil {
		logrus.Errorf("An error occurred reading config file '%v': %v", configFile, err)
		os.Exit(setupFailedExitCode)
	}
	logrus.Debugf("Read config file '%v'", viper.ConfigFileUsed())
}

func run(cmd *cobra.Command, args []string) error {
	configurator := execution_impl.NewContractTestsuiteConfigurator()
	if err := configurator.SetLogLevel(viper.GetString(logLevelKey)); err != nil {
		return stacktrace.Propagate(err, "An error occurred setting the log level")
	}

	baseArgs := execution_impl.DefaultContractTestsuiteArgs()
	if err := viper.Unmarshal(&baseArgs); err != nil {
		return stacktrace.Propagate(err, "An error occurred reading the testsuite args")
	}
	executor, err := configurator.ParseParamsAndCreateExecutor(baseArgs, viper.GetString(paramsKey))
	if err != nil {
		return stacktrace.Propagate(err, "An error occurred configuring the testsuite")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	result := executor.RunTests(ctx)
	exitCode = result.ExitCode(executor.ShouldFailOnCallError())
	return nil
}

func logLevelNames() []string {
	names := []string{}
	for _, level := range logrus.AllLevels {
		names = append(names, level.String())
	}
	return names
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Errorf("An error occurred running the testsuite:\n%v", err)
		os.Exit(setupFailedExitCode)
	}
	os.Exit(exitCode)
}

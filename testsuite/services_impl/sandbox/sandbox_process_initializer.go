/*
 * Copyright (c) 2021 - present Kurtosis Technologies LLC.
 * All Rights Reserved.
 */

package sandbox

import (
	"encoding/json"
	"fmt"
	"github.com/palantir/stacktrace"
	"github.com/sirupsen/logrus"
	"io/ioutil"
	"path/filepath"
)

const (
	listenHost = "127.0.0.1"

	configFilename       = "config.json"
	validatorKeyFilename = "validator_key.json"

	homeFlag        = "--home"
	initCmd         = "init"
	runCmd          = "run"
	rpcAddrFlag     = "--rpc-addr"
	networkAddrFlag = "--network-addr"

	maxOpenFiles       = 3000
	maxJsonPayloadSize = 1024 * 1024 * 1024
)

// Patched into the generated config.json; the default payload limit is too small for large contracts
type configOverrides struct {
	Store storeConfig `json:"store"`
	Rpc   rpcConfig   `json:"rpc"`
}

type storeConfig struct {
	MaxOpenFiles int `json:"max_open_files"`
}

type rpcConfig struct {
	LimitsConfig limitsConfig `json:"limits_config"`
}

type limitsConfig struct {
	JsonPayloadMaxSize int `json:"json_payload_max_size"`
}

// SandboxProcessInitializer knows how to lay out a sandbox home directory and the commands that start a node in it
type SandboxProcessInitializer struct {
	binaryPath  string
	homeDir     string
	rpcPort     int
	networkPort int
}

func NewSandboxProcessInitializer(binaryPath string, homeDir string, rpcPort int, networkPort int) *SandboxProcessInitializer {
	return &SandboxProcessInitializer{binaryPath: binaryPath, homeDir: homeDir, rpcPort: rpcPort, networkPort: networkPort}
}

func (initializer SandboxProcessInitializer) GetBinaryPath() string {
	return initializer.binaryPath
}

func (initializer SandboxProcessInitializer) GetHomeDir() string {
	return initializer.homeDir
}

func (initializer SandboxProcessInitializer) GetRpcUrl() string {
	return fmt.Sprintf("http://%v:%v", listenHost, initializer.rpcPort)
}

func (initializer SandboxProcessInitializer) GetValidatorKeyFilepath() string {
	return filepath.Join(initializer.homeDir, validatorKeyFilename)
}

// GetInitCommand generates the genesis, node config and the root account key in the home directory
func (initializer SandboxProcessInitializer) GetInitCommand() []string {
	return []string{
		homeFlag,
		initializer.homeDir,
		initCmd,
	}
}

func (initializer SandboxProcessInitializer) GetStartCommand() []string {
	return []string{
		homeFlag,
		initializer.homeDir,
		runCmd,
		rpcAddrFlag,
		fmt.Sprintf("%v:%v", listenHost, initializer.rpcPort),
		networkAddrFlag,
		fmt.Sprintf("%v:%v", listenHost, initializer.networkPort),
	}
}

// InitializeGeneratedFiles patches the config.json that the init command generated
func (initializer SandboxProcessInitializer) InitializeGeneratedFiles() error {
	configFilepath := filepath.Join(initializer.homeDir, configFilename)
	configBytes, err := ioutil.ReadFile(configFilepath)
	if err != nil {
		return stacktrace.Propagate(err, "An error occurred reading the generated sandbox config '%v'", configFilepath)
	}
	config := map[string]interface{}{}
	if err := json.Unmarshal(configBytes, &config); err != nil {
		return stacktrace.Propagate(err, "An error occurred deserializing the generated sandbox config")
	}

	overrides := configOverrides{
		Store: storeConfig{MaxOpenFiles: maxOpenFiles},
		Rpc:   rpcConfig{LimitsConfig: limitsConfig{JsonPayloadMaxSize: maxJsonPayloadSize}},
	}
	overridesBytes, err := json.Marshal(overrides)
	if err != nil {
		return stacktrace.Propagate(err, "An error occurred serializing the config overrides to JSON")
	}
	overridesMap := map[string]interface{}{}
	if err := json.Unmarshal(overridesBytes, &overridesMap); err != nil {
		return stacktrace.Propagate(err, "An error occurred deserializing the config overrides")
	}
	mergeJsonObjects(config, overridesMap)

	patchedBytes, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return stacktrace.Propagate(err, "An error occurred serializing the patched sandbox config to JSON")
	}
	logrus.Debugf("Patched sandbox config JSON: %v", string(patchedBytes))
	if err := ioutil.WriteFile(configFilepath, patchedBytes, 0644); err != nil {
		return stacktrace.Propagate(err, "An error occurred writing the patched sandbox config to '%v'", configFilepath)
	}
	return nil
}

// mergeJsonObjects recursively copies source into destination, keeping destination keys source doesn't mention
func mergeJsonObjects(destination map[string]interface{}, source map[string]interface{}) {
	for key, sourceValue := range source {
		sourceObj, sourceIsObj := sourceValue.(map[string]interface{})
		destinationObj, destinationIsObj := destination[key].(map[string]interface{})
		if sourceIsObj && destinationIsObj {
			mergeJsonObjects(destinationObj, sourceObj)
			continue
		}
		destination[key] = sourceValue
	}
}

/*
 * Copyright (c) 2021 - present Kurtosis Technologies LLC.
 * All Rights Reserved.
 */

package testsuite_impl

import (
	"github.com/palantir/stacktrace"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/lib/testsuite"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/testsuite_impl/full_stack_template_test"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/testsuite_impl/greeting_test"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/testsuite_impl/init_contract_test"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/testsuite_impl/status_messages_test"
	"sort"
	"strings"
)

const (
	InitContractTestName      = "initContractTest"
	FullStackTemplateTestName = "fullStackTemplateTest"
	StatusMessagesTestName    = "statusMessagesTest"
	GreetingTestName          = "greetingTest"
)

type ContractTestsuite struct {
	wasmFilepath string

	// Test name -> artifact, for tests targeting a different contract than wasmFilepath
	artifactOverrides map[string]string

	// Empty means every test
	selectedTests []string
}

func NewContractTestsuite(wasmFilepath string, artifactOverrides map[string]string, selectedTests []string) (*ContractTestsuite, error) {
	suite := &ContractTestsuite{
		wasmFilepath:      wasmFilepath,
		artifactOverrides: map[string]string{},
		selectedTests:     []string{},
	}
	for _, name := range selectedTests {
		canonicalName, found := canonicalTestName(name)
		if !found {
			return nil, stacktrace.NewError("Unknown test '%v'; valid tests are %v", name, GetAllTestNames())
		}
		suite.selectedTests = append(suite.selectedTests, canonicalName)
	}
	for name, artifactFilepath := range artifactOverrides {
		canonicalName, found := canonicalTestName(name)
		if !found {
			return nil, stacktrace.NewError("Artifact configured for unknown test '%v'; valid tests are %v", name, GetAllTestNames())
		}
		suite.artifactOverrides[canonicalName] = artifactFilepath
	}
	return suite, nil
}

// canonicalTestName matches test names case-insensitively, since config file keys arrive lowercased
func canonicalTestName(name string) (string, bool) {
	for _, testName := range GetAllTestNames() {
		if strings.EqualFold(testName, name) {
			return testName, true
		}
	}
	return "", false
}

func (suite ContractTestsuite) GetTests() map[string]testsuite.Test {
	allTests := suite.allTests()
	if len(suite.selectedTests) == 0 {
		return allTests
	}
	tests := map[string]testsuite.Test{}
	for _, name := range suite.selectedTests {
		tests[name] = allTests[name]
	}
	return tests
}

func (suite ContractTestsuite) allTests() map[string]testsuite.Test {
	return map[string]testsuite.Test{
		InitContractTestName:      init_contract_test.NewInitContractTest(suite.getArtifactFilepath(InitContractTestName)),
		FullStackTemplateTestName: full_stack_template_test.NewFullStackTemplateTest(suite.getArtifactFilepath(FullStackTemplateTestName)),
		StatusMessagesTestName:    status_messages_test.NewStatusMessagesTest(suite.getArtifactFilepath(StatusMessagesTestName)),
		GreetingTestName:          greeting_test.NewGreetingTest(suite.getArtifactFilepath(GreetingTestName)),
	}
}

func (suite ContractTestsuite) getArtifactFilepath(testName string) string {
	if artifactFilepath, found := suite.artifactOverrides[testName]; found {
		return artifactFilepath
	}
	return suite.wasmFilepath
}

func GetAllTestNames() []string {
	names := []string{
		InitContractTestName,
		FullStackTemplateTestName,
		StatusMessagesTestName,
		GreetingTestName,
	}
	sort.Strings(names)
	return names
}

/*
 * Copyright (c) 2021 - present Kurtosis Technologies LLC.
 * All Rights Reserved.
 */

package testsuite

import (
	"github.com/palantir/stacktrace"
)

// TestContext lets a test's verification fail the test. Fatal unwinds the verification immediately, so
// nothing after a failed assertion runs.
type TestContext struct{}

// testFailure is the panic payload Fatal uses to unwind; RunVerification recovers it
type testFailure struct {
	err error
}

func (testCtx TestContext) Fatal(err error) {
	panic(testFailure{err: err})
}

func (testCtx TestContext) AssertTrue(condition bool, err error) {
	if !condition {
		testCtx.Fatal(stacktrace.Propagate(err, "Assertion failed"))
	}
}

// RunVerification runs the function, returning the error passed to Fatal if it failed the test. Panics that
// didn't come from Fatal are re-raised.
func RunVerification(verify func(testCtx TestContext)) (resultErr error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			failure, ok := recovered.(testFailure)
			if !ok {
				panic(recovered)
			}
			resultErr = failure.err
		}
	}()
	verify(TestContext{})
	return nil
}

/*
 * Copyright (c) 2021 - present Kurtosis Technologies LLC.
 * All Rights Reserved.
 */

package contract_runner

import (
	"github.com/palantir/stacktrace"
)

// Error classes of a run. Fatal ones abort the run before any call is issued; CallFailed and
// MalformedResponse are recorded per call.
const (
	ProvisioningError stacktrace.ErrorCode = iota
	MissingArtifact
	DeploymentError
	CallFailed
	MalformedResponse
)

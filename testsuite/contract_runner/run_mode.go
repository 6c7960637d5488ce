/*
 * Copyright (c) 2021 - present Kurtosis Technologies LLC.
 * All Rights Reserved.
 */

package contract_runner

import (
	"github.com/palantir/stacktrace"
	"strings"
)

type RunMode int

const (
	// CollectAll issues every call in the sequence exactly once, whatever happened to earlier calls
	CollectAll RunMode = iota

	// FailFast stops issuing calls after the first one that fails
	FailFast
)

const (
	collectAllModeStr = "collect-all"
	failFastModeStr   = "fail-fast"
)

func ParseRunMode(modeStr string) (RunMode, error) {
	switch strings.ToLower(strings.TrimSpace(modeStr)) {
	case collectAllModeStr:
		return CollectAll, nil
	case failFastModeStr:
		return FailFast, nil
	}
	return CollectAll, stacktrace.NewError(
		"Unrecognized run mode '%v'; valid modes are '%v' and '%v'",
		modeStr,
		collectAllModeStr,
		failFastModeStr)
}

func (mode RunMode) String() string {
	if mode == FailFast {
		return failFastModeStr
	}
	return collectAllModeStr
}

/*
 * Copyright (c) 2021 - present Kurtosis Technologies LLC.
 * All Rights Reserved.
 */

package near_client

import (
	"github.com/palantir/stacktrace"
	"regexp"
)

const (
	minAccountIdLen = 2
	maxAccountIdLen = 64
)

// Lowercase alphanumeric parts separated by exactly one of '-', '_' or '.'
var accountIdRegex = regexp.MustCompile(`^(([a-z\d]+[\-_])*[a-z\d]+\.)*([a-z\d]+[\-_])*[a-z\d]+$`)

type AccountID string

func ValidateAccountID(id string) error {
	if len(id) < minAccountIdLen || len(id) > maxAccountIdLen {
		return stacktrace.NewError(
			"Account ID '%v' has length %v, but must be between %v and %v characters",
			id,
			len(id),
			minAccountIdLen,
			maxAccountIdLen)
	}
	if !accountIdRegex.MatchString(id) {
		return stacktrace.NewError("Account ID '%v' contains invalid characters or separators", id)
	}
	return nil
}

func ParseAccountID(id string) (AccountID, error) {
	if err := ValidateAccountID(id); err != nil {
		return "", stacktrace.Propagate(err, "An error occurred validating account ID '%v'", id)
	}
	return AccountID(id), nil
}

// SubAccountID returns "<prefix>.<id>"
func (id AccountID) SubAccountID(prefix string) (AccountID, error) {
	subAccountId, err := ParseAccountID(prefix + "." + string(id))
	if err != nil {
		return "", stacktrace.Propagate(err, "An error occurred building a sub-account of '%v' with prefix '%v'", id, prefix)
	}
	return subAccountId, nil
}

func (id AccountID) String() string {
	return string(id)
}

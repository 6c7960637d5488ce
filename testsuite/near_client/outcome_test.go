/*
 * Copyright (c) 2021 - present Kurtosis Technologies LLC.
 * All Rights Reserved.
 */

package near_client

import (
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

const (
	successOutcomeJson = `{
		"status": {"SuccessValue": "dGVzdERhdGE="},
		"transaction_outcome": {
			"id": "9FtHUFBQsZ2MG77K3x3MJ9wjX3UT8zE1TczCrhZEcG8U",
			"outcome": {"logs": [], "receipt_ids": ["a"], "gas_burnt": 100, "tokens_burnt": "10", "executor_id": "dev-1.test.near", "status": {"SuccessReceiptId": "a"}}
		},
		"receipts_outcome": [
			{"id": "a", "outcome": {"logs": ["Contract input (JSON): {\"key\":\"testKey\"}", "ReadData was successful"], "receipt_ids": ["b"], "gas_burnt": 200, "tokens_burnt": "20", "executor_id": "dev-1.test.near", "status": {"SuccessValue": "dGVzdERhdGE="}}},
			{"id": "b", "outcome": {"logs": [], "receipt_ids": [], "gas_burnt": 0, "tokens_burnt": "0", "executor_id": "test.near", "status": {"SuccessValue": ""}}}
		]
	}`

	failureOutcomeJson = `{
		"status": {"Failure": {"ActionError": {"index": 0, "kind": {"FunctionCallError": {"ExecutionError": "Smart contract panicked: Failed to get contract input"}}}}},
		"transaction_outcome": {
			"id": "BHuH6dw2Z9N6mHf3HzPY9Ro5uMtdeRB5sF6mH5DFHMRN",
			"outcome": {"logs": [], "receipt_ids": ["a"], "gas_burnt": 100, "tokens_burnt": "10", "executor_id": "dev-1.test.near", "status": {"SuccessReceiptId": "a"}}
		},
		"receipts_outcome": [
			{"id": "a", "outcome": {"logs": ["about to panic"], "receipt_ids": [], "gas_burnt": 200, "tokens_burnt": "20", "executor_id": "dev-1.test.near", "status": {"Failure": {"ActionError": {"index": 0, "kind": {"FunctionCallError": {"ExecutionError": "Smart contract panicked: Failed to get contract input"}}}}}}}
		]
	}`
)

func TestExecutionResultSuccess(t *testing.T) {
	result, err := newExecutionResult([]byte(successOutcomeJson))
	require.NoError(t, err)

	require.True(t, result.IsSuccess())
	require.Equal(t, "", result.Failure())
	require.Equal(t, "9FtHUFBQsZ2MG77K3x3MJ9wjX3UT8zE1TczCrhZEcG8U", result.TransactionHash())
	require.Equal(t, []string{`Contract input (JSON): {"key":"testKey"}`, "ReadData was successful"}, result.Logs())
	require.Equal(t, NearGas(300), result.TotalGasBurnt())

	raw, err := result.Raw()
	require.NoError(t, err)
	require.Equal(t, "testData", string(raw))

	var decoded string
	require.Error(t, result.Json(&decoded), "Bare testData isn't valid JSON")
}

func TestExecutionResultFailure(t *testing.T) {
	result, err := newExecutionResult([]byte(failureOutcomeJson))
	require.NoError(t, err)

	require.False(t, result.IsSuccess())
	require.True(t, strings.Contains(result.Failure(), "Smart contract panicked: Failed to get contract input"))
	require.Equal(t, []string{"about to panic"}, result.Logs())

	_, err = result.Raw()
	require.Error(t, err)
}

func TestExecutionResultPendingStatus(t *testing.T) {
	result, err := newExecutionResult([]byte(`{"status": "Started", "transaction_outcome": {"id": "x", "outcome": {"logs": [], "receipt_ids": [], "gas_burnt": 0, "tokens_burnt": "0", "executor_id": "a.near", "status": "Unknown"}}, "receipts_outcome": []}`))
	require.NoError(t, err)
	require.False(t, result.IsSuccess())
	require.Equal(t, "Transaction execution status is 'Started'", result.Failure())
}

func TestExecutionResultRejectsUnknownStatus(t *testing.T) {
	_, err := newExecutionResult([]byte(`{"status": {"Mystery": 1}, "transaction_outcome": {"id": "x", "outcome": {"status": "Unknown"}}, "receipts_outcome": []}`))
	require.Error(t, err)
}

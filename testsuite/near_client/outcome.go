/*
 * Copyright (c) 2021 - present Kurtosis Technologies LLC.
 * All Rights Reserved.
 */

package near_client

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"github.com/palantir/stacktrace"
)

const (
	successValueStatusKey     = "SuccessValue"
	successReceiptIdStatusKey = "SuccessReceiptId"
	failureStatusKey          = "Failure"
)

// executionStatus is either a bare string ("NotStarted", "Started", "Unknown") or a single-key object
// keyed by SuccessValue, SuccessReceiptId or Failure
type executionStatus struct {
	pending      string
	successValue *string
	receiptId    string
	failure      json.RawMessage
}

func (status *executionStatus) UnmarshalJSON(data []byte) error {
	var pending string
	if err := json.Unmarshal(data, &pending); err == nil {
		status.pending = pending
		return nil
	}

	var variants map[string]json.RawMessage
	if err := json.Unmarshal(data, &variants); err != nil {
		return stacktrace.Propagate(err, "An error occurred deserializing execution status '%v'", string(data))
	}
	if raw, found := variants[successValueStatusKey]; found {
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			return stacktrace.Propagate(err, "An error occurred deserializing the success value")
		}
		status.successValue = &value
		return nil
	}
	if raw, found := variants[successReceiptIdStatusKey]; found {
		if err := json.Unmarshal(raw, &status.receiptId); err != nil {
			return stacktrace.Propagate(err, "An error occurred deserializing the success receipt ID")
		}
		return nil
	}
	if raw, found := variants[failureStatusKey]; found {
		status.failure = raw
		return nil
	}
	return stacktrace.NewError("Unrecognized execution status '%v'", string(data))
}

func (status executionStatus) isFailure() bool {
	return status.failure != nil
}

type executionOutcome struct {
	Logs        []string        `json:"logs"`
	ReceiptIds  []string        `json:"receipt_ids"`
	GasBurnt    uint64          `json:"gas_burnt"`
	TokensBurnt NearToken       `json:"tokens_burnt"`
	ExecutorId  string          `json:"executor_id"`
	Status      executionStatus `json:"status"`
}

type executionOutcomeWithId struct {
	Id      string           `json:"id"`
	Outcome executionOutcome `json:"outcome"`
}

type finalExecutionOutcome struct {
	Status             executionStatus          `json:"status"`
	TransactionOutcome executionOutcomeWithId   `json:"transaction_outcome"`
	ReceiptsOutcome    []executionOutcomeWithId `json:"receipts_outcome"`
}

// ExecutionResult is the final outcome of a committed transaction, including every receipt it spawned
type ExecutionResult struct {
	transactionHash string
	outcome         finalExecutionOutcome
}

func newExecutionResult(outcomeJson json.RawMessage) (*ExecutionResult, error) {
	var outcome finalExecutionOutcome
	if err := json.Unmarshal(outcomeJson, &outcome); err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred deserializing the final execution outcome")
	}
	return &ExecutionResult{
		transactionHash: outcome.TransactionOutcome.Id,
		outcome:         outcome,
	}, nil
}

func (result *ExecutionResult) TransactionHash() string {
	return result.transactionHash
}

// IsSuccess is false for failed transactions and for transactions whose execution hadn't finished
func (result *ExecutionResult) IsSuccess() bool {
	return result.outcome.Status.successValue != nil
}

// Failure renders the failure detail, or "" when the transaction didn't fail
func (result *ExecutionResult) Failure() string {
	status := result.outcome.Status
	if status.isFailure() {
		var compacted bytes.Buffer
		if err := json.Compact(&compacted, status.failure); err != nil {
			return string(status.failure)
		}
		return compacted.String()
	}
	if status.pending != "" {
		return "Transaction execution status is '" + status.pending + "'"
	}
	return ""
}

// Logs returns every log line emitted by the transaction and its receipts, in execution order
func (result *ExecutionResult) Logs() []string {
	logs := []string{}
	logs = append(logs, result.outcome.TransactionOutcome.Outcome.Logs...)
	for _, receipt := range result.outcome.ReceiptsOutcome {
		logs = append(logs, receipt.Outcome.Logs...)
	}
	return logs
}

func (result *ExecutionResult) TotalGasBurnt() NearGas {
	total := result.outcome.TransactionOutcome.Outcome.GasBurnt
	for _, receipt := range result.outcome.ReceiptsOutcome {
		total += receipt.Outcome.GasBurnt
	}
	return NearGas(total)
}

// Raw returns the bytes the contract returned
func (result *ExecutionResult) Raw() ([]byte, error) {
	if !result.IsSuccess() {
		return nil, stacktrace.NewError("Transaction '%v' didn't succeed: %v", result.transactionHash, result.Failure())
	}
	value, err := base64.StdEncoding.DecodeString(*result.outcome.Status.successValue)
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred base64-decoding the return value of transaction '%v'", result.transactionHash)
	}
	return value, nil
}

func (result *ExecutionResult) Json(value interface{}) error {
	raw, err := result.Raw()
	if err != nil {
		return stacktrace.Propagate(err, "An error occurred getting the raw return value")
	}
	if err := json.Unmarshal(raw, value); err != nil {
		return stacktrace.Propagate(err, "An error occurred deserializing return value '%v' as JSON", string(raw))
	}
	return nil
}

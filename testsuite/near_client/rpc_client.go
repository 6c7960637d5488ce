/*
 * Copyright (c) 2021 - present Kurtosis Technologies LLC.
 * All Rights Reserved.
 */

package near_client

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/mr-tron/base58"
	"github.com/palantir/stacktrace"
	"github.com/sirupsen/logrus"
)

const (
	statusMethod            = "status"
	queryMethod             = "query"
	broadcastTxCommitMethod = "broadcast_tx_commit"

	// The RPC still accepts the positional [path, data] form of query requests, which lets us use a
	// positional-params JSON-RPC client
	accessKeyQueryPathFmt = "access_key/%v/%v"
	callQueryPathFmt      = "call/%v/%v"
)

type SyncInfo struct {
	LatestBlockHash   string `json:"latest_block_hash"`
	LatestBlockHeight uint64 `json:"latest_block_height"`
	Syncing           bool   `json:"syncing"`
}

type NodeStatus struct {
	ChainId  string   `json:"chain_id"`
	SyncInfo SyncInfo `json:"sync_info"`
}

type AccessKeyView struct {
	Nonce       uint64          `json:"nonce"`
	Permission  json.RawMessage `json:"permission"`
	BlockHeight uint64          `json:"block_height"`
	BlockHash   string          `json:"block_hash"`
}

type ViewFunctionResult struct {
	Result      []byte
	Logs        []string
	BlockHeight uint64
}

type viewFunctionResponse struct {
	// Returned as a JSON array of numbers rather than base64
	Result      []int    `json:"result"`
	Logs        []string `json:"logs"`
	BlockHeight uint64   `json:"block_height"`
}

// Older nodes report query failures inside a successful response rather than as an RPC error
type queryErrorResponse struct {
	Error string `json:"error"`
}

type RpcClient struct {
	url    string
	client *rpc.Client
}

func DialRpcClient(ctx context.Context, url string) (*RpcClient, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred dialing the NEAR RPC at '%v'", url)
	}
	return &RpcClient{url: url, client: client}, nil
}

func (rpcClient *RpcClient) Url() string {
	return rpcClient.url
}

func (rpcClient *RpcClient) Close() {
	rpcClient.client.Close()
}

func (rpcClient *RpcClient) Status(ctx context.Context) (*NodeStatus, error) {
	var status NodeStatus
	if err := rpcClient.call(ctx, &status, statusMethod); err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred getting the node status")
	}
	return &status, nil
}

func (rpcClient *RpcClient) ViewAccessKey(ctx context.Context, accountId AccountID, publicKey string) (*AccessKeyView, error) {
	path := fmt.Sprintf(accessKeyQueryPathFmt, accountId, publicKey)
	var raw json.RawMessage
	if err := rpcClient.call(ctx, &raw, queryMethod, path, ""); err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred querying access key '%v' of account '%v'", publicKey, accountId)
	}
	if err := checkQueryError(raw); err != nil {
		return nil, stacktrace.Propagate(err, "The node couldn't return access key '%v' of account '%v'", publicKey, accountId)
	}
	var accessKey AccessKeyView
	if err := json.Unmarshal(raw, &accessKey); err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred deserializing the access key view")
	}
	return &accessKey, nil
}

// ViewFunction runs a read-only contract method; no transaction is created and no state is changed
func (rpcClient *RpcClient) ViewFunction(ctx context.Context, contractId AccountID, methodName string, args []byte) (*ViewFunctionResult, error) {
	path := fmt.Sprintf(callQueryPathFmt, contractId, methodName)
	var raw json.RawMessage
	if err := rpcClient.call(ctx, &raw, queryMethod, path, base58.Encode(args)); err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred calling view method '%v' on '%v'", methodName, contractId)
	}
	if err := checkQueryError(raw); err != nil {
		return nil, stacktrace.Propagate(err, "View method '%v' on '%v' failed", methodName, contractId)
	}
	var response viewFunctionResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred deserializing the view function response")
	}
	result := make([]byte, len(response.Result))
	for idx, value := range response.Result {
		if value < 0 || value > 255 {
			return nil, stacktrace.NewError("View function result byte #%v has out-of-range value %v", idx, value)
		}
		result[idx] = byte(value)
	}
	return &ViewFunctionResult{
		Result:      result,
		Logs:        response.Logs,
		BlockHeight: response.BlockHeight,
	}, nil
}

// BroadcastTxCommit submits a signed transaction and waits until it and all the receipts it spawns are executed
func (rpcClient *RpcClient) BroadcastTxCommit(ctx context.Context, signedTxBase64 string) (*ExecutionResult, error) {
	var raw json.RawMessage
	if err := rpcClient.call(ctx, &raw, broadcastTxCommitMethod, signedTxBase64); err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred broadcasting the transaction")
	}
	result, err := newExecutionResult(raw)
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred parsing the transaction outcome")
	}
	logrus.Debugf("Transaction '%v' committed with success = %v", result.TransactionHash(), result.IsSuccess())
	return result, nil
}

func (rpcClient *RpcClient) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	if err := rpcClient.client.CallContext(ctx, result, method, args...); err != nil {
		if dataErr, ok := err.(rpc.DataError); ok && dataErr.ErrorData() != nil {
			return stacktrace.Propagate(err, "RPC method '%v' returned an error with data: %v", method, dataErr.ErrorData())
		}
		return stacktrace.Propagate(err, "An error occurred calling RPC method '%v'", method)
	}
	return nil
}

func checkQueryError(raw json.RawMessage) error {
	var queryErr queryErrorResponse
	if err := json.Unmarshal(raw, &queryErr); err == nil && queryErr.Error != "" {
		return stacktrace.NewError("%v", queryErr.Error)
	}
	return nil
}

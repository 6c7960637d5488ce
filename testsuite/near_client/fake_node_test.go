/*
 * Copyright (c) 2021 - present Kurtosis Technologies LLC.
 * All Rights Reserved.
 */

package near_client

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"github.com/mr-tron/base58"
	"github.com/near/borsh-go"
	"github.com/oasisprotocol/curve25519-voi/primitives/ed25519"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

const (
	fakeNodeBlockHeight = 42
)

var fakeNodeBlockHash = base58.Encode(make([]byte, blockHashLen))

type jsonRpcRequest struct {
	Id     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type decodedFunctionCall struct {
	methodName string
	args       []byte
	gas        uint64
	deposit    []byte
}

type decodedTransaction struct {
	signerId      string
	publicKey     []byte
	nonce         uint64
	receiverId    string
	actionTags    []borsh.Enum
	functionCalls []decodedFunctionCall
	deployedCode  []byte
	addedKey      []byte
}

// fakeNode is a minimal NEAR JSON-RPC node: it checks signatures and nonces of incoming transactions
// and answers function calls from a table of canned return values
type fakeNode struct {
	t      *testing.T
	server *httptest.Server

	mutex        *sync.Mutex
	accessKeys   map[string]uint64
	transactions []decodedTransaction
	returnValues map[string]string
	failures     map[string]string
	viewResults  map[string]string
}

func newFakeNode(t *testing.T) *fakeNode {
	node := &fakeNode{
		t:            t,
		mutex:        &sync.Mutex{},
		accessKeys:   map[string]uint64{},
		transactions: []decodedTransaction{},
		returnValues: map[string]string{},
		failures:     map[string]string{},
		viewResults:  map[string]string{},
	}
	node.server = httptest.NewServer(http.HandlerFunc(node.handle))
	t.Cleanup(node.server.Close)
	return node
}

func (node *fakeNode) addAccessKey(accountId AccountID, keyPair *KeyPair, nonce uint64) {
	node.mutex.Lock()
	defer node.mutex.Unlock()
	node.accessKeys[accessKeyId(accountId.String(), keyPair.PublicKeyString())] = nonce
}

func (node *fakeNode) committedTransactions() []decodedTransaction {
	node.mutex.Lock()
	defer node.mutex.Unlock()
	return append([]decodedTransaction{}, node.transactions...)
}

func (node *fakeNode) handle(writer http.ResponseWriter, httpReq *http.Request) {
	var req jsonRpcRequest
	require.NoError(node.t, json.NewDecoder(httpReq.Body).Decode(&req))

	node.mutex.Lock()
	result, rpcErr := node.dispatch(req)
	node.mutex.Unlock()

	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      req.Id,
	}
	if rpcErr != "" {
		response["error"] = map[string]interface{}{
			"code":    -32000,
			"message": "Server error",
			"data":    rpcErr,
		}
	} else {
		response["result"] = result
	}
	writer.Header().Set("Content-Type", "application/json")
	require.NoError(node.t, json.NewEncoder(writer).Encode(response))
}

func (node *fakeNode) dispatch(req jsonRpcRequest) (interface{}, string) {
	switch req.Method {
	case statusMethod:
		return map[string]interface{}{
			"chain_id": "sandbox",
			"sync_info": map[string]interface{}{
				"latest_block_hash":   fakeNodeBlockHash,
				"latest_block_height": fakeNodeBlockHeight,
				"syncing":             false,
			},
		}, ""
	case queryMethod:
		var path, data string
		require.Len(node.t, req.Params, 2)
		require.NoError(node.t, json.Unmarshal(req.Params[0], &path))
		require.NoError(node.t, json.Unmarshal(req.Params[1], &data))
		return node.query(path, data)
	case broadcastTxCommitMethod:
		var signedTxBase64 string
		require.Len(node.t, req.Params, 1)
		require.NoError(node.t, json.Unmarshal(req.Params[0], &signedTxBase64))
		return node.broadcast(signedTxBase64)
	}
	return nil, fmt.Sprintf("Method '%v' not found", req.Method)
}

func (node *fakeNode) query(path string, data string) (interface{}, string) {
	parts := strings.Split(path, "/")
	switch {
	case len(parts) == 3 && parts[0] == "access_key":
		nonce, found := node.accessKeys[accessKeyId(parts[1], parts[2])]
		if !found {
			return map[string]interface{}{
				"error":        fmt.Sprintf("access key %v does not exist while viewing", parts[2]),
				"block_height": fakeNodeBlockHeight,
				"block_hash":   fakeNodeBlockHash,
			}, ""
		}
		return map[string]interface{}{
			"nonce":        nonce,
			"permission":   "FullAccess",
			"block_height": fakeNodeBlockHeight,
			"block_hash":   fakeNodeBlockHash,
		}, ""
	case len(parts) == 3 && parts[0] == "call":
		args, err := base58.Decode(data)
		require.NoError(node.t, err)
		value, found := node.viewResults[parts[2]+string(args)]
		if !found {
			return nil, fmt.Sprintf("wasm execution failed: MethodNotFound '%v'", parts[2])
		}
		resultInts := []int{}
		for _, b := range []byte(value) {
			resultInts = append(resultInts, int(b))
		}
		return map[string]interface{}{
			"result":       resultInts,
			"logs":         []string{"viewed " + parts[2]},
			"block_height": fakeNodeBlockHeight,
			"block_hash":   fakeNodeBlockHash,
		}, ""
	}
	return nil, fmt.Sprintf("Unsupported query path '%v'", path)
}

func (node *fakeNode) broadcast(signedTxBase64 string) (interface{}, string) {
	signedTx, err := base64.StdEncoding.DecodeString(signedTxBase64)
	require.NoError(node.t, err)
	tx, txLen := decodeTransaction(node.t, signedTx)

	hash := sha256.Sum256(signedTx[:txLen])
	require.Equal(node.t, ed25519KeyType, signedTx[txLen])
	if !ed25519.Verify(tx.publicKey, hash[:], signedTx[txLen+1:]) {
		return nil, "InvalidSignature"
	}

	keyId := accessKeyId(tx.signerId, ed25519KeyTypePrefix+base58.Encode(tx.publicKey))
	currentNonce, found := node.accessKeys[keyId]
	if !found {
		return nil, "InvalidAccessKeyError"
	}
	if tx.nonce <= currentNonce {
		return nil, fmt.Sprintf("InvalidNonce: tx nonce %v, ak nonce %v", tx.nonce, currentNonce)
	}
	node.accessKeys[keyId] = tx.nonce
	if tx.addedKey != nil {
		node.accessKeys[accessKeyId(tx.receiverId, ed25519KeyTypePrefix+base58.Encode(tx.addedKey))] = 0
	}
	node.transactions = append(node.transactions, tx)

	txHash := base58.Encode(hash[:])
	status := map[string]interface{}{"SuccessValue": ""}
	logs := []string{}
	for _, call := range tx.functionCalls {
		if failure, failing := node.failures[call.methodName]; failing {
			status = map[string]interface{}{
				"Failure": map[string]interface{}{
					"ActionError": map[string]interface{}{
						"index": 0,
						"kind": map[string]interface{}{
							"FunctionCallError": map[string]interface{}{"ExecutionError": failure},
						},
					},
				},
			}
			break
		}
		logs = append(logs, "called "+call.methodName)
		status = map[string]interface{}{
			"SuccessValue": base64.StdEncoding.EncodeToString([]byte(node.returnValues[call.methodName])),
		}
	}
	return map[string]interface{}{
		"status": status,
		"transaction_outcome": map[string]interface{}{
			"id": txHash,
			"outcome": map[string]interface{}{
				"logs":         []string{},
				"receipt_ids":  []string{"receipt"},
				"gas_burnt":    2428000000000,
				"tokens_burnt": "242800000000000000000",
				"executor_id":  tx.signerId,
				"status":       map[string]interface{}{"SuccessReceiptId": "receipt"},
			},
		},
		"receipts_outcome": []interface{}{
			map[string]interface{}{
				"id": "receipt",
				"outcome": map[string]interface{}{
					"logs":         logs,
					"receipt_ids":  []string{},
					"gas_burnt":    1000,
					"tokens_burnt": "0",
					"executor_id":  tx.receiverId,
					"status":       status,
				},
			},
		},
	}, ""
}

func accessKeyId(accountId string, publicKey string) string {
	return accountId + "/" + publicKey
}

type borshReader struct {
	t      *testing.T
	data   []byte
	offset int
}

func (reader *borshReader) next(n int) []byte {
	require.LessOrEqual(reader.t, reader.offset+n, len(reader.data), "Borsh input ended early")
	result := reader.data[reader.offset : reader.offset+n]
	reader.offset += n
	return result
}

func (reader *borshReader) u8() byte {
	return reader.next(1)[0]
}

func (reader *borshReader) u32() uint32 {
	return binary.LittleEndian.Uint32(reader.next(4))
}

func (reader *borshReader) u64() uint64 {
	return binary.LittleEndian.Uint64(reader.next(8))
}

func (reader *borshReader) bytes() []byte {
	return reader.next(int(reader.u32()))
}

func decodeTransaction(t *testing.T, data []byte) (decodedTransaction, int) {
	reader := &borshReader{t: t, data: data}
	tx := decodedTransaction{}
	tx.signerId = string(reader.bytes())
	require.Equal(t, ed25519KeyType, reader.u8())
	tx.publicKey = append([]byte{}, reader.next(ed25519.PublicKeySize)...)
	tx.nonce = reader.u64()
	tx.receiverId = string(reader.bytes())
	reader.next(blockHashLen)
	numActions := int(reader.u32())
	for i := 0; i < numActions; i++ {
		tag := borsh.Enum(reader.u8())
		tx.actionTags = append(tx.actionTags, tag)
		switch tag {
		case createAccountActionTag:
		case deployContractActionTag:
			tx.deployedCode = append([]byte{}, reader.bytes()...)
		case functionCallActionTag:
			call := decodedFunctionCall{}
			call.methodName = string(reader.bytes())
			call.args = append([]byte{}, reader.bytes()...)
			call.gas = reader.u64()
			call.deposit = append([]byte{}, reader.next(16)...)
			tx.functionCalls = append(tx.functionCalls, call)
		case transferActionTag:
			reader.next(16)
		case addKeyActionTag:
			require.Equal(t, ed25519KeyType, reader.u8())
			tx.addedKey = append([]byte{}, reader.next(ed25519.PublicKeySize)...)
			require.Equal(t, uint64(0), reader.u64())
			require.Equal(t, fullAccessPermissionTag, borsh.Enum(reader.u8()))
		default:
			t.Fatalf("Unexpected action tag %v", tag)
		}
	}
	return tx, reader.offset
}

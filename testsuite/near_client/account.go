/*
 * Copyright (c) 2021 - present Kurtosis Technologies LLC.
 * All Rights Reserved.
 */

package near_client

import (
	"context"
	"encoding/json"
	"github.com/mr-tron/base58"
	"github.com/palantir/stacktrace"
	"github.com/sirupsen/logrus"
	"sync"
)

const (
	defaultCallGasTgas = 30
)

// Account signs transactions as a single access key. Nonces are tracked locally on top of the node's view
// so back-to-back transactions don't reuse a nonce the node hasn't indexed yet.
type Account struct {
	id      AccountID
	keyPair *KeyPair
	client  *RpcClient

	nonceMutex *sync.Mutex
	lastNonce  uint64
}

func NewAccount(id AccountID, keyPair *KeyPair, client *RpcClient) *Account {
	return &Account{
		id:         id,
		keyPair:    keyPair,
		client:     client,
		nonceMutex: &sync.Mutex{},
		lastNonce:  0,
	}
}

func (account *Account) ID() AccountID {
	return account.id
}

func (account *Account) KeyPair() *KeyPair {
	return account.keyPair
}

// CreateAccountAndDeploy creates the new account, funds it, gives it a full access key and deploys the
// wasm to it, all in one transaction so a rejected deploy leaves no half-initialized account behind
func (account *Account) CreateAccountAndDeploy(
	ctx context.Context,
	newAccountId AccountID,
	newAccountKey *KeyPair,
	initialBalance NearToken,
	wasm []byte,
) (*Contract, error) {
	actions := []Action{
		CreateAccountAction{},
		TransferAction{Deposit: initialBalance},
		AddFullAccessKeyAction{Key: newAccountKey},
		DeployContractAction{Code: wasm},
	}
	result, err := account.SignAndSendTransaction(ctx, newAccountId, actions)
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred sending the create-and-deploy transaction for account '%v'", newAccountId)
	}
	if !result.IsSuccess() {
		return nil, stacktrace.NewError(
			"Creating account '%v' and deploying %v bytes of code to it failed: %v",
			newAccountId,
			len(wasm),
			result.Failure())
	}
	return NewContract(NewAccount(newAccountId, newAccountKey, account.client)), nil
}

// Call starts a function call transaction signed by this account
func (account *Account) Call(contractId AccountID, methodName string) *CallTransaction {
	return &CallTransaction{
		signer:     account,
		receiverId: contractId,
		methodName: methodName,
		args:       []byte{},
		deposit:    NearTokenFromYocto(0),
		gas:        NearGasFromTgas(defaultCallGasTgas),
	}
}

func (account *Account) SignAndSendTransaction(ctx context.Context, receiverId AccountID, actions []Action) (*ExecutionResult, error) {
	account.nonceMutex.Lock()
	defer account.nonceMutex.Unlock()

	accessKey, err := account.client.ViewAccessKey(ctx, account.id, account.keyPair.PublicKeyString())
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred getting the access key for account '%v'", account.id)
	}
	blockHash, err := base58.Decode(accessKey.BlockHash)
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred decoding block hash '%v'", accessKey.BlockHash)
	}
	nonce := accessKey.Nonce
	if account.lastNonce > nonce {
		nonce = account.lastNonce
	}
	nonce++

	tx := &Transaction{
		SignerId:   account.id,
		Signer:     account.keyPair,
		Nonce:      nonce,
		ReceiverId: receiverId,
		BlockHash:  blockHash,
		Actions:    actions,
	}
	signedTx, _, err := tx.Sign()
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred signing the transaction from '%v' to '%v'", account.id, receiverId)
	}
	result, err := account.client.BroadcastTxCommit(ctx, signedTx)
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred committing the transaction from '%v' to '%v'", account.id, receiverId)
	}
	account.lastNonce = nonce
	return result, nil
}

type CallTransaction struct {
	signer     *Account
	receiverId AccountID
	methodName string
	args       []byte
	argsErr    error
	deposit    NearToken
	gas        NearGas
}

func (call *CallTransaction) ArgsJson(args interface{}) *CallTransaction {
	argsBytes, err := json.Marshal(args)
	if err != nil {
		call.argsErr = stacktrace.Propagate(err, "An error occurred serializing the arguments of '%v' to JSON", call.methodName)
		return call
	}
	call.args = argsBytes
	return call
}

func (call *CallTransaction) Args(args []byte) *CallTransaction {
	call.args = args
	return call
}

func (call *CallTransaction) Deposit(deposit NearToken) *CallTransaction {
	call.deposit = deposit
	return call
}

func (call *CallTransaction) Gas(gas NearGas) *CallTransaction {
	call.gas = gas
	return call
}

// Transact sends the call and waits for its final outcome. An error means the transaction never got
// executed; an executed-but-failed call comes back as a result whose IsSuccess is false.
func (call *CallTransaction) Transact(ctx context.Context) (*ExecutionResult, error) {
	if call.argsErr != nil {
		return nil, call.argsErr
	}
	logrus.Debugf(
		"Calling '%v' on '%v' with args '%v', deposit %v and %v...",
		call.methodName,
		call.receiverId,
		string(call.args),
		call.deposit.HumanString(),
		call.gas)
	action := FunctionCallAction{
		MethodName: call.methodName,
		Args:       call.args,
		Gas:        call.gas,
		Deposit:    call.deposit,
	}
	result, err := call.signer.SignAndSendTransaction(ctx, call.receiverId, []Action{action})
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred calling '%v' on '%v'", call.methodName, call.receiverId)
	}
	return result, nil
}

// Contract is an account with code deployed to it; calls made through it are signed by the contract account
type Contract struct {
	account *Account
}

func NewContract(account *Account) *Contract {
	return &Contract{account: account}
}

func (contract *Contract) ID() AccountID {
	return contract.account.ID()
}

func (contract *Contract) Call(methodName string) *CallTransaction {
	return contract.account.Call(contract.account.ID(), methodName)
}

func (contract *Contract) View(ctx context.Context, methodName string, args interface{}) (*ViewFunctionResult, error) {
	argsBytes, err := json.Marshal(args)
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred serializing the arguments of view method '%v' to JSON", methodName)
	}
	result, err := contract.account.client.ViewFunction(ctx, contract.ID(), methodName, argsBytes)
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred viewing '%v' on '%v'", methodName, contract.ID())
	}
	return result, nil
}

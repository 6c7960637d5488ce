/*
 * Copyright (c) 2021 - present Kurtosis Technologies LLC.
 * All Rights Reserved.
 */

package near_client

import (
	"crypto/sha256"
	"encoding/base64"
	"github.com/near/borsh-go"
	"github.com/oasisprotocol/curve25519-voi/primitives/ed25519"
	"github.com/palantir/stacktrace"
	"math/big"
)

const (
	blockHashLen = sha256.Size

	// Variant indices of the protocol's Action enum
	createAccountActionTag  borsh.Enum = 0
	deployContractActionTag borsh.Enum = 1
	functionCallActionTag   borsh.Enum = 2
	transferActionTag       borsh.Enum = 3
	addKeyActionTag         borsh.Enum = 5

	fullAccessPermissionTag borsh.Enum = 1
)

// Wire layouts, serialized field by field in declaration order. A struct whose first field is tagged
// borsh_enum writes the variant index and then only the field following it at that index.

type borshPublicKey struct {
	KeyType uint8
	Data    [ed25519.PublicKeySize]byte
}

type borshSignature struct {
	KeyType uint8
	Data    [ed25519.SignatureSize]byte
}

type borshFunctionCallPermission struct {
	Allowance   *big.Int
	ReceiverId  string
	MethodNames []string
}

type borshAccessKeyPermission struct {
	Enum         borsh.Enum `borsh_enum:"true"`
	FunctionCall borshFunctionCallPermission
	FullAccess   struct{}
}

type borshAccessKey struct {
	Nonce      uint64
	Permission borshAccessKeyPermission
}

type borshCreateAccount struct{}

type borshDeployContract struct {
	Code []byte
}

type borshFunctionCall struct {
	MethodName string
	Args       []byte
	Gas        uint64
	Deposit    big.Int
}

type borshTransfer struct {
	Deposit big.Int
}

type borshStake struct {
	Stake     big.Int
	PublicKey borshPublicKey
}

type borshAddKey struct {
	PublicKey borshPublicKey
	AccessKey borshAccessKey
}

type borshAction struct {
	Enum           borsh.Enum `borsh_enum:"true"`
	CreateAccount  borshCreateAccount
	DeployContract borshDeployContract
	FunctionCall   borshFunctionCall
	Transfer       borshTransfer
	Stake          borshStake
	AddKey         borshAddKey
}

type borshTransaction struct {
	SignerId   string
	PublicKey  borshPublicKey
	Nonce      uint64
	ReceiverId string
	BlockHash  [blockHashLen]byte
	Actions    []borshAction
}

type borshSignedTransaction struct {
	Transaction borshTransaction
	Signature   borshSignature
}

type Action interface {
	toBorsh() (borshAction, error)
}

type CreateAccountAction struct{}

func (action CreateAccountAction) toBorsh() (borshAction, error) {
	return borshAction{Enum: createAccountActionTag}, nil
}

type DeployContractAction struct {
	Code []byte
}

func (action DeployContractAction) toBorsh() (borshAction, error) {
	return borshAction{
		Enum:           deployContractActionTag,
		DeployContract: borshDeployContract{Code: action.Code},
	}, nil
}

type FunctionCallAction struct {
	MethodName string
	Args       []byte
	Gas        NearGas
	Deposit    NearToken
}

func (action FunctionCallAction) toBorsh() (borshAction, error) {
	deposit, err := action.Deposit.u128()
	if err != nil {
		return borshAction{}, stacktrace.Propagate(err, "An error occurred encoding the deposit of function call '%v'", action.MethodName)
	}
	args := action.Args
	if args == nil {
		args = []byte{}
	}
	return borshAction{
		Enum: functionCallActionTag,
		FunctionCall: borshFunctionCall{
			MethodName: action.MethodName,
			Args:       args,
			Gas:        uint64(action.Gas),
			Deposit:    *deposit,
		},
	}, nil
}

type TransferAction struct {
	Deposit NearToken
}

func (action TransferAction) toBorsh() (borshAction, error) {
	deposit, err := action.Deposit.u128()
	if err != nil {
		return borshAction{}, stacktrace.Propagate(err, "An error occurred encoding the transfer amount")
	}
	return borshAction{
		Enum:     transferActionTag,
		Transfer: borshTransfer{Deposit: *deposit},
	}, nil
}

// AddFullAccessKeyAction adds a key with FullAccess permission and a zero starting nonce
type AddFullAccessKeyAction struct {
	Key *KeyPair
}

func (action AddFullAccessKeyAction) toBorsh() (borshAction, error) {
	return borshAction{
		Enum: addKeyActionTag,
		AddKey: borshAddKey{
			PublicKey: action.Key.borshPublicKey(),
			AccessKey: borshAccessKey{
				Nonce:      0,
				Permission: borshAccessKeyPermission{Enum: fullAccessPermissionTag},
			},
		},
	}, nil
}

type Transaction struct {
	SignerId   AccountID
	Signer     *KeyPair
	Nonce      uint64
	ReceiverId AccountID
	BlockHash  []byte
	Actions    []Action
}

func (tx *Transaction) toBorsh() (borshTransaction, error) {
	if len(tx.BlockHash) != blockHashLen {
		return borshTransaction{}, stacktrace.NewError("Block hash must be %v bytes, but was %v bytes", blockHashLen, len(tx.BlockHash))
	}
	result := borshTransaction{
		SignerId:   tx.SignerId.String(),
		PublicKey:  tx.Signer.borshPublicKey(),
		Nonce:      tx.Nonce,
		ReceiverId: tx.ReceiverId.String(),
		Actions:    []borshAction{},
	}
	copy(result.BlockHash[:], tx.BlockHash)
	for idx, action := range tx.Actions {
		encoded, err := action.toBorsh()
		if err != nil {
			return borshTransaction{}, stacktrace.Propagate(err, "An error occurred encoding action #%v", idx)
		}
		result.Actions = append(result.Actions, encoded)
	}
	return result, nil
}

func (tx *Transaction) Serialize() ([]byte, error) {
	encoded, err := tx.toBorsh()
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred encoding the transaction")
	}
	txBytes, err := borsh.Serialize(encoded)
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred serializing the transaction")
	}
	return txBytes, nil
}

// Sign serializes the transaction, signs its sha256 hash with the transaction's key, and returns the
// base64-encoded SignedTransaction the RPC expects along with the transaction hash
func (tx *Transaction) Sign() (string, []byte, error) {
	encoded, err := tx.toBorsh()
	if err != nil {
		return "", nil, stacktrace.Propagate(err, "An error occurred encoding the transaction")
	}
	txBytes, err := borsh.Serialize(encoded)
	if err != nil {
		return "", nil, stacktrace.Propagate(err, "An error occurred serializing the transaction")
	}
	hash := sha256.Sum256(txBytes)

	signed := borshSignedTransaction{
		Transaction: encoded,
		Signature:   borshSignature{KeyType: ed25519KeyType},
	}
	copy(signed.Signature.Data[:], tx.Signer.Sign(hash[:]))
	signedBytes, err := borsh.Serialize(signed)
	if err != nil {
		return "", nil, stacktrace.Propagate(err, "An error occurred serializing the signed transaction")
	}
	return base64.StdEncoding.EncodeToString(signedBytes), hash[:], nil
}

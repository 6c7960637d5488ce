/*
 * Copyright (c) 2021 - present Kurtosis Technologies LLC.
 * All Rights Reserved.
 */

package near_client

import (
	"crypto/rand"
	"encoding/json"
	"github.com/mr-tron/base58"
	"github.com/oasisprotocol/curve25519-voi/primitives/ed25519"
	"github.com/palantir/stacktrace"
	"io/ioutil"
	"strings"
)

const (
	ed25519KeyTypePrefix = "ed25519:"

	// Borsh tag of the ed25519 variant in PublicKey/Signature enums
	ed25519KeyType byte = 0
)

type KeyPair struct {
	publicKey  ed25519.PublicKey
	privateKey ed25519.PrivateKey
}

func GenerateKeyPair() (*KeyPair, error) {
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred generating an ed25519 key pair")
	}
	return &KeyPair{publicKey: publicKey, privateKey: privateKey}, nil
}

// ParseSecretKey parses a NEAR "ed25519:<base58>" secret key, which carries the 32-byte seed followed by the public key
func ParseSecretKey(secretKeyStr string) (*KeyPair, error) {
	keyBytes, err := decodeEd25519KeyString(secretKeyStr)
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred decoding the secret key string")
	}
	if len(keyBytes) != ed25519.PrivateKeySize {
		return nil, stacktrace.NewError(
			"Expected the secret key to be %v bytes long, but was %v bytes",
			ed25519.PrivateKeySize,
			len(keyBytes))
	}
	privateKey := ed25519.PrivateKey(keyBytes)
	publicKey, ok := privateKey.Public().(ed25519.PublicKey)
	if !ok {
		return nil, stacktrace.NewError("Couldn't derive an ed25519 public key from the secret key")
	}
	return &KeyPair{publicKey: publicKey, privateKey: privateKey}, nil
}

func (keyPair *KeyPair) PublicKeyString() string {
	return ed25519KeyTypePrefix + base58.Encode(keyPair.publicKey)
}

func (keyPair *KeyPair) SecretKeyString() string {
	return ed25519KeyTypePrefix + base58.Encode(keyPair.privateKey)
}

func (keyPair *KeyPair) Sign(message []byte) []byte {
	return ed25519.Sign(keyPair.privateKey, message)
}

func (keyPair *KeyPair) Verify(message []byte, signature []byte) bool {
	return ed25519.Verify(keyPair.publicKey, message, signature)
}

func (keyPair *KeyPair) borshPublicKey() borshPublicKey {
	result := borshPublicKey{KeyType: ed25519KeyType}
	copy(result.Data[:], keyPair.publicKey)
	return result
}

// AccountKeyFile is the JSON layout of the sandbox's validator_key.json and of near-cli credential files
type AccountKeyFile struct {
	AccountId string `json:"account_id"`
	PublicKey string `json:"public_key"`
	SecretKey string `json:"secret_key"`
}

func LoadAccountKeyFile(filepath string) (AccountID, *KeyPair, error) {
	fileBytes, err := ioutil.ReadFile(filepath)
	if err != nil {
		return "", nil, stacktrace.Propagate(err, "An error occurred reading account key file '%v'", filepath)
	}
	var keyFile AccountKeyFile
	if err := json.Unmarshal(fileBytes, &keyFile); err != nil {
		return "", nil, stacktrace.Propagate(err, "An error occurred deserializing account key file '%v'", filepath)
	}

	accountId, err := ParseAccountID(keyFile.AccountId)
	if err != nil {
		return "", nil, stacktrace.Propagate(err, "Account key file '%v' has an invalid account ID", filepath)
	}
	keyPair, err := ParseSecretKey(keyFile.SecretKey)
	if err != nil {
		return "", nil, stacktrace.Propagate(err, "An error occurred parsing the secret key in account key file '%v'", filepath)
	}
	if keyFile.PublicKey != "" && keyFile.PublicKey != keyPair.PublicKeyString() {
		return "", nil, stacktrace.NewError(
			"Public key '%v' in account key file '%v' doesn't match the public key '%v' derived from its secret key",
			keyFile.PublicKey,
			filepath,
			keyPair.PublicKeyString())
	}
	return accountId, keyPair, nil
}

func decodeEd25519KeyString(keyStr string) ([]byte, error) {
	if !strings.HasPrefix(keyStr, ed25519KeyTypePrefix) {
		return nil, stacktrace.NewError("Key string doesn't start with the '%v' key type prefix", ed25519KeyTypePrefix)
	}
	keyBytes, err := base58.Decode(strings.TrimPrefix(keyStr, ed25519KeyTypePrefix))
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred base58-decoding the key")
	}
	return keyBytes, nil
}

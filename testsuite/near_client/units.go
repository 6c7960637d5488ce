/*
 * Copyright (c) 2021 - present Kurtosis Technologies LLC.
 * All Rights Reserved.
 */

package near_client

import (
	"encoding/json"
	"fmt"
	"github.com/holiman/uint256"
	"github.com/palantir/stacktrace"
	"math/big"
	"strings"
)

const (
	yoctoPerNearExponent = 24
	gasPerTgas           = 1_000_000_000_000

	maxBalanceBits = 128
)

var yoctoPerNear = new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(yoctoPerNearExponent))

// NearToken is an amount of NEAR expressed in yoctoNEAR, the protocol's u128 balance unit
type NearToken struct {
	yocto uint256.Int
}

func NearTokenFromNear(near uint64) NearToken {
	var result NearToken
	result.yocto.Mul(uint256.NewInt(near), yoctoPerNear)
	return result
}

func NearTokenFromYocto(yocto uint64) NearToken {
	var result NearToken
	result.yocto.SetUint64(yocto)
	return result
}

// ParseNearToken parses a decimal yoctoNEAR amount, as the RPC returns balances
func ParseNearToken(yoctoStr string) (NearToken, error) {
	bigValue, ok := new(big.Int).SetString(yoctoStr, 10)
	if !ok || bigValue.Sign() < 0 {
		return NearToken{}, stacktrace.NewError("'%v' is not a valid yoctoNEAR amount", yoctoStr)
	}
	value, overflow := uint256.FromBig(bigValue)
	if overflow || value.BitLen() > maxBalanceBits {
		return NearToken{}, stacktrace.NewError("yoctoNEAR amount '%v' doesn't fit in 128 bits", yoctoStr)
	}
	return NearToken{yocto: *value}, nil
}

func (token NearToken) IsZero() bool {
	return token.yocto.IsZero()
}

func (token NearToken) Equal(other NearToken) bool {
	return token.yocto.Eq(&other.yocto)
}

// String renders the amount in yoctoNEAR
func (token NearToken) String() string {
	return token.yocto.ToBig().String()
}

// HumanString renders the amount in whole NEAR, e.g. "3 NEAR" or "0.5 NEAR"
func (token NearToken) HumanString() string {
	value := new(big.Rat).SetFrac(token.yocto.ToBig(), yoctoPerNear.ToBig())
	if value.IsInt() {
		return fmt.Sprintf("%v NEAR", value.Num())
	}
	return fmt.Sprintf("%v NEAR", strings.TrimRight(value.FloatString(yoctoPerNearExponent), "0"))
}

func (token NearToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(token.String())
}

func (token *NearToken) UnmarshalJSON(data []byte) error {
	var yoctoStr string
	if err := json.Unmarshal(data, &yoctoStr); err != nil {
		return stacktrace.Propagate(err, "An error occurred deserializing a yoctoNEAR amount from '%v'", string(data))
	}
	parsed, err := ParseNearToken(yoctoStr)
	if err != nil {
		return stacktrace.Propagate(err, "An error occurred parsing yoctoNEAR amount '%v'", yoctoStr)
	}
	*token = parsed
	return nil
}

// u128 is the amount as the protocol's u128, rejecting anything wider
func (token NearToken) u128() (*big.Int, error) {
	if token.yocto.BitLen() > maxBalanceBits {
		return nil, stacktrace.NewError("Token amount '%v' doesn't fit in a u128", token.String())
	}
	return token.yocto.ToBig(), nil
}

// NearGas is an amount of gas units
type NearGas uint64

func NearGasFromTgas(tgas uint64) NearGas {
	return NearGas(tgas * gasPerTgas)
}

func (gas NearGas) AsTgas() uint64 {
	return uint64(gas) / gasPerTgas
}

func (gas NearGas) String() string {
	if uint64(gas)%gasPerTgas == 0 {
		return fmt.Sprintf("%d Tgas", gas.AsTgas())
	}
	return fmt.Sprintf("%d gas", uint64(gas))
}

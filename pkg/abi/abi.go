// Package abi decodes the fixed contract-call parameter encoding used by
// adapter calldata: 32-byte head words per field, with dynamic bytes fields
// stored as offset-addressed, length-prefixed tails.
//
// Decoding is strict on purpose. Spend estimation tries several candidate
// layouts per action type and relies on a wrong layout failing loudly here
// (width or range mismatch) so the next candidate can be attempted. A
// permissive decoder would silently misread amounts.
package abi

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
)

// WordSize is the width of one head word.
const WordSize = 32

// Kind is the declared primitive type of one tuple field.
type Kind int

const (
	KindAddress Kind = iota
	KindUint256
	KindUint8
	KindBool
	KindBytes
)

// ErrMismatch reports that the payload does not fit the attempted layout.
// Callers treat it as "try the next layout", not as a fault.
var ErrMismatch = errors.New("abi: payload does not match layout")

// Value is one decoded field. Exactly one member is meaningful, selected by
// the Kind the field was declared with.
type Value struct {
	Addr  string
	Int   *big.Int
	Bool  bool
	Bytes []byte
}

// DecodeTuple decodes data against an ordered field schema. On any width,
// range, or bounds mismatch it returns ErrMismatch (wrapped with detail).
func DecodeTuple(data []byte, kinds []Kind) ([]Value, error) {
	headLen := WordSize * len(kinds)
	if len(data) < headLen {
		return nil, fmt.Errorf("%w: need %d head bytes, have %d", ErrMismatch, headLen, len(data))
	}

	dynamic := false
	for _, k := range kinds {
		if k == KindBytes {
			dynamic = true
		}
	}
	// A static-only tuple consumes the payload exactly; extra bytes mean
	// this is some other layout.
	if !dynamic && len(data) != headLen {
		return nil, fmt.Errorf("%w: static tuple wants %d bytes, have %d", ErrMismatch, headLen, len(data))
	}

	out := make([]Value, len(kinds))
	for i, k := range kinds {
		word := data[i*WordSize : (i+1)*WordSize]
		switch k {
		case KindAddress:
			addr, err := decodeAddress(word)
			if err != nil {
				return nil, err
			}
			out[i] = Value{Addr: addr}
		case KindUint256:
			out[i] = Value{Int: new(big.Int).SetBytes(word)}
		case KindUint8:
			if !allZero(word[:WordSize-1]) {
				return nil, fmt.Errorf("%w: uint8 field %d overflows", ErrMismatch, i)
			}
			out[i] = Value{Int: new(big.Int).SetBytes(word)}
		case KindBool:
			if !allZero(word[:WordSize-1]) || word[WordSize-1] > 1 {
				return nil, fmt.Errorf("%w: bool field %d malformed", ErrMismatch, i)
			}
			out[i] = Value{Bool: word[WordSize-1] == 1}
		case KindBytes:
			b, err := decodeBytesTail(data, word, i)
			if err != nil {
				return nil, err
			}
			out[i] = Value{Bytes: b}
		}
	}
	return out, nil
}

func decodeAddress(word []byte) (string, error) {
	if !allZero(word[:12]) {
		return "", fmt.Errorf("%w: address field has nonzero left padding", ErrMismatch)
	}
	return "0x" + hex.EncodeToString(word[12:]), nil
}

func decodeBytesTail(data, offsetWord []byte, field int) ([]byte, error) {
	off := new(big.Int).SetBytes(offsetWord)
	if !off.IsInt64() {
		return nil, fmt.Errorf("%w: bytes field %d offset out of range", ErrMismatch, field)
	}
	o := off.Int64()
	if o < 0 || o+WordSize > int64(len(data)) {
		return nil, fmt.Errorf("%w: bytes field %d offset %d out of bounds", ErrMismatch, field, o)
	}
	ln := new(big.Int).SetBytes(data[o : o+WordSize])
	if !ln.IsInt64() {
		return nil, fmt.Errorf("%w: bytes field %d length out of range", ErrMismatch, field)
	}
	l := ln.Int64()
	start := o + WordSize
	if l < 0 || start+l > int64(len(data)) {
		return nil, fmt.Errorf("%w: bytes field %d length %d out of bounds", ErrMismatch, field, l)
	}
	b := make([]byte, l)
	copy(b, data[start:start+l])
	return b, nil
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package peer provides the validator identity type used to address
// remote peers. An ID is the Blake2b-224 hash of a validator's Ed25519
// verification key and is comparable, so it can be used directly as a
// map key.
package peer

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/blinklabs-io/dagnet/cbor"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"golang.org/x/crypto/blake2b"
)

// IDSize is the size of a peer ID in bytes
const IDSize = 28

// Bech32Prefix is the human-readable prefix used when rendering peer IDs
const Bech32Prefix = "peer"

var ErrInvalidIDLength = errors.New("invalid peer ID length")

// ID is an opaque validator identity
type ID [IDSize]byte

// NewID returns the ID derived from the provided Ed25519 verification key
func NewID(verificationKey ed25519.PublicKey) ID {
	tmpHash, err := blake2b.New(IDSize, nil)
	if err != nil {
		panic(
			fmt.Sprintf(
				"unexpected error generating empty blake2b hash: %s",
				err,
			),
		)
	}
	tmpHash.Write(verificationKey)
	return ID(tmpHash.Sum(nil))
}

// NewIDFromBytes returns an ID from its raw bytes
func NewIDFromBytes(data []byte) (ID, error) {
	if len(data) != IDSize {
		return ID{}, ErrInvalidIDLength
	}
	i := ID{}
	copy(i[:], data)
	return i, nil
}

// NewIDFromBech32 decodes a bech32-rendered peer ID as returned by
// [ID.String]
func NewIDFromBech32(encoded string) (ID, error) {
	hrp, data, err := bech32.DecodeNoLimit(encoded)
	if err != nil {
		return ID{}, fmt.Errorf("decoding bech32: %w", err)
	}
	if hrp != Bech32Prefix {
		return ID{}, fmt.Errorf(
			"unexpected bech32 prefix: expected %s, got %s",
			Bech32Prefix,
			hrp,
		)
	}
	decoded, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return ID{}, fmt.Errorf("decoding bech32: %w", err)
	}
	return NewIDFromBytes(decoded)
}

// String renders the ID as a bech32 string with the "peer" prefix
func (i ID) String() string {
	// Convert data to base32 and encode as bech32
	convData, err := bech32.ConvertBits(i[:], 8, 5, true)
	if err != nil {
		panic(
			fmt.Sprintf("unexpected error converting data to base32: %s", err),
		)
	}
	encoded, err := bech32.Encode(Bech32Prefix, convData)
	if err != nil {
		panic(fmt.Sprintf("unexpected error encoding data as bech32: %s", err))
	}
	return encoded
}

// Hex returns the raw hex rendering of the ID
func (i ID) Hex() string {
	return hex.EncodeToString(i[:])
}

// Bytes returns the ID as a byte slice
func (i ID) Bytes() []byte {
	return i[:]
}

func (i ID) MarshalCBOR() ([]byte, error) {
	// Ensure we always encode a full-sized bytestring, even if the ID is zero-valued
	idBytes := make([]byte, IDSize)
	copy(idBytes, i[:])
	return cbor.Encode(idBytes)
}

func (i *ID) UnmarshalCBOR(data []byte) error {
	var tmpBytes []byte
	if _, err := cbor.Decode(data, &tmpBytes); err != nil {
		return err
	}
	tmpId, err := NewIDFromBytes(tmpBytes)
	if err != nil {
		return err
	}
	*i = tmpId
	return nil
}

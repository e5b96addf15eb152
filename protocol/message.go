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

package protocol

import (
	"errors"
	"reflect"

	"github.com/blinklabs-io/dagnet/cbor"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

// Provide a common interface for message utility functions
type Message interface {
	SetCbor([]byte)
	Cbor() []byte
	Type() uint8
	RequestId() uuid.UUID
	SetRequestId(uuid.UUID)
}

// MessageBase is the common base for all messages. The request ID is
// assigned per attempt by the sender and echoed back by the responder,
// which allows duplicate replies to be suppressed.
type MessageBase struct {
	// Tells the CBOR decoder to convert to/from a struct and a CBOR array
	_                struct{} `cbor:",toarray"`
	rawCbor          []byte
	MessageType      uint8
	MessageRequestId uuid.UUID
}

func (m *MessageBase) SetCbor(data []byte) {
	m.rawCbor = make([]byte, len(data))
	copy(m.rawCbor, data)
}

func (m *MessageBase) Cbor() []byte {
	return m.rawCbor
}

func (m *MessageBase) Type() uint8 {
	return m.MessageType
}

func (m *MessageBase) RequestId() uuid.UUID {
	return m.MessageRequestId
}

func (m *MessageBase) SetRequestId(requestId uuid.UUID) {
	// Invalidate any cached CBOR, since it no longer matches the content
	m.rawCbor = nil
	m.MessageRequestId = requestId
}

// CloneMessage returns a deep copy of the provided message. The clone
// carries no cached CBOR and can be given its own request ID without
// affecting the original
func CloneMessage(msg Message) (Message, error) {
	valueMsg := reflect.ValueOf(msg)
	if valueMsg.Kind() != reflect.Pointer {
		return nil, errors.New("message must be a pointer to a struct")
	}
	tmpMsg := reflect.New(valueMsg.Elem().Type()).Interface()
	if err := copier.CopyWithOption(
		tmpMsg,
		msg,
		copier.Option{DeepCopy: true},
	); err != nil {
		return nil, err
	}
	ret, ok := tmpMsg.(Message)
	if !ok {
		return nil, errors.New("cloned message does not implement Message")
	}
	return ret, nil
}

// EncodeMessage returns the CBOR for the provided message, reusing the
// cached CBOR from decoding if present
func EncodeMessage(msg Message) ([]byte, error) {
	if rawCbor := msg.Cbor(); rawCbor != nil {
		return rawCbor, nil
	}
	return cbor.Encode(msg)
}

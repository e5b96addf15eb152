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

// Package protocol implements the messages exchanged between validators
// for DAG vertex, certificate, and batch retrieval. Payloads are carried
// as opaque CBOR so that the message format can evolve without changes
// to the dispatch layer.
package protocol

import (
	"fmt"

	"github.com/blinklabs-io/dagnet/cbor"
)

const (
	MessageTypeVertexRequest       = 0
	MessageTypeVertexResponse      = 1
	MessageTypeCertificateRequest  = 2
	MessageTypeCertificateResponse = 3
	MessageTypeBatchFetchRequest   = 4
	MessageTypeBatchFetchResponse  = 5
)

// responseTypes maps each request message type to its expected response
// message type
var responseTypes = map[uint8]uint8{
	MessageTypeVertexRequest:      MessageTypeVertexResponse,
	MessageTypeCertificateRequest: MessageTypeCertificateResponse,
	MessageTypeBatchFetchRequest:  MessageTypeBatchFetchResponse,
}

// ResponseTypeFor returns the expected response message type for the
// provided request message type. The second return value is false if the
// provided type is not a request
func ResponseTypeFor(msgType uint8) (uint8, bool) {
	respType, ok := responseTypes[msgType]
	return respType, ok
}

// ValidateResponse checks that a raw reply is the expected response kind
// for the provided request and carries the request's ID. It fails fast
// with a protocol violation error on any mismatch
func ValidateResponse(req Message, resp Message) error {
	expectedType, ok := ResponseTypeFor(req.Type())
	if !ok {
		return fmt.Errorf(
			"%w: message type %d is not a request",
			ErrProtocolViolationNotAResponse,
			req.Type(),
		)
	}
	if resp.Type() != expectedType {
		return fmt.Errorf(
			"%w: expected %d, got %d",
			ErrProtocolViolationUnexpectedMessage,
			expectedType,
			resp.Type(),
		)
	}
	if resp.RequestId() != req.RequestId() {
		return fmt.Errorf(
			"%w: expected %s, got %s",
			ErrProtocolViolationRequestIdMismatch,
			req.RequestId(),
			resp.RequestId(),
		)
	}
	return nil
}

// NewMsgFromCbor parses a message from CBOR based on the provided message type
func NewMsgFromCbor(msgType uint8, data []byte) (Message, error) {
	var ret Message
	switch msgType {
	case MessageTypeVertexRequest:
		ret = &MsgVertexRequest{}
	case MessageTypeVertexResponse:
		ret = &MsgVertexResponse{}
	case MessageTypeCertificateRequest:
		ret = &MsgCertificateRequest{}
	case MessageTypeCertificateResponse:
		ret = &MsgCertificateResponse{}
	case MessageTypeBatchFetchRequest:
		ret = &MsgBatchFetchRequest{}
	case MessageTypeBatchFetchResponse:
		ret = &MsgBatchFetchResponse{}
	}
	if ret == nil {
		return nil, fmt.Errorf(
			"%w: %d",
			ErrProtocolViolationUnexpectedMessage,
			msgType,
		)
	}
	if _, err := cbor.Decode(data, ret); err != nil {
		return nil, fmt.Errorf("decode error: %w", err)
	}
	// Store the raw message CBOR
	ret.SetCbor(data)
	return ret, nil
}

// DecodeMessage parses a message from CBOR, determining the message type
// from the leading list item
func DecodeMessage(data []byte) (Message, error) {
	msgType, err := cbor.DecodeIdFromList(data)
	if err != nil {
		return nil, fmt.Errorf("decode error: %w", err)
	}
	if msgType < 0 || msgType > 255 {
		return nil, fmt.Errorf(
			"%w: %d",
			ErrProtocolViolationUnexpectedMessage,
			msgType,
		)
	}
	return NewMsgFromCbor(uint8(msgType), data)
}

type MsgVertexRequest struct {
	MessageBase
	VertexIds [][]byte
}

func NewMsgVertexRequest(vertexIds [][]byte) *MsgVertexRequest {
	m := &MsgVertexRequest{
		MessageBase: MessageBase{
			MessageType: MessageTypeVertexRequest,
		},
		VertexIds: vertexIds,
	}
	return m
}

type MsgVertexResponse struct {
	MessageBase
	Vertices []cbor.RawMessage
}

func NewMsgVertexResponse(vertices []cbor.RawMessage) *MsgVertexResponse {
	m := &MsgVertexResponse{
		MessageBase: MessageBase{
			MessageType: MessageTypeVertexResponse,
		},
		Vertices: vertices,
	}
	return m
}

type MsgCertificateRequest struct {
	MessageBase
	Round uint64
}

func NewMsgCertificateRequest(round uint64) *MsgCertificateRequest {
	m := &MsgCertificateRequest{
		MessageBase: MessageBase{
			MessageType: MessageTypeCertificateRequest,
		},
		Round: round,
	}
	return m
}

type MsgCertificateResponse struct {
	MessageBase
	Certificates []cbor.RawMessage
}

func NewMsgCertificateResponse(
	certificates []cbor.RawMessage,
) *MsgCertificateResponse {
	m := &MsgCertificateResponse{
		MessageBase: MessageBase{
			MessageType: MessageTypeCertificateResponse,
		},
		Certificates: certificates,
	}
	return m
}

type MsgBatchFetchRequest struct {
	MessageBase
	Digests [][]byte
}

func NewMsgBatchFetchRequest(digests [][]byte) *MsgBatchFetchRequest {
	m := &MsgBatchFetchRequest{
		MessageBase: MessageBase{
			MessageType: MessageTypeBatchFetchRequest,
		},
		Digests: digests,
	}
	return m
}

type MsgBatchFetchResponse struct {
	MessageBase
	Batches []cbor.RawMessage
}

func NewMsgBatchFetchResponse(batches []cbor.RawMessage) *MsgBatchFetchResponse {
	m := &MsgBatchFetchResponse{
		MessageBase: MessageBase{
			MessageType: MessageTypeBatchFetchResponse,
		},
		Batches: batches,
	}
	return m
}

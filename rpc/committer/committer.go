// Package committer declares the wire messages and gRPC service for
// node-to-node partial-signature gossip (spec.md §4.6, §6). It is modeled on
// the message shape of the teacher's protobuf/drand/protocol_grpc.pb.go
// (one small request/reply pair per RPC, proto3 field tags, a
// grpc.ServiceDesc built by hand the way protoc-gen-go-grpc would) without
// running protoc against a .proto file, since the committer protocol itself
// is this repository's own addition, not drand's.
package committer

import (
	"fmt"

	"google.golang.org/protobuf/runtime/protoimpl"
)

// TaskType mirrors spec.md §4.6 step 5: only Randomness is accepted at the
// RPC boundary today. GroupRelay and GroupRelayConfirmation are declared so
// a future relayed-chain extension has a slot (spec.md §9's Open Question),
// but the server rejects them with InvalidTaskType.
type TaskType int32

const (
	TaskTypeRandomness TaskType = 0
	// TaskTypeGroupRelay is a known extension point, not yet accepted.
	TaskTypeGroupRelay TaskType = 1
	// TaskTypeGroupRelayConfirmation is a known extension point, not yet accepted.
	TaskTypeGroupRelayConfirmation TaskType = 2
)

func (t TaskType) String() string {
	switch t {
	case TaskTypeRandomness:
		return "randomness"
	case TaskTypeGroupRelay:
		return "group_relay"
	case TaskTypeGroupRelayConfirmation:
		return "group_relay_confirmation"
	default:
		return "unknown"
	}
}

// CommitPartialSignatureRequest is the sole committer RPC request shape
// (spec.md §6): `commit_partial_signature(sender_address, chain_id,
// task_type, request_id, message, partial_signature)`.
type CommitPartialSignatureRequest struct {
	state         protoimpl.MessageState
	sizeCache     protoimpl.SizeCache
	unknownFields protoimpl.UnknownFields

	SenderAddress    []byte   `protobuf:"bytes,1,opt,name=sender_address,json=senderAddress,proto3" json:"sender_address,omitempty"`
	ChainId          uint32   `protobuf:"varint,2,opt,name=chain_id,json=chainId,proto3" json:"chain_id,omitempty"`
	TaskType         TaskType `protobuf:"varint,3,opt,name=task_type,json=taskType,proto3,enum=committer.TaskType" json:"task_type,omitempty"`
	RequestId        []byte   `protobuf:"bytes,4,opt,name=request_id,json=requestId,proto3" json:"request_id,omitempty"`
	Message          []byte   `protobuf:"bytes,5,opt,name=message,proto3" json:"message,omitempty"`
	PartialSignature []byte   `protobuf:"bytes,6,opt,name=partial_signature,json=partialSignature,proto3" json:"partial_signature,omitempty"`
}

func (x *CommitPartialSignatureRequest) Reset()         { *x = CommitPartialSignatureRequest{} }
func (x *CommitPartialSignatureRequest) String() string { return fmt.Sprintf("%+v", *x) }
func (*CommitPartialSignatureRequest) ProtoMessage()    {}

func (x *CommitPartialSignatureRequest) GetSenderAddress() []byte {
	if x != nil {
		return x.SenderAddress
	}
	return nil
}

func (x *CommitPartialSignatureRequest) GetChainId() uint32 {
	if x != nil {
		return x.ChainId
	}
	return 0
}

func (x *CommitPartialSignatureRequest) GetTaskType() TaskType {
	if x != nil {
		return x.TaskType
	}
	return TaskTypeRandomness
}

func (x *CommitPartialSignatureRequest) GetRequestId() []byte {
	if x != nil {
		return x.RequestId
	}
	return nil
}

func (x *CommitPartialSignatureRequest) GetMessage() []byte {
	if x != nil {
		return x.Message
	}
	return nil
}

func (x *CommitPartialSignatureRequest) GetPartialSignature() []byte {
	if x != nil {
		return x.PartialSignature
	}
	return nil
}

// CommitPartialSignatureReply is `{ result: bool }` from spec.md §6.
type CommitPartialSignatureReply struct {
	state         protoimpl.MessageState
	sizeCache     protoimpl.SizeCache
	unknownFields protoimpl.UnknownFields

	Result bool `protobuf:"varint,1,opt,name=result,proto3" json:"result,omitempty"`
}

func (x *CommitPartialSignatureReply) Reset()         { *x = CommitPartialSignatureReply{} }
func (x *CommitPartialSignatureReply) String() string { return fmt.Sprintf("%+v", *x) }
func (*CommitPartialSignatureReply) ProtoMessage()    {}

func (x *CommitPartialSignatureReply) GetResult() bool {
	if x != nil {
		return x.Result
	}
	return false
}

// Package management declares the wire messages and gRPC service for the
// node's admin surface (spec.md §6): start/shutdown a listener by type and
// chain, and list the fixed scheduler's running tasks. Modeled on the same
// trimmed hand-written message style as rpc/committer.
package management

import (
	"fmt"

	"google.golang.org/protobuf/runtime/protoimpl"
)

type StartListenerRequest struct {
	state         protoimpl.MessageState
	sizeCache     protoimpl.SizeCache
	unknownFields protoimpl.UnknownFields

	ChainId      uint32 `protobuf:"varint,1,opt,name=chain_id,json=chainId,proto3" json:"chain_id,omitempty"`
	ListenerType string `protobuf:"bytes,2,opt,name=listener_type,json=listenerType,proto3" json:"listener_type,omitempty"`
}

func (x *StartListenerRequest) Reset()         { *x = StartListenerRequest{} }
func (x *StartListenerRequest) String() string { return fmt.Sprintf("%+v", *x) }
func (*StartListenerRequest) ProtoMessage()    {}

func (x *StartListenerRequest) GetChainId() uint32 {
	if x != nil {
		return x.ChainId
	}
	return 0
}

func (x *StartListenerRequest) GetListenerType() string {
	if x != nil {
		return x.ListenerType
	}
	return ""
}

type ShutdownListenerRequest struct {
	state         protoimpl.MessageState
	sizeCache     protoimpl.SizeCache
	unknownFields protoimpl.UnknownFields

	ChainId      uint32 `protobuf:"varint,1,opt,name=chain_id,json=chainId,proto3" json:"chain_id,omitempty"`
	ListenerType string `protobuf:"bytes,2,opt,name=listener_type,json=listenerType,proto3" json:"listener_type,omitempty"`
}

func (x *ShutdownListenerRequest) Reset()         { *x = ShutdownListenerRequest{} }
func (x *ShutdownListenerRequest) String() string { return fmt.Sprintf("%+v", *x) }
func (*ShutdownListenerRequest) ProtoMessage()    {}

func (x *ShutdownListenerRequest) GetChainId() uint32 {
	if x != nil {
		return x.ChainId
	}
	return 0
}

func (x *ShutdownListenerRequest) GetListenerType() string {
	if x != nil {
		return x.ListenerType
	}
	return ""
}

// Result is the shared `{ result: bool }` reply shape for start/shutdown.
type Result struct {
	state         protoimpl.MessageState
	sizeCache     protoimpl.SizeCache
	unknownFields protoimpl.UnknownFields

	Result bool `protobuf:"varint,1,opt,name=result,proto3" json:"result,omitempty"`
}

func (x *Result) Reset()         { *x = Result{} }
func (x *Result) String() string { return fmt.Sprintf("%+v", *x) }
func (*Result) ProtoMessage()    {}

func (x *Result) GetResult() bool {
	if x != nil {
		return x.Result
	}
	return false
}

type ListFixedTasksRequest struct {
	state         protoimpl.MessageState
	sizeCache     protoimpl.SizeCache
	unknownFields protoimpl.UnknownFields
}

func (x *ListFixedTasksRequest) Reset()         { *x = ListFixedTasksRequest{} }
func (x *ListFixedTasksRequest) String() string { return fmt.Sprintf("%+v", *x) }
func (*ListFixedTasksRequest) ProtoMessage()    {}

type ListFixedTasksReply struct {
	state         protoimpl.MessageState
	sizeCache     protoimpl.SizeCache
	unknownFields protoimpl.UnknownFields

	Tasks []string `protobuf:"bytes,1,rep,name=tasks,proto3" json:"tasks,omitempty"`
}

func (x *ListFixedTasksReply) Reset()         { *x = ListFixedTasksReply{} }
func (x *ListFixedTasksReply) String() string { return fmt.Sprintf("%+v", *x) }
func (*ListFixedTasksReply) ProtoMessage()    {}

func (x *ListFixedTasksReply) GetTasks() []string {
	if x != nil {
		return x.Tasks
	}
	return nil
}

// NodeActivateRequest / NodeQuitRequest: spec.md §9 leaves these
// intentionally unimplemented; the messages exist so the service shape is
// complete, but the server always returns Unimplemented for them.
type NodeActivateRequest struct {
	state         protoimpl.MessageState
	sizeCache     protoimpl.SizeCache
	unknownFields protoimpl.UnknownFields
}

func (x *NodeActivateRequest) Reset()         { *x = NodeActivateRequest{} }
func (x *NodeActivateRequest) String() string { return fmt.Sprintf("%+v", *x) }
func (*NodeActivateRequest) ProtoMessage()    {}

type NodeQuitRequest struct {
	state         protoimpl.MessageState
	sizeCache     protoimpl.SizeCache
	unknownFields protoimpl.UnknownFields
}

func (x *NodeQuitRequest) Reset()         { *x = NodeQuitRequest{} }
func (x *NodeQuitRequest) String() string { return fmt.Sprintf("%+v", *x) }
func (*NodeQuitRequest) ProtoMessage()    {}

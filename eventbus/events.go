// Package eventbus is the specialized, topic-keyed in-process broadcaster
// from spec.md §4.1: publishers post events by topic, subscribers register a
// handler per topic and see every event on it, in publish order, processed
// one at a time. It deliberately is not a generic pub/sub framework (spec.md
// §1 Non-goals) — the topic set below is closed.
package eventbus

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/randcast-network/randcast-node/types"
)

// Topic is one of the closed set of event kinds spec.md §4.1 names.
type Topic string

const (
	TopicNewBlock                     Topic = "new_block"
	TopicNewRandomnessTask            Topic = "new_randomness_task"
	TopicReadyToHandleRandomnessTask  Topic = "ready_to_handle_randomness_task"
	TopicReadyToFulfillRandomnessTask Topic = "ready_to_fulfill_randomness_task"
	TopicRunDKG                       Topic = "run_dkg"
	TopicDKGSuccess                   Topic = "dkg_success"
	TopicDKGPostProcess               Topic = "dkg_post_process"
)

// Event is anything that can be published; Topic identifies the subscriber
// queue it is routed to.
type Event interface {
	Topic() Topic
}

// NewBlockEvent carries the chain whose head just advanced.
type NewBlockEvent struct {
	ChainID     uint32
	BlockHeight uint64
}

func (NewBlockEvent) Topic() Topic { return TopicNewBlock }

// NewRandomnessTaskEvent announces that a new request has been recorded in
// the BLSTasksHandler for chainID.
type NewRandomnessTaskEvent struct {
	ChainID   uint32
	RequestID []byte
}

func (NewRandomnessTaskEvent) Topic() Topic { return TopicNewRandomnessTask }

// ReadyToHandleRandomnessTaskEvent carries tasks check_and_get_available_tasks
// just marked handled for this node.
type ReadyToHandleRandomnessTaskEvent struct {
	ChainID uint32
	Tasks   []*types.RandomnessTask
}

func (ReadyToHandleRandomnessTaskEvent) Topic() Topic { return TopicReadyToHandleRandomnessTask }

// ReadyToFulfillRandomnessTaskEvent carries the request ids of result-cache
// entries that just crossed the commit threshold.
type ReadyToFulfillRandomnessTaskEvent struct {
	ChainID    uint32
	RequestIDs [][]byte
}

func (ReadyToFulfillRandomnessTaskEvent) Topic() Topic { return TopicReadyToFulfillRandomnessTask }

// RunDKGEvent carries the on-chain DKGTask that named this node.
type RunDKGEvent struct {
	GroupIndex          uint32
	Epoch               uint32
	Size                uint32
	Threshold           uint32
	Members             []common.Address
	CoordinatorAddress  common.Address
	AssignmentBlockNum  uint64
}

func (RunDKGEvent) Topic() Topic { return TopicRunDKG }

// DKGSuccessEvent fires once the controller reports the group ready.
type DKGSuccessEvent struct {
	GroupIndex uint32
	Epoch      uint32
	Committers []common.Address
}

func (DKGSuccessEvent) Topic() Topic { return TopicDKGSuccess }

// DKGPostProcessEvent fires once the post-grouping timeout has elapsed.
type DKGPostProcessEvent struct {
	GroupIndex uint32
	Epoch      uint32
}

func (DKGPostProcessEvent) Topic() Topic { return TopicDKGPostProcess }

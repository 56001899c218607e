package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// RandomnessTask is one on-chain randomness request, keyed by RequestID.
type RandomnessTask struct {
	RequestID             []byte
	SubscriptionID        uint64
	GroupIndex            uint32
	Seed                  *big.Int
	RequestConfirmations  uint16
	CallbackGasLimit      uint32
	CallbackMaxGasPrice   *big.Int
	AssignmentBlockHeight uint64
	Requester             common.Address
	Params                []byte
}

// ActualSeed builds the deterministic signing message: seed (32 bytes, big
// endian) concatenated with the assignment block height (32 bytes, big
// endian). All honest nodes derive byte-identical messages for a task.
func (t *RandomnessTask) ActualSeed() []byte {
	seedBytes := make([]byte, 32)
	t.Seed.FillBytes(seedBytes)

	heightBytes := make([]byte, 32)
	new(big.Int).SetUint64(t.AssignmentBlockHeight).FillBytes(heightBytes)

	out := make([]byte, 0, 64)
	out = append(out, seedBytes...)
	out = append(out, heightBytes...)
	return out
}

// RequestIDHex is a convenience accessor for logging.
func (t *RandomnessTask) RequestIDHex() string {
	return common.Bytes2Hex(t.RequestID)
}

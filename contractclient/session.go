package contractclient

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// CoordinatorSession binds a CoordinatorClient to one signer and default
// call options, the way abigen sessions pre-bind theirs. It satisfies the
// dkg package's Coordinator interface so the DKG board never handles
// transact/call options itself.
type CoordinatorSession struct {
	client *CoordinatorClient
	signer *bind.TransactOpts
}

// NewCoordinatorSession wraps client with signer.
func NewCoordinatorSession(client *CoordinatorClient, signer *bind.TransactOpts) *CoordinatorSession {
	return &CoordinatorSession{client: client, signer: signer}
}

func (s *CoordinatorSession) Publish(ctx context.Context, value []byte) error {
	_, err := s.client.Publish(ctx, s.signer, value)
	return err
}

func (s *CoordinatorSession) InPhase(ctx context.Context) (int8, error) {
	return s.client.InPhase(ctx, &bind.CallOpts{Context: ctx})
}

func (s *CoordinatorSession) GetShares(ctx context.Context) ([][]byte, error) {
	return s.client.GetShares(ctx, &bind.CallOpts{Context: ctx})
}

func (s *CoordinatorSession) GetResponses(ctx context.Context) ([][]byte, error) {
	return s.client.GetResponses(ctx, &bind.CallOpts{Context: ctx})
}

func (s *CoordinatorSession) GetJustifications(ctx context.Context) ([][]byte, error) {
	return s.client.GetJustifications(ctx, &bind.CallOpts{Context: ctx})
}

func (s *CoordinatorSession) GetParticipants(ctx context.Context) ([]common.Address, error) {
	return s.client.GetParticipants(ctx, &bind.CallOpts{Context: ctx})
}

func (s *CoordinatorSession) GetDKGKeys(ctx context.Context) ([][]byte, error) {
	return s.client.GetDKGKeys(ctx, &bind.CallOpts{Context: ctx})
}

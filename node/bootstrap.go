package node

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	clockwork "github.com/jonboulle/clockwork"

	"github.com/randcast-network/randcast-node/bls"
	"github.com/randcast-network/randcast-node/cache"
	"github.com/randcast-network/randcast-node/cache/boltcache"
	"github.com/randcast-network/randcast-node/cache/memory"
	"github.com/randcast-network/randcast-node/chain"
	"github.com/randcast-network/randcast-node/contractclient"
	"github.com/randcast-network/randcast-node/dkg"
	"github.com/randcast-network/randcast-node/log"
	"github.com/randcast-network/randcast-node/types"
)

// Mode is one of the CLI run modes (spec.md §6).
type Mode string

const (
	// ModeNewRun bootstraps from configuration: back up any existing data
	// file, generate a DKG keypair, register on chain.
	ModeNewRun Mode = "new-run"
	// ModeReRun resumes from the existing data file.
	ModeReRun Mode = "re-run"
	// ModeDemo runs entirely in memory and skips chain registration.
	ModeDemo Mode = "demo"
)

// Bootstrap builds a fully wired Context for cfg in the given mode. The
// returned cleanup releases the data store and chain connections; call it
// after Context.Stop.
func Bootstrap(ctx context.Context, l log.Logger, clock clockwork.Clock, cfg *Config, mode Mode) (*Context, func(), error) {
	signingKey, selfAddr, err := BuildSigningKey(cfg.Account)
	if err != nil {
		return nil, nil, err
	}
	l = l.With("id_address", selfAddr.Hex())

	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	fail := func(err error) (*Context, func(), error) {
		cleanup()
		return nil, nil, err
	}

	nodeInfo, group, mainTasks, mainResults, store, err := buildCaches(ctx, l, cfg, mode, selfAddr)
	if err != nil {
		return fail(err)
	}
	if store != nil {
		cleanups = append(cleanups, func() { _ = store.Close() })
	}

	if err := ensureIdentity(ctx, cfg, mode, selfAddr, nodeInfo); err != nil {
		return fail(err)
	}

	mainComp, err := buildChain(l, clock, cfg, cfg.MainChain, signingKey, true, mainTasks, mainResults)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, func() { mainComp.Backend.(*ethclient.Client).Close() })

	relayed := make([]*ChainComponents, 0, len(cfg.RelayedChains))
	for _, rc := range cfg.RelayedChains {
		comp, err := buildChain(l, clock, cfg, rc, signingKey, false,
			memory.NewBLSTasksCache(), memory.NewResultCache())
		if err != nil {
			return fail(err)
		}
		cleanups = append(cleanups, func() { comp.Backend.(*ethclient.Client).Close() })
		relayed = append(relayed, comp)
	}

	router := NewChainRouter(mainComp, relayed)

	if mode == ModeNewRun {
		if err := registerOnChain(ctx, cfg, mainComp, nodeInfo); err != nil {
			return fail(fmt.Errorf("node_register: %w", err))
		}
		l.Infow("registered node on chain", "chain_id", cfg.MainChain.ChainID)
	}

	return NewContext(ctx, l, clock, cfg, router, group, nodeInfo, selfAddr), cleanup, nil
}

// buildCaches selects the cache backing per mode: demo is purely in-memory;
// new-run backs up and re-creates the data file; re-run rehydrates it.
func buildCaches(
	ctx context.Context,
	l log.Logger,
	cfg *Config,
	mode Mode,
	selfAddr common.Address,
) (cache.NodeInfoHandler, cache.GroupInfoHandler, cache.BLSTasksHandler, cache.SignatureResultCacheHandler, *boltcache.Store, error) {
	if mode == ModeDemo {
		return memory.NewNodeInfoCache(), memory.NewGroupInfoCache(selfAddr),
			memory.NewBLSTasksCache(), memory.NewResultCache(), nil, nil
	}

	if mode == ModeNewRun {
		if err := boltcache.Backup(cfg.DataPath); err != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("back up data file: %w", err)
		}
	}
	store, err := boltcache.Open(ctx, l, cfg.DataPath, nil)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	nodeInfo, err := boltcache.OpenNodeInfoCache(store)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	group, err := boltcache.OpenGroupInfoCache(store, selfAddr)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	tasks, err := boltcache.OpenBLSTasksCache(store)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	results, err := boltcache.OpenResultCache(store)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	return nodeInfo, group, tasks, results, store, nil
}

// ensureIdentity writes (new-run, demo) or verifies (re-run) the node's
// identity record, including the DKG keypair that rotates only on
// re-initialization.
func ensureIdentity(ctx context.Context, cfg *Config, mode Mode, selfAddr common.Address, nodeInfo cache.NodeInfoHandler) error {
	if mode == ModeReRun {
		priv, err := nodeInfo.GetDKGPrivateKey(ctx)
		if err != nil {
			return err
		}
		if len(priv) == 0 {
			return fmt.Errorf("re-run requested but the data file holds no DKG keypair; use new-run")
		}
		stored, err := nodeInfo.GetIDAddress(ctx)
		if err != nil {
			return err
		}
		if stored != selfAddr {
			return fmt.Errorf("configured account %s does not match persisted identity %s", selfAddr.Hex(), stored.Hex())
		}
		return nil
	}

	privateKey, publicKey, err := bls.GenerateKeyPair()
	if err != nil {
		return fmt.Errorf("generate DKG keypair: %w", err)
	}
	if err := nodeInfo.SetIDAddress(ctx, selfAddr); err != nil {
		return err
	}
	if err := nodeInfo.SetRPCEndpoint(ctx, cfg.NodeAdvertisedEndpoint); err != nil {
		return err
	}
	return nodeInfo.SetDKGKeyPair(ctx, &types.DKGKeyPair{PublicKey: publicKey, PrivateKey: privateKey})
}

func buildChain(
	l log.Logger,
	clock clockwork.Clock,
	cfg *Config,
	cc ChainConfig,
	signingKey *ecdsa.PrivateKey,
	isMain bool,
	tasks cache.BLSTasksHandler,
	results cache.SignatureResultCacheHandler,
) (*ChainComponents, error) {
	backend, err := ethclient.Dial(cc.ProviderEndpoint)
	if err != nil {
		return nil, fmt.Errorf("dial chain %d provider: %w", cc.ChainID, err)
	}
	signer, err := bind.NewKeyedTransactorWithChainID(signingKey, chainIDBig(cc.ChainID))
	if err != nil {
		return nil, fmt.Errorf("build signer for chain %d: %w", cc.ChainID, err)
	}

	rd := cfg.TimeLimits.ContractTransactionRetry.Descriptor()
	adapterAddr := common.HexToAddress(cc.AdapterAddress)
	adapter, err := contractclient.NewAdapterClient(adapterAddr, backend, l, clock, rd)
	if err != nil {
		return nil, err
	}

	comp := &ChainComponents{
		Identity: chain.Identity{
			ChainID:           cc.ChainID,
			IsMainChain:       isMain,
			RPCEndpoint:       cc.ProviderEndpoint,
			Signer:            signer,
			AdapterAddress:    adapterAddr,
			ControllerAddress: common.HexToAddress(cc.ControllerAddress),
		},
		Blocks:  chain.NewBlockCache(),
		Backend: backend,
		Signer:  signer,
		Adapter: adapter,
		Tasks:   tasks,
		Results: results,
	}
	if isMain {
		controller, err := contractclient.NewControllerClient(comp.Identity.ControllerAddress, backend, l, clock, rd)
		if err != nil {
			return nil, err
		}
		comp.Controller = controller
	}
	return comp, nil
}

// registerOnChain posts node_register with the registration envelope: the
// fresh DKG public key plus the endpoint peers gossip partials to.
func registerOnChain(ctx context.Context, cfg *Config, main *ChainComponents, nodeInfo cache.NodeInfoHandler) error {
	publicKey, err := nodeInfo.GetDKGPublicKey(ctx)
	if err != nil {
		return err
	}
	record, err := dkg.EncodeNodeRecord(publicKey, cfg.NodeAdvertisedEndpoint)
	if err != nil {
		return err
	}
	_, err = main.Controller.NodeRegister(ctx, main.Signer, record)
	return err
}

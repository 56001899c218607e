package node

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	bip39 "github.com/tyler-smith/go-bip39"

	"github.com/randcast-network/randcast-node/errs"
)

// defaultDerivationPath is the standard Ethereum account path; the account
// index is appended as the final component.
const defaultDerivationPath = "m/44'/60'/0'/0"

// BuildSigningKey resolves the configured account into the node's signing
// key and id address. Exactly one source is honored, in the order private
// key, keystore, HD wallet, matching the original account union.
func BuildSigningKey(account Account) (*ecdsa.PrivateKey, common.Address, error) {
	switch {
	case account.PrivateKey != "":
		return keyFromHex(account.PrivateKey)
	case account.Keystore != nil:
		return keyFromKeystore(account.Keystore)
	case account.HDWallet != nil:
		return keyFromMnemonic(account.HDWallet)
	default:
		return nil, common.Address{}, errs.ErrLackOfAccount
	}
}

func keyFromHex(hexKey string) (*ecdsa.PrivateKey, common.Address, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("parse private key: %w", err)
	}
	return key, crypto.PubkeyToAddress(key.PublicKey), nil
}

func keyFromKeystore(ks *Keystore) (*ecdsa.PrivateKey, common.Address, error) {
	encrypted, err := os.ReadFile(ks.Path)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("read keystore %s: %w", ks.Path, err)
	}
	key, err := keystore.DecryptKey(encrypted, ks.Password)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("decrypt keystore %s: %w", ks.Path, err)
	}
	return key.PrivateKey, crypto.PubkeyToAddress(key.PrivateKey.PublicKey), nil
}

func keyFromMnemonic(hd *HDWallet) (*ecdsa.PrivateKey, common.Address, error) {
	if !bip39.IsMnemonicValid(hd.Mnemonic) {
		return nil, common.Address{}, fmt.Errorf("invalid mnemonic")
	}
	seed := bip39.NewSeed(hd.Mnemonic, hd.Passphrase)

	pathSpec := hd.DerivationPath
	if pathSpec == "" {
		pathSpec = defaultDerivationPath
	}
	path, err := accounts.ParseDerivationPath(fmt.Sprintf("%s/%d", pathSpec, hd.Index))
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("parse derivation path: %w", err)
	}

	node, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("derive master key: %w", err)
	}
	for _, component := range path {
		node, err = node.Derive(component)
		if err != nil {
			return nil, common.Address{}, fmt.Errorf("derive path component %d: %w", component, err)
		}
	}
	btcKey, err := node.ECPrivKey()
	if err != nil {
		return nil, common.Address{}, err
	}
	key := btcKey.ToECDSA()
	return key, crypto.PubkeyToAddress(key.PublicKey), nil
}

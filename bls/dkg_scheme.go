package bls

import (
	"crypto/cipher"

	"github.com/drand/kyber"
	"github.com/drand/kyber/sign"
	"github.com/drand/kyber/sign/schnorr"
	"github.com/drand/kyber/util/random"
)

// schnorrSuite equips KeyGroup with the random stream schnorr signing needs.
type schnorrSuite struct {
	kyber.Group
}

func (s *schnorrSuite) RandomStream() cipher.Stream {
	return random.New()
}

// AuthScheme authenticates the bundles a node publishes to the DKG board, so
// a participant cannot speak with another participant's index.
var AuthScheme sign.Scheme = schnorr.NewScheme(&schnorrSuite{KeyGroup()})

// GenerateKeyPair creates a fresh DKG identity keypair in KeyGroup. The
// public key is what node_register posts on chain; the private key is the
// long-term secret the DKG protocol authenticates and decrypts with.
func GenerateKeyPair() (privateKey, publicKey []byte, err error) {
	sk := KeyGroup().Scalar().Pick(random.New())
	pk := KeyGroup().Point().Mul(sk, nil)

	privateKey, err = sk.MarshalBinary()
	if err != nil {
		return nil, nil, err
	}
	publicKey, err = pk.MarshalBinary()
	if err != nil {
		return nil, nil, err
	}
	return privateKey, publicKey, nil
}

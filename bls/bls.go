// Package bls wraps the threshold-BLS primitives the coordination engine
// treats as an external collaborator (spec.md §1): partial_sign,
// partial_verify, aggregate, verify. It is grounded on the same pairing stack
// drand's crypto package uses (github.com/drand/kyber, kyber-bls12381,
// kyber/sign/bls, kyber/share) rather than on the actual ARPA curve (bn254),
// since that is the dependency the example pack actually vendors.
//
// Threshold BLS (Boldyreva) reduces to: each member signs with their Shamir
// share of the group secret using plain BLS; a partial signature therefore
// verifies against that member's partial public key using the ordinary BLS
// verification equation, and t-of-n partials recombine into the group
// signature by Lagrange interpolation of the signature points themselves
// (share.RecoverCommit), without ever reconstructing the secret key.
package bls

import (
	bls12381 "github.com/drand/kyber-bls12381"
	"github.com/drand/kyber"
	"github.com/drand/kyber/share"
	"github.com/drand/kyber/sign"
	signbls "github.com/drand/kyber/sign/bls"

	"github.com/randcast-network/randcast-node/errs"
)

var (
	suite  = bls12381.NewBLS12381Suite()
	scheme = signbls.NewSchemeOnG1(suite)
)

// KeyGroup is the group public/private keys live in (G2, 96 bytes/point).
func KeyGroup() kyber.Group { return suite.G2() }

// SigGroup is the group signatures live in (G1, 48 bytes/point).
func SigGroup() kyber.Group { return suite.G1() }

// scheme is the single non-threshold BLS signature scheme (sign.Scheme);
// every partial signature and the recombined group signature is validated
// through it, since partials are ordinary BLS signatures under a Shamir
// share.

// PartialSign produces this member's partial signature over msg using its
// secret share.
func PartialSign(secretShare kyber.Scalar, msg []byte) ([]byte, error) {
	return scheme.(sign.Scheme).Sign(secretShare, msg)
}

// PartialVerify checks a partial signature against the signer's partial
// public key (a point in KeyGroup, typically unmarshalled from
// Member.PartialPublicKey).
func PartialVerify(partialPublicKey kyber.Point, msg, sig []byte) error {
	if err := scheme.(sign.Scheme).Verify(partialPublicKey, msg, sig); err != nil {
		return errs.ErrInvalidPartialSignature
	}
	return nil
}

// Verify checks a (partial or recombined) signature against any public key
// in KeyGroup, including the group public key.
func Verify(publicKey kyber.Point, msg, sig []byte) error {
	if err := scheme.(sign.Scheme).Verify(publicKey, msg, sig); err != nil {
		return errs.ErrSignatureVerificationFailed
	}
	return nil
}

// PartialSignature pairs a signature share with the Shamir index it came
// from, the shape share.RecoverCommit needs to interpolate.
type PartialSignature struct {
	Index     int
	Signature []byte
}

// Aggregate recombines t-of-n partial signatures into the group signature.
// It fails if fewer than threshold shares are supplied.
func Aggregate(threshold, total int, partials []PartialSignature) ([]byte, error) {
	if len(partials) < threshold {
		return nil, errs.ErrSignatureAggregationThreshold
	}

	pubShares := make([]*share.PubShare, 0, len(partials))
	for _, p := range partials {
		point := SigGroup().Point()
		if err := point.UnmarshalBinary(p.Signature); err != nil {
			return nil, err
		}
		pubShares = append(pubShares, &share.PubShare{I: p.Index, V: point})
	}

	recovered, err := share.RecoverCommit(SigGroup(), pubShares, threshold, total)
	if err != nil {
		return nil, err
	}
	return recovered.MarshalBinary()
}

// UnmarshalPublicKey decodes a KeyGroup point (group public key or a
// member's partial public key) from its wire bytes.
func UnmarshalPublicKey(b []byte) (kyber.Point, error) {
	p := KeyGroup().Point()
	if err := p.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return p, nil
}

// UnmarshalSecretShare decodes a KeyGroup scalar from its wire bytes.
func UnmarshalSecretShare(b []byte) (kyber.Scalar, error) {
	s := KeyGroup().Scalar()
	if err := s.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return s, nil
}

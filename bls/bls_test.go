package bls

import (
	"testing"

	"github.com/drand/kyber/share"
	"github.com/drand/kyber/util/random"
	"github.com/stretchr/testify/require"

	"github.com/randcast-network/randcast-node/errs"
)

// testShares builds a t-of-n Shamir sharing of a fresh secret and returns
// the secret shares alongside the public polynomial for verification.
func testShares(t *testing.T, threshold, n int) ([]*share.PriShare, *share.PubPoly) {
	t.Helper()
	secret := KeyGroup().Scalar().Pick(random.New())
	priPoly := share.NewPriPoly(KeyGroup(), threshold, secret, random.New())
	return priPoly.Shares(n), priPoly.Commit(KeyGroup().Point().Base())
}

func TestPartialSignAndVerify(t *testing.T) {
	shares, pubPoly := testShares(t, 2, 3)
	msg := []byte("deterministic message")

	for _, s := range shares {
		sig, err := PartialSign(s.V, msg)
		require.NoError(t, err)
		require.NoError(t, PartialVerify(pubPoly.Eval(s.I).V, msg, sig))
	}
}

func TestPartialVerifyRejectsWrongKey(t *testing.T) {
	shares, pubPoly := testShares(t, 2, 3)
	msg := []byte("deterministic message")

	sig, err := PartialSign(shares[0].V, msg)
	require.NoError(t, err)

	err = PartialVerify(pubPoly.Eval(shares[1].I).V, msg, sig)
	require.ErrorIs(t, err, errs.ErrInvalidPartialSignature)
}

func TestAggregateThreshold(t *testing.T) {
	const threshold, n = 3, 5
	shares, pubPoly := testShares(t, threshold, n)
	msg := []byte("aggregate me")

	partials := make([]PartialSignature, 0, n)
	for _, s := range shares {
		sig, err := PartialSign(s.V, msg)
		require.NoError(t, err)
		partials = append(partials, PartialSignature{Index: s.I, Signature: sig})
	}

	// Fewer than threshold shares must fail.
	_, err := Aggregate(threshold, n, partials[:threshold-1])
	require.ErrorIs(t, err, errs.ErrSignatureAggregationThreshold)

	// Any threshold-sized subset recombines into a signature that verifies
	// under the group public key.
	groupSig, err := Aggregate(threshold, n, partials[1:threshold+1])
	require.NoError(t, err)
	require.NoError(t, Verify(pubPoly.Commit(), msg, groupSig))

	// A different subset yields the same group signature.
	otherSig, err := Aggregate(threshold, n, partials[:threshold])
	require.NoError(t, err)
	require.Equal(t, groupSig, otherSig)
}

func TestGenerateKeyPairRoundTrip(t *testing.T) {
	priv, pub, err := GenerateKeyPair()
	require.NoError(t, err)

	sk, err := UnmarshalSecretShare(priv)
	require.NoError(t, err)
	pk, err := UnmarshalPublicKey(pub)
	require.NoError(t, err)

	require.True(t, KeyGroup().Point().Mul(sk, nil).Equal(pk))
}

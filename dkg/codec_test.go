package dkg

import (
	"testing"

	"github.com/drand/kyber"
	kdkg "github.com/drand/kyber/share/dkg"
	"github.com/drand/kyber/util/random"
	"github.com/stretchr/testify/require"

	"github.com/randcast-network/randcast-node/bls"
)

func randomPoints(n int) []kyber.Point {
	out := make([]kyber.Point, n)
	for i := range out {
		out[i] = bls.KeyGroup().Point().Pick(random.New())
	}
	return out
}

func TestDealBundleRoundTrip(t *testing.T) {
	in := &kdkg.DealBundle{
		DealerIndex: 2,
		Deals: []kdkg.Deal{
			{ShareIndex: 0, EncryptedShare: []byte{0x01, 0x02}},
			{ShareIndex: 1, EncryptedShare: []byte{0x03}},
		},
		Public:    randomPoints(3),
		SessionID: []byte("session"),
		Signature: []byte("sig"),
	}

	data, err := EncodeDealBundle(in)
	require.NoError(t, err)
	out, err := DecodeDealBundle(data)
	require.NoError(t, err)

	require.Equal(t, in.DealerIndex, out.DealerIndex)
	require.Equal(t, in.Deals, out.Deals)
	require.Equal(t, in.SessionID, out.SessionID)
	require.Equal(t, in.Signature, out.Signature)
	require.Len(t, out.Public, len(in.Public))
	for i := range in.Public {
		require.True(t, in.Public[i].Equal(out.Public[i]))
	}
}

func TestResponseBundleRoundTrip(t *testing.T) {
	in := &kdkg.ResponseBundle{
		ShareIndex: 1,
		Responses: []kdkg.Response{
			{DealerIndex: 0, Status: true},
			{DealerIndex: 2, Status: false},
		},
		SessionID: []byte("session"),
		Signature: []byte("sig"),
	}

	data, err := EncodeResponseBundle(in)
	require.NoError(t, err)
	out, err := DecodeResponseBundle(data)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestJustificationBundleRoundTrip(t *testing.T) {
	in := &kdkg.JustificationBundle{
		DealerIndex: 1,
		Justifications: []kdkg.Justification{
			{ShareIndex: 0, Share: bls.KeyGroup().Scalar().Pick(random.New())},
		},
		SessionID: []byte("session"),
		Signature: []byte("sig"),
	}

	data, err := EncodeJustificationBundle(in)
	require.NoError(t, err)
	out, err := DecodeJustificationBundle(data)
	require.NoError(t, err)

	require.Equal(t, in.DealerIndex, out.DealerIndex)
	require.Len(t, out.Justifications, 1)
	require.Equal(t, in.Justifications[0].ShareIndex, out.Justifications[0].ShareIndex)
	require.True(t, in.Justifications[0].Share.Equal(out.Justifications[0].Share))
}

func TestDecodeDealBundleRejectsGarbage(t *testing.T) {
	_, err := DecodeDealBundle([]byte("not json"))
	require.Error(t, err)
}

func TestNodeRecordRoundTrip(t *testing.T) {
	_, pub, err := bls.GenerateKeyPair()
	require.NoError(t, err)

	data, err := EncodeNodeRecord(pub, "10.0.0.1:50061")
	require.NoError(t, err)
	record, err := DecodeNodeRecord(data)
	require.NoError(t, err)
	require.Equal(t, pub, record.DKGPublicKey)
	require.Equal(t, "10.0.0.1:50061", record.RPCEndpoint)
}

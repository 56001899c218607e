package dkg

import (
	"encoding/json"
	"fmt"

	"github.com/drand/kyber"
	kdkg "github.com/drand/kyber/share/dkg"

	"github.com/randcast-network/randcast-node/bls"
)

// The coordinator contract stores each published bundle as opaque bytes, so
// the board needs a stable wire form for the three kyber bundle kinds. Points
// and scalars travel as their compressed binary marshaling inside a JSON
// envelope; the decode side rebuilds them in KeyGroup.

type dealWire struct {
	ShareIndex     uint32 `json:"share_index"`
	EncryptedShare []byte `json:"encrypted_share"`
}

type dealBundleWire struct {
	DealerIndex uint32     `json:"dealer_index"`
	Deals       []dealWire `json:"deals"`
	Commits     [][]byte   `json:"commits"`
	SessionID   []byte     `json:"session_id"`
	Signature   []byte     `json:"signature"`
}

type responseWire struct {
	DealerIndex uint32 `json:"dealer_index"`
	Status      bool   `json:"status"`
}

type responseBundleWire struct {
	ShareIndex uint32         `json:"share_index"`
	Responses  []responseWire `json:"responses"`
	SessionID  []byte         `json:"session_id"`
	Signature  []byte         `json:"signature"`
}

type justificationWire struct {
	ShareIndex uint32 `json:"share_index"`
	Share      []byte `json:"share"`
}

type justificationBundleWire struct {
	DealerIndex    uint32              `json:"dealer_index"`
	Justifications []justificationWire `json:"justifications"`
	SessionID      []byte              `json:"session_id"`
	Signature      []byte              `json:"signature"`
}

// EncodeDealBundle serializes a deal bundle for the coordinator's share phase.
func EncodeDealBundle(b *kdkg.DealBundle) ([]byte, error) {
	w := dealBundleWire{
		DealerIndex: b.DealerIndex,
		Deals:       make([]dealWire, len(b.Deals)),
		Commits:     make([][]byte, len(b.Public)),
		SessionID:   b.SessionID,
		Signature:   b.Signature,
	}
	for i, d := range b.Deals {
		w.Deals[i] = dealWire{ShareIndex: d.ShareIndex, EncryptedShare: d.EncryptedShare}
	}
	for i, c := range b.Public {
		buf, err := c.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("marshal public coeff %d: %w", i, err)
		}
		w.Commits[i] = buf
	}
	return json.Marshal(w)
}

// DecodeDealBundle rebuilds a deal bundle published by any participant.
func DecodeDealBundle(data []byte) (*kdkg.DealBundle, error) {
	var w dealBundleWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	b := &kdkg.DealBundle{
		DealerIndex: w.DealerIndex,
		Deals:       make([]kdkg.Deal, len(w.Deals)),
		Public:      make([]kyber.Point, len(w.Commits)),
		SessionID:   w.SessionID,
		Signature:   w.Signature,
	}
	for i, d := range w.Deals {
		b.Deals[i] = kdkg.Deal{ShareIndex: d.ShareIndex, EncryptedShare: d.EncryptedShare}
	}
	for i, c := range w.Commits {
		coeff := bls.KeyGroup().Point()
		if err := coeff.UnmarshalBinary(c); err != nil {
			return nil, fmt.Errorf("invalid public coeff %d: %w", i, err)
		}
		b.Public[i] = coeff
	}
	return b, nil
}

// EncodeResponseBundle serializes a response bundle for the response phase.
func EncodeResponseBundle(b *kdkg.ResponseBundle) ([]byte, error) {
	w := responseBundleWire{
		ShareIndex: b.ShareIndex,
		Responses:  make([]responseWire, len(b.Responses)),
		SessionID:  b.SessionID,
		Signature:  b.Signature,
	}
	for i, r := range b.Responses {
		w.Responses[i] = responseWire{DealerIndex: r.DealerIndex, Status: r.Status}
	}
	return json.Marshal(w)
}

// DecodeResponseBundle rebuilds a response bundle published by any participant.
func DecodeResponseBundle(data []byte) (*kdkg.ResponseBundle, error) {
	var w responseBundleWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	b := &kdkg.ResponseBundle{
		ShareIndex: w.ShareIndex,
		Responses:  make([]kdkg.Response, len(w.Responses)),
		SessionID:  w.SessionID,
		Signature:  w.Signature,
	}
	for i, r := range w.Responses {
		b.Responses[i] = kdkg.Response{DealerIndex: r.DealerIndex, Status: r.Status}
	}
	return b, nil
}

// EncodeJustificationBundle serializes a justification bundle for the
// justification phase.
func EncodeJustificationBundle(b *kdkg.JustificationBundle) ([]byte, error) {
	w := justificationBundleWire{
		DealerIndex:    b.DealerIndex,
		Justifications: make([]justificationWire, len(b.Justifications)),
		SessionID:      b.SessionID,
		Signature:      b.Signature,
	}
	for i, j := range b.Justifications {
		buf, err := j.Share.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("marshal justification share %d: %w", i, err)
		}
		w.Justifications[i] = justificationWire{ShareIndex: j.ShareIndex, Share: buf}
	}
	return json.Marshal(w)
}

// DecodeJustificationBundle rebuilds a justification bundle published by any
// participant.
func DecodeJustificationBundle(data []byte) (*kdkg.JustificationBundle, error) {
	var w justificationBundleWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	b := &kdkg.JustificationBundle{
		DealerIndex:    w.DealerIndex,
		Justifications: make([]kdkg.Justification, len(w.Justifications)),
		SessionID:      w.SessionID,
		Signature:      w.Signature,
	}
	for i, j := range w.Justifications {
		s := bls.KeyGroup().Scalar()
		if err := s.UnmarshalBinary(j.Share); err != nil {
			return nil, fmt.Errorf("invalid justification share %d: %w", i, err)
		}
		b.Justifications[i] = kdkg.Justification{ShareIndex: j.ShareIndex, Share: s}
	}
	return b, nil
}

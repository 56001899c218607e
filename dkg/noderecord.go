package dkg

import "encoding/json"

// NodeRecord is the envelope a node registers on chain as its
// id_public_key: the long-term DKG public key plus the committer RPC
// endpoint peers gossip partial signatures to. The coordinator hands the
// same blobs back through get_dkg_keys, which is how every participant
// learns its peers' endpoints without a second lookup.
type NodeRecord struct {
	DKGPublicKey []byte `json:"dkg_public_key"`
	RPCEndpoint  string `json:"rpc_endpoint"`
}

// EncodeNodeRecord serializes the registration envelope.
func EncodeNodeRecord(dkgPublicKey []byte, rpcEndpoint string) ([]byte, error) {
	return json.Marshal(NodeRecord{DKGPublicKey: dkgPublicKey, RPCEndpoint: rpcEndpoint})
}

// DecodeNodeRecord parses a registration envelope from chain bytes.
func DecodeNodeRecord(data []byte) (*NodeRecord, error) {
	var r NodeRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

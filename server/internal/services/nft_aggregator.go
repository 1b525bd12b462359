package services

import (
	"bytes"
	"context"
	"encoding/json"

	"nft-vault/shared/apperrors"
	"nft-vault/shared/logger"
	"nft-vault/shared/utils"
)

// NftAsset is one NFT as seen by a caller, normalized across chains. ImageURI
// is nil when neither the indexer nor the off-chain metadata supplied one.
type NftAsset struct {
	Name          string  `json:"name"`
	ImageURI      *string `json:"imageUri"`
	TokenID       string  `json:"mintOrTokenId"`
	TokenStandard string  `json:"tokenStandard"`
	MetadataURI   string  `json:"rawMetadataUri,omitempty"`
}

// CollectionGroup holds the assets of one collection.
type CollectionGroup struct {
	CollectionKey   string     `json:"collectionKey"`
	CollectionName  string     `json:"collectionName,omitempty"`
	CollectionImage string     `json:"collectionImage,omitempty"`
	Assets          []NftAsset `json:"assets"`
}

// CollectionInventory maps collectionKey to CollectionGroup while preserving
// the order collections were first seen in. Plain Go maps would scramble that
// order on iteration and on JSON encoding.
type CollectionInventory struct {
	keys   []string
	groups map[string]*CollectionGroup
}

func NewCollectionInventory() *CollectionInventory {
	return &CollectionInventory{groups: make(map[string]*CollectionGroup)}
}

// Group returns the group for key, creating it in insertion order when absent.
func (ci *CollectionInventory) Group(key, name, image string) *CollectionGroup {
	if g, ok := ci.groups[key]; ok {
		return g
	}
	g := &CollectionGroup{CollectionKey: key, CollectionName: name, CollectionImage: image}
	ci.keys = append(ci.keys, key)
	ci.groups[key] = g
	return g
}

func (ci *CollectionInventory) Get(key string) (*CollectionGroup, bool) {
	g, ok := ci.groups[key]
	return g, ok
}

// Keys returns the collection keys in first-seen order.
func (ci *CollectionInventory) Keys() []string {
	out := make([]string, len(ci.keys))
	copy(out, ci.keys)
	return out
}

func (ci *CollectionInventory) Len() int {
	return len(ci.keys)
}

// MarshalJSON encodes the inventory as a JSON object with keys in first-seen
// order.
func (ci *CollectionInventory) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range ci.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		groupJSON, err := json.Marshal(ci.groups[key])
		if err != nil {
			return nil, err
		}
		buf.Write(groupJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// NftAggregator retrieves and groups the NFTs a verified wallet holds on a
// given chain.
type NftAggregator struct {
	solana    *SolanaNftClient
	ethereum  *EthereumNftClient
	appLogger *logger.Logger
}

func NewNftAggregator(appLogger *logger.Logger) *NftAggregator {
	return &NftAggregator{
		solana:    NewSolanaNftClient(appLogger),
		ethereum:  NewEthereumNftClient(appLogger),
		appLogger: appLogger,
	}
}

// ListNFTs fetches every NFT the wallet holds on the chain, applies the
// optional case-insensitive name filter, and groups the result by collection.
// Per-item metadata failures degrade that item; a failed listing call is
// surfaced as an error.
func (a *NftAggregator) ListNFTs(ctx context.Context, blockchain Blockchain, walletAddress, nameFilter string) (*CollectionInventory, error) {
	if walletAddress == "" {
		return nil, apperrors.InvalidInputf("wallet address is required")
	}

	switch blockchain {
	case BlockchainSolana:
		inventory, err := a.solana.ListNFTs(ctx, walletAddress, nameFilter)
		if err != nil {
			a.appLogger.Error("Solana NFT listing failed", "wallet", walletAddress, "error", err)
			return nil, err
		}
		return inventory, nil
	case BlockchainEthereum:
		inventory, err := a.ethereum.ListNFTs(ctx, walletAddress, nameFilter)
		if err != nil {
			a.appLogger.Error("Ethereum NFT listing failed", "wallet", walletAddress, "error", err)
			return nil, err
		}
		return inventory, nil
	default:
		return nil, apperrors.InvalidInputf("unsupported blockchain %q", blockchain)
	}
}

// matchesFilter reports whether name passes the optional case-insensitive
// substring filter. An empty filter matches everything.
func matchesFilter(name, filter string) bool {
	if filter == "" {
		return true
	}
	return utils.ContainsFold(name, filter)
}

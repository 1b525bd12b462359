package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"nft-vault/shared/apperrors"
	"nft-vault/shared/config"
	"nft-vault/shared/env"
	"nft-vault/shared/logger"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// tensorInventoryQuery asks the indexer for the wallet's full inventory,
// already grouped by collection server-side.
const tensorInventoryQuery = `query
InventoryBySlug($owner: String!, $slugsToInflate: [String!], $includeFrozen: Boolean) {
  inventoryBySlug(
    owner: $owner
    slugsToInflate: $slugsToInflate
    includeFrozen: $includeFrozen
  ) {
    ...ReducedInstrumentWithMints
  }
}
fragment ReducedInstrumentWithMints on InstrumentWithMints {
  slug
  slugDisplay
  name
  imageUri
  id
  mintCount
  tokenStandard
  mints {
    ...ReducedMint
  }
}
fragment ReducedMint on TLinkedTxMintTV2 {
  onchainId
  name
  tokenStandard
  imageUri
}`

type tensorGraphQLRequest struct {
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
	Query         string                 `json:"query"`
}

type tensorMint struct {
	OnchainID     string  `json:"onchainId"`
	Name          string  `json:"name"`
	TokenStandard string  `json:"tokenStandard"`
	ImageURI      *string `json:"imageUri"`
}

type tensorInstrument struct {
	Slug          string       `json:"slug"`
	SlugDisplay   string       `json:"slugDisplay"`
	Name          string       `json:"name"`
	ImageURI      string       `json:"imageUri"`
	ID            string       `json:"id"`
	MintCount     int          `json:"mintCount"`
	TokenStandard string       `json:"tokenStandard"`
	Mints         []tensorMint `json:"mints"`
}

type tensorInventoryResponse struct {
	Data struct {
		InventoryBySlug []tensorInstrument `json:"inventoryBySlug"`
	} `json:"data"`
}

// DAS JSON-RPC shapes, shared by getAssetsByOwner and getAsset.

type dasRequest struct {
	JsonRPC string                 `json:"jsonrpc"`
	ID      string                 `json:"id"`
	Method  string                 `json:"method"`
	Params  map[string]interface{} `json:"params"`
}

type dasAssetContent struct {
	JSONURI  string `json:"json_uri"`
	Metadata struct {
		Name          string `json:"name"`
		TokenStandard string `json:"token_standard"`
	} `json:"metadata"`
	Links struct {
		Image string `json:"image"`
	} `json:"links"`
}

type dasAsset struct {
	ID       string          `json:"id"`
	Content  dasAssetContent `json:"content"`
	Grouping []struct {
		GroupKey   string `json:"group_key"`
		GroupValue string `json:"group_value"`
	} `json:"grouping"`
}

type dasAssetsByOwnerResponse struct {
	Result struct {
		Total int        `json:"total"`
		Limit int        `json:"limit"`
		Page  int        `json:"page"`
		Items []dasAsset `json:"items"`
	} `json:"result"`
}

type dasAssetResponse struct {
	Result dasAsset `json:"result"`
}

const dasPageLimit = 1000

// SolanaNftClient lists a wallet's NFT inventory. The Tensor-style GraphQL
// indexer is the primary source; when it is unavailable the client falls back
// to paging the raw assets out of a DAS RPC node and resolving collection
// names and missing images itself.
type SolanaNftClient struct {
	graphqlURL string
	dasURL     string
	httpClient *http.Client
	limiter    *rate.Limiter
	appLogger  *logger.Logger
}

func NewSolanaNftClient(appLogger *logger.Logger) *SolanaNftClient {
	dasURL := ""
	if env.HeliusAPIKey != "" {
		dasURL = fmt.Sprintf("https://mainnet.helius-rpc.com/?api-key=%s", env.HeliusAPIKey)
	}
	return &SolanaNftClient{
		graphqlURL: env.TensorGraphQLURL,
		dasURL:     dasURL,
		httpClient: &http.Client{Timeout: 25 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(10), 10),
		appLogger:  appLogger,
	}
}

func (c *SolanaNftClient) ListNFTs(ctx context.Context, walletAddress, nameFilter string) (*CollectionInventory, error) {
	instruments, err := c.fetchInventory(ctx, walletAddress)
	if err == nil {
		return c.groupInstruments(instruments, nameFilter), nil
	}
	if c.dasURL == "" {
		return nil, err
	}
	c.appLogger.Warn("Indexer inventory query failed, falling back to DAS", "wallet", walletAddress, "error", err)
	return c.listViaDAS(ctx, walletAddress, nameFilter)
}

// fetchInventory issues the single inventory-by-owner GraphQL query.
func (c *SolanaNftClient) fetchInventory(ctx context.Context, walletAddress string) ([]tensorInstrument, error) {
	payload := tensorGraphQLRequest{
		OperationName: "InventoryBySlug",
		Variables: map[string]interface{}{
			"owner":          walletAddress,
			"slugsToInflate": nil,
			"includeFrozen":  true,
		},
		Query: tensorInventoryQuery,
	}
	var response tensorInventoryResponse
	if err := c.postJSON(ctx, c.graphqlURL, payload, &response); err != nil {
		return nil, err
	}
	return response.Data.InventoryBySlug, nil
}

// groupInstruments turns the indexer's server-side grouping into the output
// mapping, applying the optional name filter. A collection whose own name
// matches keeps all of its mints; otherwise it is narrowed to the matching
// mints, and dropped when none match.
func (c *SolanaNftClient) groupInstruments(instruments []tensorInstrument, nameFilter string) *CollectionInventory {
	inventory := NewCollectionInventory()
	for _, instrument := range instruments {
		mints := instrument.Mints
		if !matchesFilter(instrument.Name, nameFilter) {
			var matching []tensorMint
			for _, mint := range instrument.Mints {
				if matchesFilter(mint.Name, nameFilter) {
					matching = append(matching, mint)
				}
			}
			if len(matching) == 0 {
				continue
			}
			mints = matching
		}
		group := inventory.Group(instrument.ID, instrument.Name, instrument.ImageURI)
		for _, mint := range mints {
			group.Assets = append(group.Assets, NftAsset{
				Name:          mint.Name,
				ImageURI:      mint.ImageURI,
				TokenID:       mint.OnchainID,
				TokenStandard: mint.TokenStandard,
			})
		}
	}
	return inventory
}

// listViaDAS pages the wallet's raw assets out of a DAS node, groups them by
// their verified collection, resolves collection names and missing images
// concurrently, and applies the name filter with the same
// collection-name-or-asset-name rule as the indexer path.
func (c *SolanaNftClient) listViaDAS(ctx context.Context, walletAddress, nameFilter string) (*CollectionInventory, error) {
	assets, err := c.fetchAssetsByOwner(ctx, walletAddress)
	if err != nil {
		return nil, err
	}

	// The filter can also match on a collection's name, which is only known
	// after resolution, so filtering waits for the final assembly pass.
	kept := assets

	// Asset images and collection names resolve into disjoint slots, so the
	// fan-out needs no locking.
	images := make([]*string, len(kept))
	for i, asset := range kept {
		if asset.Content.Links.Image != "" {
			image := asset.Content.Links.Image
			images[i] = &image
		}
	}

	collectionOf := make([]string, len(kept))
	var collectionKeys []string
	seen := make(map[string]int)
	for i, asset := range kept {
		key := asset.ID // ungrouped assets form a single-asset collection of their own
		for _, grouping := range asset.Grouping {
			if grouping.GroupKey == "collection" && grouping.GroupValue != "" {
				key = grouping.GroupValue
				break
			}
		}
		collectionOf[i] = key
		if _, ok := seen[key]; !ok {
			seen[key] = len(collectionKeys)
			collectionKeys = append(collectionKeys, key)
		}
	}

	collectionNames := make([]string, len(collectionKeys))
	collectionImages := make([]string, len(collectionKeys))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(metadataConcurrency())

	for i := range collectionKeys {
		i := i
		eg.Go(func() error {
			if err := c.limiter.Wait(egCtx); err != nil {
				return nil
			}
			name, image, err := c.resolveCollection(egCtx, collectionKeys[i])
			if err != nil {
				c.appLogger.Warn("Collection lookup failed", "collection", collectionKeys[i], "error", err)
				return nil
			}
			collectionNames[i] = name
			collectionImages[i] = image
			return nil
		})
	}
	for i := range kept {
		if images[i] != nil || kept[i].Content.JSONURI == "" {
			continue
		}
		i := i
		eg.Go(func() error {
			if err := c.limiter.Wait(egCtx); err != nil {
				return nil
			}
			image, err := c.fetchOffchainImage(egCtx, kept[i].Content.JSONURI)
			if err != nil {
				c.appLogger.Warn("Off-chain metadata fetch failed", "uri", kept[i].Content.JSONURI, "error", err)
				return nil
			}
			if image != "" {
				images[i] = &image
			}
			return nil
		})
	}
	// Workers swallow their own failures, the join only propagates programmer
	// error.
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	inventory := NewCollectionInventory()
	for i, asset := range kept {
		key := collectionOf[i]
		idx := seen[key]
		if !matchesFilter(collectionNames[idx], nameFilter) && !matchesFilter(asset.Content.Metadata.Name, nameFilter) {
			continue
		}
		group := inventory.Group(key, collectionNames[idx], collectionImages[idx])
		group.Assets = append(group.Assets, NftAsset{
			Name:          asset.Content.Metadata.Name,
			ImageURI:      images[i],
			TokenID:       asset.ID,
			TokenStandard: asset.Content.Metadata.TokenStandard,
			MetadataURI:   asset.Content.JSONURI,
		})
	}
	return inventory, nil
}

func (c *SolanaNftClient) fetchAssetsByOwner(ctx context.Context, walletAddress string) ([]dasAsset, error) {
	var all []dasAsset
	for page := 1; ; page++ {
		payload := dasRequest{
			JsonRPC: "2.0",
			ID:      "nft-vault-inventory",
			Method:  "getAssetsByOwner",
			Params: map[string]interface{}{
				"ownerAddress": walletAddress,
				"page":         page,
				"limit":        dasPageLimit,
				"displayOptions": map[string]bool{
					"showUnverifiedCollections": false,
					"showCollectionMetadata":    false,
					"showFungible":              false,
					"showNativeBalance":         false,
					"showInscription":           false,
				},
			},
		}
		var response dasAssetsByOwnerResponse
		if err := c.postJSON(ctx, c.dasURL, payload, &response); err != nil {
			return nil, err
		}
		all = append(all, response.Result.Items...)
		if len(response.Result.Items) < dasPageLimit {
			return all, nil
		}
	}
}

func (c *SolanaNftClient) resolveCollection(ctx context.Context, collectionAddress string) (name, image string, err error) {
	payload := dasRequest{
		JsonRPC: "2.0",
		ID:      "nft-vault-collection",
		Method:  "getAsset",
		Params:  map[string]interface{}{"id": collectionAddress},
	}
	var response dasAssetResponse
	if err := c.postJSON(ctx, c.dasURL, payload, &response); err != nil {
		return "", "", err
	}
	return response.Result.Content.Metadata.Name, response.Result.Content.Links.Image, nil
}

// fetchOffchainImage pulls the image URI out of a token's off-chain JSON
// metadata document.
func (c *SolanaNftClient) fetchOffchainImage(ctx context.Context, jsonURI string) (string, error) {
	var meta struct {
		Image string `json:"image"`
	}
	if err := getJSON(ctx, c.httpClient, jsonURI, nil, &meta); err != nil {
		return "", err
	}
	return meta.Image, nil
}

func (c *SolanaNftClient) postJSON(ctx context.Context, endpoint string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.UpstreamUnavailable(req.URL.Host, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.UpstreamUnavailable(req.URL.Host, err)
	}
	if resp.StatusCode != http.StatusOK {
		return apperrors.UpstreamRejected(req.URL.Host, fmt.Sprintf("status %d: %s", resp.StatusCode, truncateBody(raw)))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperrors.UpstreamUnavailable(req.URL.Host, fmt.Errorf("unexpected response payload: %w", err))
	}
	return nil
}

// metadataConcurrency reads the fan-out width from the loaded configuration,
// defaulting when the process runs without one.
func metadataConcurrency() int {
	if cfg := config.GetGlobalConfig(); cfg != nil && cfg.Upstream.MetadataConcurrency > 0 {
		return cfg.Upstream.MetadataConcurrency
	}
	return 8
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"nft-vault/shared/env"
	"nft-vault/shared/logger"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type moralisNft struct {
	TokenAddress string `json:"token_address"`
	TokenID      string `json:"token_id"`
	ContractType string `json:"contract_type"`
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
	TokenURI     string `json:"token_uri"`
	Metadata     string `json:"metadata"`
}

type moralisNftPage struct {
	Cursor string       `json:"cursor"`
	Result []moralisNft `json:"result"`
}

// ethTokenMetadata is the slice of the off-chain metadata document we care
// about.
type ethTokenMetadata struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

// EthereumNftClient lists a wallet's NFTs through a Moralis-style indexer
// REST endpoint, paging by cursor until exhaustion.
type EthereumNftClient struct {
	apiBase    string
	apiKey     string
	chain      string
	httpClient *http.Client
	limiter    *rate.Limiter
	appLogger  *logger.Logger
}

func NewEthereumNftClient(appLogger *logger.Logger) *EthereumNftClient {
	chain := "eth"
	if env.AppEnv == "development" {
		chain = "sepolia"
	}
	return &EthereumNftClient{
		apiBase:    env.MoralisAPIURL,
		apiKey:     env.MoralisAPIKey,
		chain:      chain,
		httpClient: &http.Client{Timeout: 25 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(10), 10),
		appLogger:  appLogger,
	}
}

func (c *EthereumNftClient) ListNFTs(ctx context.Context, walletAddress, nameFilter string) (*CollectionInventory, error) {
	items, err := c.fetchAllPages(ctx, walletAddress)
	if err != nil {
		return nil, err
	}

	metadata, err := c.resolveMetadata(ctx, items)
	if err != nil {
		return nil, err
	}

	inventory := NewCollectionInventory()
	for i, item := range items {
		meta := metadata[i]
		assetName := item.Name
		if meta != nil && meta.Name != "" {
			assetName = meta.Name
		}
		if !matchesFilter(item.Name, nameFilter) && !matchesFilter(assetName, nameFilter) {
			continue
		}
		var imageURI *string
		if meta != nil && meta.Image != "" {
			image := meta.Image
			imageURI = &image
		}
		group := inventory.Group(item.TokenAddress, item.Name, "")
		group.Assets = append(group.Assets, NftAsset{
			Name:          assetName,
			ImageURI:      imageURI,
			TokenID:       item.TokenID,
			TokenStandard: item.ContractType,
			MetadataURI:   item.TokenURI,
		})
	}
	return inventory, nil
}

// fetchAllPages walks the cursor until the upstream reports no further page.
// There is no page cap; a wallet with many pages holds the request until the
// cursor runs out.
func (c *EthereumNftClient) fetchAllPages(ctx context.Context, walletAddress string) ([]moralisNft, error) {
	var all []moralisNft
	cursor := ""
	for {
		page, err := c.fetchPage(ctx, walletAddress, cursor)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Result...)
		if page.Cursor == "" {
			return all, nil
		}
		cursor = page.Cursor
	}
}

func (c *EthereumNftClient) fetchPage(ctx context.Context, walletAddress, cursor string) (*moralisNftPage, error) {
	endpoint, err := url.Parse(fmt.Sprintf("%s/%s/nft", c.apiBase, walletAddress))
	if err != nil {
		return nil, fmt.Errorf("invalid indexer URL: %w", err)
	}
	q := endpoint.Query()
	q.Set("chain", c.chain)
	q.Set("format", "decimal")
	q.Set("media_items", "false")
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	endpoint.RawQuery = q.Encode()

	var page moralisNftPage
	if err := getJSON(ctx, c.httpClient, endpoint.String(), map[string]string{
		"X-API-Key": c.apiKey,
	}, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// resolveMetadata returns one metadata slot per item: the inline metadata
// string when the indexer supplied it, otherwise a best-effort token_uri
// fetch. A failed fetch leaves that item's slot nil and never fails the
// batch; each goroutine writes only its own slot.
func (c *EthereumNftClient) resolveMetadata(ctx context.Context, items []moralisNft) ([]*ethTokenMetadata, error) {
	metadata := make([]*ethTokenMetadata, len(items))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(metadataConcurrency())

	for i, item := range items {
		if item.Metadata != "" {
			var meta ethTokenMetadata
			if err := json.Unmarshal([]byte(item.Metadata), &meta); err != nil {
				c.appLogger.Warn("Unparseable inline NFT metadata", "tokenAddress", item.TokenAddress, "tokenId", item.TokenID, "error", err)
			} else {
				metadata[i] = &meta
			}
			continue
		}
		if item.TokenURI == "" {
			continue
		}
		i, item := i, item
		eg.Go(func() error {
			if err := c.limiter.Wait(egCtx); err != nil {
				return nil
			}
			var meta ethTokenMetadata
			if err := getJSON(egCtx, c.httpClient, item.TokenURI, nil, &meta); err != nil {
				c.appLogger.Warn("Token metadata fetch failed", "tokenUri", item.TokenURI, "error", err)
				return nil
			}
			metadata[i] = &meta
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return metadata, nil
}

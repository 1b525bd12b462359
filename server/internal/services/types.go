package services

// Blockchain tags the two chains wallets can prove ownership on.
type Blockchain string

const (
	BlockchainSolana   Blockchain = "SOLANA"
	BlockchainEthereum Blockchain = "ETHEREUM"
)

// Provider identifies how an identity was verified.
type Provider string

const (
	ProviderDiscord  Provider = "DISCORD"
	ProviderGoogle   Provider = "GOOGLE"
	ProviderTwitter  Provider = "TWITTER"
	ProviderFacebook Provider = "FACEBOOK"
	ProviderWallet   Provider = "WALLET"
	ProviderPassword Provider = "PASSWORD"
)

// WalletProof is a claim of ownership of a blockchain address, backed by a
// signature or, for Solana hardware wallets, an on-chain transaction id.
// IsLedger is only meaningful for SOLANA proofs.
type WalletProof struct {
	Blockchain    Blockchain
	WalletAddress string
	Signature     string
	IsLedger      bool
}

// VerifiedIdentity is the normalized result of a successful OAuth exchange or
// wallet proof. It is consumed exactly once by the identity resolver.
type VerifiedIdentity struct {
	Provider      Provider
	ExternalID    string
	Email         string
	Name          string
	WalletAddress string
}

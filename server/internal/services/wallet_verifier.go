package services

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"

	"nft-vault/shared/apperrors"
	"nft-vault/shared/env"
	"nft-vault/shared/logger"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"golang.org/x/crypto/sha3"
)

// WalletVerifier checks wallet-ownership proofs. It is stateless apart from
// the long-lived Solana RPC handle; the challenge message is a fixed,
// server-defined constant, so verification carries no nonce or replay
// tracking.
type WalletVerifier struct {
	rpcClient *rpc.Client
	challenge string
	appLogger *logger.Logger
}

func NewWalletVerifier(appLogger *logger.Logger) (*WalletVerifier, error) {
	rpcURL := env.SolRPCURL
	if rpcURL == "" {
		if env.SolanaCluster == "mainnet" {
			return nil, fmt.Errorf("SOL_RPC_URL environment variable not set")
		}
		rpcURL = rpc.DevNet_RPC
	}
	if env.ChallengeMessage == "" {
		return nil, fmt.Errorf("CHALLENGE_MESSAGE environment variable not set")
	}
	return &WalletVerifier{
		rpcClient: rpc.New(rpcURL),
		challenge: env.ChallengeMessage,
		appLogger: appLogger,
	}, nil
}

// Verify dispatches on the proof variant. Malformed addresses or signatures
// fail closed with (false, nil); only an inability to check the proof (a
// Solana RPC failure during ledger lookup) surfaces as an error.
func (v *WalletVerifier) Verify(ctx context.Context, proof WalletProof) (bool, error) {
	if proof.WalletAddress == "" || proof.Signature == "" {
		return false, apperrors.InvalidInputf("wallet address and signature are required")
	}

	switch {
	case proof.Blockchain == BlockchainSolana && !proof.IsLedger:
		return v.verifySolanaSignature(proof.WalletAddress, proof.Signature), nil
	case proof.Blockchain == BlockchainSolana && proof.IsLedger:
		return v.verifyLedgerTransaction(ctx, proof.WalletAddress, proof.Signature)
	case proof.Blockchain == BlockchainEthereum:
		return v.verifyEthereumSignature(proof.WalletAddress, proof.Signature), nil
	default:
		return false, apperrors.InvalidInputf("unsupported blockchain %q", proof.Blockchain)
	}
}

// verifySolanaSignature checks a detached ed25519 signature of the challenge
// message against the base58 wallet public key.
func (v *WalletVerifier) verifySolanaSignature(walletAddress, signature string) bool {
	pubKey, err := solana.PublicKeyFromBase58(walletAddress)
	if err != nil {
		v.appLogger.Debug("Solana proof rejected: wallet address is not valid base58", "walletAddress", walletAddress, "error", err)
		return false
	}
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		v.appLogger.Debug("Solana proof rejected: signature is not valid base58", "walletAddress", walletAddress, "error", err)
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pubKey[:]), []byte(v.challenge), sig[:])
}

// verifyLedgerTransaction treats the signature as a transaction id, fetches
// the transaction from the network and accepts the proof iff the first
// account key (the fee payer) equals the claimed wallet address. Hardware
// wallets cannot sign the challenge message directly, so a real on-chain
// transaction stands in as the proof of control.
func (v *WalletVerifier) verifyLedgerTransaction(ctx context.Context, walletAddress, signature string) (bool, error) {
	txSig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		v.appLogger.Debug("Ledger proof rejected: transaction id is not valid base58", "walletAddress", walletAddress, "error", err)
		return false, nil
	}

	out, err := v.rpcClient.GetTransaction(ctx, txSig, &rpc.GetTransactionOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		v.appLogger.Error("Ledger proof check failed: getTransaction RPC error", "walletAddress", walletAddress, "txSig", signature, "error", err)
		return false, apperrors.UpstreamUnavailable("solana getTransaction", err)
	}
	if out == nil || out.Transaction == nil {
		return false, nil
	}

	tx, err := out.Transaction.GetTransaction()
	if err != nil || tx == nil || len(tx.Message.AccountKeys) == 0 {
		v.appLogger.Warn("Ledger proof rejected: transaction could not be decoded", "walletAddress", walletAddress, "error", err)
		return false, nil
	}
	return tx.Message.AccountKeys[0].String() == walletAddress, nil
}

// verifyEthereumSignature recovers the signer of an EIP-191 personal_sign
// signature over the challenge message and compares it to the claimed
// address, case-insensitively.
func (v *WalletVerifier) verifyEthereumSignature(walletAddress, signature string) bool {
	normalizedAddr, err := normalizeEthAddress(walletAddress)
	if err != nil {
		v.appLogger.Debug("Ethereum proof rejected: invalid address", "walletAddress", walletAddress, "error", err)
		return false
	}

	sig, err := decodeHexSignature(signature)
	if err != nil || len(sig) != 65 {
		v.appLogger.Debug("Ethereum proof rejected: malformed signature", "walletAddress", walletAddress, "error", err)
		return false
	}

	// EIP-191: hash the prefixed message
	prefixedMessage := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(v.challenge), v.challenge)
	hash := keccak256([]byte(prefixedMessage))

	r := sig[0:32]
	s := sig[32:64]
	recoveryID := sig[64]

	// Transform V from 27/28 to 0/1 if needed
	if recoveryID >= 27 {
		recoveryID -= 27
	}
	if recoveryID > 1 {
		return false
	}

	pubKey, _, err := btcecdsa.RecoverCompact(makeCompactSig(r, s, recoveryID), hash)
	if err != nil {
		v.appLogger.Debug("Ethereum proof rejected: public key recovery failed", "walletAddress", walletAddress, "error", err)
		return false
	}

	recoveredAddr := pubKeyToEthAddress(pubKey)
	return strings.EqualFold(recoveredAddr, normalizedAddr)
}

// makeCompactSig reorders an R|S|V signature into the V|R|S layout RecoverCompact
// expects, with V in the 27..30 range.
func makeCompactSig(r, s []byte, recoveryID byte) []byte {
	compact := make([]byte, 65)
	compact[0] = 27 + recoveryID
	copy(compact[1:33], r)
	copy(compact[33:65], s)
	return compact
}

// pubKeyToEthAddress derives an Ethereum address from a secp256k1 public key.
func pubKeyToEthAddress(pubKey *btcec.PublicKey) string {
	uncompressed := pubKey.SerializeUncompressed()
	// Address is the last 20 bytes of the keccak hash, 0x04 prefix excluded.
	hash := keccak256(uncompressed[1:])
	return toChecksumAddress(hex.EncodeToString(hash[12:]))
}

// normalizeEthAddress converts an Ethereum address to EIP-55 checksum format.
func normalizeEthAddress(address string) (string, error) {
	addr := strings.TrimPrefix(strings.ToLower(address), "0x")
	if len(addr) != 40 {
		return "", fmt.Errorf("ethereum address must be 40 hex characters")
	}
	if _, err := hex.DecodeString(addr); err != nil {
		return "", fmt.Errorf("invalid hex in address: %w", err)
	}
	return toChecksumAddress(addr), nil
}

// toChecksumAddress applies the EIP-55 checksum to a lowercase hex address.
func toChecksumAddress(addr string) string {
	addr = strings.ToLower(addr)
	hash := keccak256([]byte(addr))

	result := make([]byte, 42)
	result[0] = '0'
	result[1] = 'x'

	for i := 0; i < 40; i++ {
		c := addr[i]
		hashNibble := hash[i/2]
		if i%2 == 0 {
			hashNibble >>= 4
		}
		hashNibble &= 0x0f

		if hashNibble >= 8 && c >= 'a' && c <= 'f' {
			result[i+2] = c - 32
		} else {
			result[i+2] = c
		}
	}
	return string(result)
}

func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

func decodeHexSignature(sig string) ([]byte, error) {
	sig = strings.TrimPrefix(sig, "0x")
	sig = strings.TrimPrefix(sig, "0X")
	return hex.DecodeString(sig)
}

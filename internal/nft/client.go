// Package nft is the client for the EncryptedFileNFT contract. It owns the
// provider/signer/contract lifecycle, encodes calls, decodes receipts and
// events into domain values, and defines the error contract every caller
// relies on.
package nft

import (
	"context"
)

// TokenDetails identifies a minted asset and the content hash of its
// encrypted off-chain payload. Immutable once constructed.
type TokenDetails struct {
	TokenID uint64 `json:"tokenId"`
	CIDHash string `json:"cidHash"`
}

// Client abstracts the on-chain encrypted-file NFT interaction.
//
// All operations are one-shot: a failed call is final, no retries happen
// inside the client. Write operations return only after the transaction is
// included in a block.
type Client interface {
	// Account returns the signer's address as a hex string.
	Account() string

	// MintToken mints a new token for cidHash, attaching the opaque
	// encrypted key material, and returns the contract-assigned token id
	// recovered from the TokenMinted event.
	MintToken(ctx context.Context, cidHash string, encryptedFileKey [][]byte) (TokenDetails, error)

	// GetTokensInRange returns the caller's tokens at indices
	// [start, start+count). The i-th token id pairs with the i-th cid hash.
	GetTokensInRange(ctx context.Context, start, count uint64) ([]TokenDetails, error)

	// GetSharedTokensInRange is GetTokensInRange over tokens shared with
	// the caller rather than owned by it.
	GetSharedTokensInRange(ctx context.Context, start, count uint64) ([]TokenDetails, error)

	// GetSharedWithAddresses lists the addresses a token is shared with.
	GetSharedWithAddresses(ctx context.Context, tokenID uint64) ([]string, error)

	TransferToken(ctx context.Context, to string, tokenID uint64) error
	ShareToken(ctx context.Context, to []string, tokenID uint64) error
	BurnToken(ctx context.Context, tokenID, limitSharedWith uint64) error

	GetSupply(ctx context.Context) (uint64, error)
	GetSharedWithSupply(ctx context.Context) (uint64, error)

	// Reencrypt asks the contract to re-encrypt the token's file key under
	// publicKey. The returned ciphertexts are opaque to this client.
	Reencrypt(ctx context.Context, tokenID uint64, publicKey []byte, signature string) ([]string, error)

	RevokeTokenAccess(ctx context.Context, tokenID uint64, userAddress string) error
	RevokeAllSharedAccess(ctx context.Context, tokenID, limitSharedWith uint64) error

	// MaxUsersToRemove reads the contract's MAX_USERS_TO_REMOVE constant.
	MaxUsersToRemove(ctx context.Context) (uint64, error)
}

// HealthChecker is implemented by clients that can probe their RPC endpoint.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

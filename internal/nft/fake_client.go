package nft

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

const fakeMaxUsersToRemove = 50

// FakeClient is an in-memory stand-in for the on-chain contract, used in
// tests and when the service runs without signing credentials.
type FakeClient struct {
	mu     sync.Mutex
	nextID uint64
	tokens map[uint64]TokenDetails
	shared map[uint64]map[string]struct{}
}

func NewFakeClient() *FakeClient {
	return &FakeClient{
		tokens: make(map[uint64]TokenDetails),
		shared: make(map[uint64]map[string]struct{}),
	}
}

func (f *FakeClient) Account() string {
	sum := sha256.Sum256([]byte("filevault-fake-signer"))
	return "0x" + hex.EncodeToString(sum[:20])
}

func (f *FakeClient) MintToken(_ context.Context, cidHash string, _ [][]byte) (TokenDetails, error) {
	if cidHash == "" {
		return TokenDetails{}, &ValidationError{Field: "cidHash", Reason: "must not be empty"}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	td := TokenDetails{TokenID: f.nextID, CIDHash: cidHash}
	f.tokens[f.nextID] = td
	f.nextID++
	return td, nil
}

func (f *FakeClient) GetTokensInRange(_ context.Context, start, count uint64) ([]TokenDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tokens := []TokenDetails{}
	for id := start; id < start+count; id++ {
		if td, ok := f.tokens[id]; ok {
			tokens = append(tokens, td)
		}
	}
	return tokens, nil
}

func (f *FakeClient) GetSharedTokensInRange(_ context.Context, start, count uint64) ([]TokenDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tokens := []TokenDetails{}
	for id := start; id < start+count; id++ {
		if len(f.shared[id]) > 0 {
			tokens = append(tokens, f.tokens[id])
		}
	}
	return tokens, nil
}

func (f *FakeClient) GetSharedWithAddresses(_ context.Context, tokenID uint64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	addrs := []string{}
	for addr := range f.shared[tokenID] {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	return addrs, nil
}

func (f *FakeClient) TransferToken(_ context.Context, to string, tokenID uint64) error {
	if !common.IsHexAddress(to) {
		return &ValidationError{Field: "to", Reason: "not a valid address"}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tokens[tokenID]; !ok {
		return &RevertError{Op: "transferToken", TxHash: fakeTxHash(tokenID)}
	}
	return nil
}

func (f *FakeClient) ShareToken(_ context.Context, to []string, tokenID uint64) error {
	if len(to) == 0 {
		return &ValidationError{Field: "to", Reason: "recipient list must not be empty"}
	}
	for _, addr := range to {
		if !common.IsHexAddress(addr) {
			return &ValidationError{Field: "to", Reason: "not a valid address: " + addr}
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tokens[tokenID]; !ok {
		return &RevertError{Op: "shareToken", TxHash: fakeTxHash(tokenID)}
	}
	set := f.shared[tokenID]
	if set == nil {
		set = make(map[string]struct{})
		f.shared[tokenID] = set
	}
	for _, addr := range to {
		set[common.HexToAddress(addr).Hex()] = struct{}{}
	}
	return nil
}

func (f *FakeClient) BurnToken(_ context.Context, tokenID, _ uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tokens[tokenID]; !ok {
		return &RevertError{Op: "burnToken", TxHash: fakeTxHash(tokenID)}
	}
	delete(f.tokens, tokenID)
	delete(f.shared, tokenID)
	return nil
}

func (f *FakeClient) GetSupply(_ context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint64(len(f.tokens)), nil
}

func (f *FakeClient) GetSharedWithSupply(_ context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total uint64
	for _, set := range f.shared {
		total += uint64(len(set))
	}
	return total, nil
}

func (f *FakeClient) Reencrypt(_ context.Context, tokenID uint64, publicKey []byte, signature string) ([]string, error) {
	if len(publicKey) == 0 {
		return nil, &ValidationError{Field: "publicKey", Reason: "must not be empty"}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tokens[tokenID]; !ok {
		return []string{}, nil
	}
	sum := sha256.Sum256(append(publicKey, []byte(signature)...))
	return []string{hex.EncodeToString(sum[:])}, nil
}

func (f *FakeClient) RevokeTokenAccess(_ context.Context, tokenID uint64, userAddress string) error {
	if !common.IsHexAddress(userAddress) {
		return &ValidationError{Field: "userAddress", Reason: "not a valid address"}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.shared[tokenID], common.HexToAddress(userAddress).Hex())
	return nil
}

func (f *FakeClient) RevokeAllSharedAccess(_ context.Context, tokenID, limitSharedWith uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	set := f.shared[tokenID]
	if uint64(len(set)) <= limitSharedWith {
		delete(f.shared, tokenID)
	}
	return nil
}

func (f *FakeClient) MaxUsersToRemove(_ context.Context) (uint64, error) {
	return fakeMaxUsersToRemove, nil
}

func fakeTxHash(tokenID uint64) string {
	sum := sha256.Sum256([]byte{byte(tokenID)})
	return "0x" + hex.EncodeToString(sum[:])
}

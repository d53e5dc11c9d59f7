package nft

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"filevault/internal/contracts"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// mintEventName is the event carrying the contract-assigned token id; the
// caller cannot know the id in advance, it is determined by on-chain state
// at execution time.
const mintEventName = "TokenMinted"

// receiptPollInterval is how often a pending transaction is checked for
// inclusion. Confirmation waits have no deadline of their own; cancellation
// comes from the caller's context.
const receiptPollInterval = 2 * time.Second

// EthClient talks to a deployed EncryptedFileNFT contract. All fields are
// set once at construction and only read afterward, so the client is safe
// for concurrent use; each call owns its transaction and confirmation wait.
type EthClient struct {
	client    *ethclient.Client
	contract  *bind.BoundContract
	abi       abi.ABI
	address   common.Address
	chainID   *big.Int
	account   common.Address
	transacts *bind.TransactOpts
}

type EthClientConfig struct {
	RPCURL          string
	PrivateKeyHex   string
	ContractAddress string
}

// NewEthClient dials the RPC endpoint, derives a signer from the configured
// key, and binds the contract handle. Construction is all-or-nothing: on any
// failure no partial client exists.
func NewEthClient(ctx context.Context, cfg EthClientConfig) (*EthClient, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}
	if cfg.ContractAddress == "" {
		return nil, fmt.Errorf("contract address is required")
	}
	if cfg.PrivateKeyHex == "" {
		return nil, fmt.Errorf("private key is required for signing transactions")
	}

	cli, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	parsedABI, err := abi.JSON(strings.NewReader(contracts.EncryptedFileNFTABI))
	if err != nil {
		return nil, fmt.Errorf("parse abi: %w", err)
	}

	pk, err := parsePrivateKey(cfg.PrivateKeyHex)
	if err != nil {
		return nil, err
	}

	chainID, err := cli.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch chain id: %w", err)
	}

	txOpts, err := bind.NewKeyedTransactorWithChainID(pk, chainID)
	if err != nil {
		return nil, fmt.Errorf("transactor: %w", err)
	}
	txOpts.GasLimit = 0 // let node estimate
	txOpts.GasPrice = nil
	txOpts.Nonce = nil

	address := common.HexToAddress(cfg.ContractAddress)
	bound := bind.NewBoundContract(address, parsedABI, cli, cli, cli)

	return &EthClient{
		client:    cli,
		contract:  bound,
		abi:       parsedABI,
		address:   address,
		chainID:   chainID,
		account:   crypto.PubkeyToAddress(pk.PublicKey),
		transacts: txOpts,
	}, nil
}

func parsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	hexKey = strings.TrimPrefix(hexKey, "0x")
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return key, nil
}

func (c *EthClient) Account() string {
	if c == nil {
		return ""
	}
	return c.account.Hex()
}

func (c *EthClient) MintToken(ctx context.Context, cidHash string, encryptedFileKey [][]byte) (TokenDetails, error) {
	if err := c.guard(); err != nil {
		return TokenDetails{}, err
	}
	if strings.TrimSpace(cidHash) == "" {
		return TokenDetails{}, &ValidationError{Field: "cidHash", Reason: "must not be empty"}
	}

	receipt, err := c.transact(ctx, "mintToken", cidHash, encryptedFileKey)
	if err != nil {
		return TokenDetails{}, err
	}

	// The assigned token id only exists in the TokenMinted log; a receipt
	// without one cannot yield TokenDetails.
	event, err := eventFromLogs(c.abi, receipt.Logs, mintEventName)
	if err != nil {
		return TokenDetails{}, fmt.Errorf("mintToken: %w", err)
	}
	tokenID, ok := event["tokenId"].(*big.Int)
	if !ok {
		return TokenDetails{}, fmt.Errorf("mintToken: %s event missing tokenId", mintEventName)
	}

	return TokenDetails{TokenID: tokenID.Uint64(), CIDHash: cidHash}, nil
}

func (c *EthClient) GetTokensInRange(ctx context.Context, start, count uint64) ([]TokenDetails, error) {
	return c.tokenRange(ctx, "getTokensInRange", start, count)
}

func (c *EthClient) GetSharedTokensInRange(ctx context.Context, start, count uint64) ([]TokenDetails, error) {
	return c.tokenRange(ctx, "getSharedTokensInRange", start, count)
}

// tokenRange zips the contract's parallel id/hash arrays; matching lengths
// are a precondition guaranteed by the contract.
func (c *EthClient) tokenRange(ctx context.Context, method string, start, count uint64) ([]TokenDetails, error) {
	if err := c.guard(); err != nil {
		return nil, err
	}

	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx, From: c.account}, &out, method,
		new(big.Int).SetUint64(start), new(big.Int).SetUint64(count))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	ids := out[0].([]*big.Int)
	hashes := out[1].([]string)
	return zipTokenDetails(ids, hashes), nil
}

func zipTokenDetails(ids []*big.Int, hashes []string) []TokenDetails {
	tokens := make([]TokenDetails, 0, len(ids))
	for i, id := range ids {
		tokens = append(tokens, TokenDetails{TokenID: id.Uint64(), CIDHash: hashes[i]})
	}
	return tokens
}

func (c *EthClient) GetSharedWithAddresses(ctx context.Context, tokenID uint64) ([]string, error) {
	if err := c.guard(); err != nil {
		return nil, err
	}

	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx, From: c.account}, &out,
		"getSharedWithAddresses", new(big.Int).SetUint64(tokenID))
	if err != nil {
		return nil, fmt.Errorf("getSharedWithAddresses: %w", err)
	}

	raw := out[0].([]common.Address)
	addrs := make([]string, 0, len(raw))
	for _, a := range raw {
		addrs = append(addrs, a.Hex())
	}
	return addrs, nil
}

func (c *EthClient) TransferToken(ctx context.Context, to string, tokenID uint64) error {
	if err := c.guard(); err != nil {
		return err
	}
	if !common.IsHexAddress(to) {
		return &ValidationError{Field: "to", Reason: "not a valid address"}
	}

	_, err := c.transact(ctx, "transferToken", common.HexToAddress(to), new(big.Int).SetUint64(tokenID))
	return err
}

func (c *EthClient) ShareToken(ctx context.Context, to []string, tokenID uint64) error {
	if err := c.guard(); err != nil {
		return err
	}
	if len(to) == 0 {
		return &ValidationError{Field: "to", Reason: "recipient list must not be empty"}
	}
	recipients := make([]common.Address, 0, len(to))
	for _, addr := range to {
		if !common.IsHexAddress(addr) {
			return &ValidationError{Field: "to", Reason: "not a valid address: " + addr}
		}
		recipients = append(recipients, common.HexToAddress(addr))
	}

	_, err := c.transact(ctx, "shareToken", recipients, new(big.Int).SetUint64(tokenID))
	return err
}

func (c *EthClient) BurnToken(ctx context.Context, tokenID, limitSharedWith uint64) error {
	if err := c.guard(); err != nil {
		return err
	}
	_, err := c.transact(ctx, "burnToken",
		new(big.Int).SetUint64(tokenID), new(big.Int).SetUint64(limitSharedWith))
	return err
}

func (c *EthClient) GetSupply(ctx context.Context) (uint64, error) {
	return c.readUint(ctx, "getSupply")
}

func (c *EthClient) GetSharedWithSupply(ctx context.Context) (uint64, error) {
	return c.readUint(ctx, "getSharedWithSupply")
}

func (c *EthClient) MaxUsersToRemove(ctx context.Context) (uint64, error) {
	return c.readUint(ctx, "MAX_USERS_TO_REMOVE")
}

func (c *EthClient) readUint(ctx context.Context, method string) (uint64, error) {
	if err := c.guard(); err != nil {
		return 0, err
	}

	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx, From: c.account}, &out, method)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", method, err)
	}
	return out[0].(*big.Int).Uint64(), nil
}

func (c *EthClient) Reencrypt(ctx context.Context, tokenID uint64, publicKey []byte, signature string) ([]string, error) {
	if err := c.guard(); err != nil {
		return nil, err
	}
	if len(publicKey) == 0 {
		return nil, &ValidationError{Field: "publicKey", Reason: "must not be empty"}
	}

	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx, From: c.account}, &out,
		"reencrypt", new(big.Int).SetUint64(tokenID), publicKey, signature)
	if err != nil {
		return nil, fmt.Errorf("reencrypt: %w", err)
	}
	return out[0].([]string), nil
}

func (c *EthClient) RevokeTokenAccess(ctx context.Context, tokenID uint64, userAddress string) error {
	if err := c.guard(); err != nil {
		return err
	}
	if !common.IsHexAddress(userAddress) {
		return &ValidationError{Field: "userAddress", Reason: "not a valid address"}
	}

	_, err := c.transact(ctx, "revokeTokenAccess",
		new(big.Int).SetUint64(tokenID), common.HexToAddress(userAddress))
	return err
}

func (c *EthClient) RevokeAllSharedAccess(ctx context.Context, tokenID, limitSharedWith uint64) error {
	if err := c.guard(); err != nil {
		return err
	}
	_, err := c.transact(ctx, "revokeAllSharedAccess",
		new(big.Int).SetUint64(tokenID), new(big.Int).SetUint64(limitSharedWith))
	return err
}

// Ping checks the RPC endpoint is reachable.
func (c *EthClient) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return ErrNotConnected
	}
	_, err := c.client.BlockNumber(ctx)
	return err
}

func (c *EthClient) guard() error {
	if c == nil || c.contract == nil {
		return ErrNotConnected
	}
	return nil
}

// transact submits a state-changing call and waits for inclusion. An
// included-but-reverted transaction is surfaced as a RevertError.
func (c *EthClient) transact(ctx context.Context, method string, args ...interface{}) (*types.Receipt, error) {
	opts := *c.transacts
	opts.Context = ctx

	tx, err := c.contract.Transact(&opts, method, args...)
	if err != nil {
		return nil, fmt.Errorf("%s tx: %w", method, err)
	}
	log.Printf("%s submitted tx=%s", method, tx.Hash().Hex())

	receipt, err := c.waitForReceipt(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("%s confirmation: %w", method, err)
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return nil, &RevertError{Op: method, TxHash: tx.Hash().Hex()}
	}
	return receipt, nil
}

// waitForReceipt polls until the transaction is mined or the context is
// cancelled.
func (c *EthClient) waitForReceipt(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.client.TransactionReceipt(ctx, tx.Hash())
		if receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Package contracts holds the ABI for the deployed EncryptedFileNFT contract.
// Regenerate from the Solidity artifact when the contract interface changes.
package contracts

// EncryptedFileNFTABI is the ABI of the EncryptedFileNFT contract.
const EncryptedFileNFTABI = `[
	{
		"inputs": [
			{"name": "cidHash", "type": "string"},
			{"name": "encryptedFileKey", "type": "bytes[]"}
		],
		"name": "mintToken",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "start", "type": "uint256"},
			{"name": "count", "type": "uint256"}
		],
		"name": "getTokensInRange",
		"outputs": [
			{"name": "tokenIds", "type": "uint256[]"},
			{"name": "cidHashes", "type": "string[]"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "start", "type": "uint256"},
			{"name": "count", "type": "uint256"}
		],
		"name": "getSharedTokensInRange",
		"outputs": [
			{"name": "tokenIds", "type": "uint256[]"},
			{"name": "cidHashes", "type": "string[]"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"name": "tokenId", "type": "uint256"}],
		"name": "getSharedWithAddresses",
		"outputs": [{"name": "", "type": "address[]"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "to", "type": "address"},
			{"name": "tokenId", "type": "uint256"}
		],
		"name": "transferToken",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "to", "type": "address[]"},
			{"name": "tokenId", "type": "uint256"}
		],
		"name": "shareToken",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "tokenId", "type": "uint256"},
			{"name": "limitNumberOfSharedWith", "type": "uint256"}
		],
		"name": "burnToken",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getSupply",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getSharedWithSupply",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "tokenId", "type": "uint256"},
			{"name": "publicKey", "type": "bytes"},
			{"name": "signature", "type": "string"}
		],
		"name": "reencrypt",
		"outputs": [{"name": "", "type": "string[]"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "tokenId", "type": "uint256"},
			{"name": "user", "type": "address"}
		],
		"name": "revokeTokenAccess",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "tokenId", "type": "uint256"},
			{"name": "limitNumberOfSharedWith", "type": "uint256"}
		],
		"name": "revokeAllSharedAccess",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "MAX_USERS_TO_REMOVE",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "tokenId", "type": "uint256"},
			{"indexed": true, "name": "owner", "type": "address"},
			{"indexed": false, "name": "cidHash", "type": "string"}
		],
		"name": "TokenMinted",
		"type": "event"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "tokenId", "type": "uint256"},
			{"indexed": true, "name": "owner", "type": "address"},
			{"indexed": false, "name": "sharedWith", "type": "address[]"}
		],
		"name": "TokenShared",
		"type": "event"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "tokenId", "type": "uint256"},
			{"indexed": true, "name": "user", "type": "address"}
		],
		"name": "AccessRevoked",
		"type": "event"
	}
]`

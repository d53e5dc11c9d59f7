package nft

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/core/types"
)

// eventFromLogs scans receipt logs in order and returns the decoded
// arguments of the first event named name. Logs emitted by other contracts,
// anonymous logs, and logs that fail to decode are skipped, never raised.
// Returns ErrEventNotFound when no log matches.
func eventFromLogs(contractABI abi.ABI, logs []*types.Log, name string) (map[string]interface{}, error) {
	for _, lg := range logs {
		if len(lg.Topics) == 0 {
			continue
		}
		event, err := contractABI.EventByID(lg.Topics[0])
		if err != nil || event.Name != name {
			continue
		}

		args := make(map[string]interface{})
		if err := contractABI.UnpackIntoMap(args, event.Name, lg.Data); err != nil {
			continue
		}

		var indexed abi.Arguments
		for _, input := range event.Inputs {
			if input.Indexed {
				indexed = append(indexed, input)
			}
		}
		if err := abi.ParseTopicsIntoMap(args, indexed, lg.Topics[1:]); err != nil {
			continue
		}

		return args, nil
	}
	return nil, ErrEventNotFound
}

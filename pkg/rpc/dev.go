package rpc

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/stable-net/stableweb/pkg/events"
	"github.com/stable-net/stableweb/pkg/ledger"
	"github.com/stable-net/stableweb/pkg/signer"
)

// dev_operators returns the bootstrapped role holders.
func (s *Server) devOperators() (interface{}, *ErrorObject) {
	oracles := s.web.Oracles()
	oracleHex := make([]string, len(oracles))
	for i, addr := range oracles {
		oracleHex[i] = addr.Hex()
	}
	return map[string]interface{}{
		"admin":   s.web.Admin().Hex(),
		"relayer": s.web.Relayer().Hex(),
		"oracles": oracleHex,
		"bridge":  s.web.Bridge().Hex(),
		"pauser":  s.web.Pauser().Hex(),
	}, nil
}

// dev_signMintApproval signs a mint approval with a node-held key.
func (s *Server) devSignMintApproval(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 3, "[chainId, signer, approval]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	signerAddr, err := decodeAddress(args[1])
	if err != nil {
		return nil, invalidParams("Invalid signer address")
	}
	approval, err := decodeMintApproval(args[2])
	if err != nil {
		return nil, invalidParams("Invalid approval payload")
	}

	account, ok := s.web.Account(signerAddr)
	if !ok {
		return nil, invalidParams("Account not found")
	}

	sig, err := signer.New(account.PrivateKey, dep.Token.Domain()).SignMintApproval(approval)
	if err != nil {
		return nil, internalError(err)
	}
	return hexutil.Encode(sig), nil
}

// dev_signRedeemFinalize signs a redeem finalization with a node-held
// key.
func (s *Server) devSignRedeemFinalize(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 3, "[chainId, signer, finalization]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	signerAddr, err := decodeAddress(args[1])
	if err != nil {
		return nil, invalidParams("Invalid signer address")
	}
	fin, err := decodeRedeemFinalize(args[2])
	if err != nil {
		return nil, invalidParams("Invalid finalization payload")
	}

	account, ok := s.web.Account(signerAddr)
	if !ok {
		return nil, invalidParams("Account not found")
	}

	sig, err := signer.New(account.PrivateKey, dep.Token.Domain()).SignRedeemFinalize(fin)
	if err != nil {
		return nil, internalError(err)
	}
	return hexutil.Encode(sig), nil
}

// dev_newRequestId returns a fresh request id.
func (s *Server) devNewRequestID() (interface{}, *ErrorObject) {
	return signer.NewRequestID().Hex(), nil
}

// dev_timestamp returns a chain's current timestamp.
func (s *Server) devTimestamp(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 1, "[chainId]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	return hexutil.EncodeUint64(dep.Chain.Now()), nil
}

// dev_increaseTime advances a chain's clock and returns the new
// timestamp.
func (s *Server) devIncreaseTime(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 2, "[chainId, seconds]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	seconds, err := decodeUint64(args[1])
	if err != nil {
		return nil, invalidParams("Invalid seconds")
	}
	return hexutil.EncodeUint64(dep.Chain.IncreaseTime(seconds)), nil
}

// dev_setTimestamp pins a chain's clock.
func (s *Server) devSetTimestamp(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 2, "[chainId, timestamp]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	ts, err := decodeUint64(args[1])
	if err != nil {
		return nil, invalidParams("Invalid timestamp")
	}
	dep.Chain.SetTimestamp(ts)
	return true, nil
}

// dev_dumpLedger exports a chain's ledger.
func (s *Server) devDumpLedger(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 1, "[chainId]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	return dep.Token.Ledger().Dump(), nil
}

// dev_loadLedger replaces a chain's ledger with a dump.
func (s *Server) devLoadLedger(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 2, "[chainId, dump]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	var dump ledger.Dump
	if err := json.Unmarshal(args[1], &dump); err != nil {
		return nil, invalidParams("Invalid ledger dump")
	}

	if err := dep.Token.Ledger().Load(&dump); err != nil {
		return nil, rejection(err)
	}
	return true, nil
}

// dev_snapshot snapshots a chain's ledger value state and returns the
// snapshot id. Request-tracking sets are not part of the snapshot.
func (s *Server) devSnapshot(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 1, "[chainId]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	id := dep.Token.Ledger().Snapshot()
	return hexutil.EncodeUint64(uint64(id)), nil
}

// dev_revert restores a ledger snapshot. Unknown ids are ignored.
func (s *Server) devRevert(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 2, "[chainId, snapshotId]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	id, err := decodeUint64(args[1])
	if err != nil {
		return nil, invalidParams("Invalid snapshot id")
	}
	dep.Token.Ledger().RevertToSnapshot(int(id))
	return true, nil
}

// events_query returns journal records, optionally narrowed by a filter
// object {from, kind, limit}.
func (s *Server) eventsQuery(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 1, "[chainId, filter?]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}

	var filter eventFilterJSON
	if len(args) > 1 {
		if err := json.Unmarshal(args[1], &filter); err != nil {
			return nil, invalidParams("Invalid filter")
		}
	}
	return dep.Journal.Query(filter.From, events.Kind(filter.Kind), filter.Limit), nil
}

// events_count returns the number of journal records.
func (s *Server) eventsCount(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 1, "[chainId]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	return hexutil.EncodeUint64(uint64(dep.Journal.Len())), nil
}

// events_latest returns the most recent journal record, or null when
// the journal is empty.
func (s *Server) eventsLatest(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 1, "[chainId]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	last, ok := dep.Journal.Last()
	if !ok {
		return nil, nil
	}
	return last, nil
}

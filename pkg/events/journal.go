// Package events provides the append-only audit journal recorded by the
// platform's contract instances.
package events

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/event"
)

// Kind identifies the type of a journal record.
type Kind string

// Journal record kinds.
const (
	KindAccountFrozen      Kind = "AccountFrozen"
	KindAccountUnfrozen    Kind = "AccountUnfrozen"
	KindFrozenWiped        Kind = "FrozenWiped"
	KindPaused             Kind = "Paused"
	KindUnpaused           Kind = "Unpaused"
	KindTransfer           Kind = "Transfer"
	KindApproval           Kind = "Approval"
	KindMintWithApproval   Kind = "MintWithApproval"
	KindRedeemRequested    Kind = "RedeemRequested"
	KindRedeemFinalized    Kind = "RedeemFinalized"
	KindRedeemCancelled    Kind = "RedeemCancelled"
	KindCrossChainSent     Kind = "CrossChainSent"
	KindCrossChainReceived Kind = "CrossChainReceived"
	KindRelayerUpdated     Kind = "RelayerUpdated"
	KindRoleGranted        Kind = "RoleGranted"
	KindRoleRevoked        Kind = "RoleRevoked"
	KindCapUpdated         Kind = "CapUpdated"
	KindKYCApproved        Kind = "KYCApproved"
	KindKYCRevoked         Kind = "KYCRevoked"
)

// Event is a single audit record. Fields not relevant to a kind stay at
// their zero value; every record carries enough to replay the transition
// it describes.
type Event struct {
	Seq          uint64         `json:"seq"`
	Kind         Kind           `json:"kind"`
	Time         uint64         `json:"time"`
	Chain        uint64         `json:"chain"`
	Account      common.Address `json:"account"`
	Counterparty common.Address `json:"counterparty"`
	Amount       *hexutil.Big   `json:"amount,omitempty"`
	RequestID    common.Hash    `json:"requestId"`
	Nonce        uint64         `json:"nonce,omitempty"`
	SourceChain  uint64         `json:"sourceChain,omitempty"`
	TargetChain  uint64         `json:"targetChain,omitempty"`
	Role         string         `json:"role,omitempty"`
	BankRef      string         `json:"bankRef,omitempty"`
}

// Journal is an append-only event log with live subscription support.
// One journal is shared by all contract instances on a chain.
type Journal struct {
	chain   uint64
	records []Event
	nextSeq uint64
	feed    event.Feed

	mu sync.RWMutex
}

// NewJournal creates an empty journal for the given chain.
func NewJournal(chain uint64) *Journal {
	return &Journal{
		chain:   chain,
		records: make([]Event, 0),
	}
}

// Chain returns the chain identifier this journal records for.
func (j *Journal) Chain() uint64 {
	return j.chain
}

// Append assigns the next sequence number, records the event and fans it
// out to subscribers. Subscribers must keep their channels serviced; a
// full channel blocks the append.
func (j *Journal) Append(ev Event) Event {
	j.mu.Lock()
	ev.Seq = j.nextSeq
	ev.Chain = j.chain
	j.nextSeq++
	j.records = append(j.records, ev)
	j.mu.Unlock()

	j.feed.Send(ev)
	return ev
}

// Len returns the number of recorded events.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return len(j.records)
}

// Last returns the most recent record, or false if the journal is empty.
func (j *Journal) Last() (Event, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if len(j.records) == 0 {
		return Event{}, false
	}
	return j.records[len(j.records)-1], true
}

// Query returns up to limit records with seq >= from, oldest first.
// An empty kind matches all kinds; limit <= 0 means no limit.
func (j *Journal) Query(from uint64, kind Kind, limit int) []Event {
	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make([]Event, 0)
	for _, ev := range j.records {
		if ev.Seq < from {
			continue
		}
		if kind != "" && ev.Kind != kind {
			continue
		}
		out = append(out, ev)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Subscribe registers a channel to receive every event appended after the
// call. The subscription ends when Unsubscribe is called.
func (j *Journal) Subscribe(ch chan<- Event) event.Subscription {
	return j.feed.Subscribe(ch)
}

package events

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJournal(t *testing.T) {
	journal := NewJournal(20)
	require.NotNil(t, journal)
	assert.Equal(t, uint64(20), journal.Chain())
	assert.Equal(t, 0, journal.Len())
}

func TestJournal_Append_AssignsSequence(t *testing.T) {
	journal := NewJournal(20)
	addr := common.HexToAddress("0x1111111111111111111111111111111111111111")

	// Append two records
	first := journal.Append(Event{Kind: KindPaused, Account: addr})
	second := journal.Append(Event{Kind: KindUnpaused, Account: addr})

	assert.Equal(t, uint64(0), first.Seq)
	assert.Equal(t, uint64(1), second.Seq)
	assert.Equal(t, uint64(20), first.Chain)
	assert.Equal(t, 2, journal.Len())
}

func TestJournal_Last(t *testing.T) {
	journal := NewJournal(20)

	// Empty journal has no last record
	_, ok := journal.Last()
	assert.False(t, ok)

	journal.Append(Event{Kind: KindPaused})
	journal.Append(Event{Kind: KindUnpaused})

	last, ok := journal.Last()
	require.True(t, ok)
	assert.Equal(t, KindUnpaused, last.Kind)
}

func TestJournal_Query_FiltersByKind(t *testing.T) {
	journal := NewJournal(20)
	addr := common.HexToAddress("0x1111111111111111111111111111111111111111")

	journal.Append(Event{Kind: KindTransfer, Account: addr})
	journal.Append(Event{Kind: KindMintWithApproval, Account: addr})
	journal.Append(Event{Kind: KindTransfer, Account: addr})

	transfers := journal.Query(0, KindTransfer, 0)
	require.Len(t, transfers, 2)
	assert.Equal(t, uint64(0), transfers[0].Seq)
	assert.Equal(t, uint64(2), transfers[1].Seq)

	// Empty kind matches everything
	all := journal.Query(0, "", 0)
	assert.Len(t, all, 3)
}

func TestJournal_Query_FromAndLimit(t *testing.T) {
	journal := NewJournal(20)

	for i := 0; i < 5; i++ {
		journal.Append(Event{Kind: KindTransfer})
	}

	// Skip the first two records
	tail := journal.Query(2, "", 0)
	require.Len(t, tail, 3)
	assert.Equal(t, uint64(2), tail[0].Seq)

	// Limit caps the result
	limited := journal.Query(0, "", 2)
	assert.Len(t, limited, 2)
}

func TestJournal_Subscribe_ReceivesAppends(t *testing.T) {
	journal := NewJournal(20)
	ch := make(chan Event, 4)

	sub := journal.Subscribe(ch)
	defer sub.Unsubscribe()

	amount := (*hexutil.Big)(big.NewInt(1000))
	journal.Append(Event{Kind: KindMintWithApproval, Amount: amount})

	got := <-ch
	assert.Equal(t, KindMintWithApproval, got.Kind)
	assert.Equal(t, amount, got.Amount)
	assert.Equal(t, uint64(20), got.Chain)
}

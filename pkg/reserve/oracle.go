// Package reserve implements the attested-reserve cap oracle that bounds
// total stablecoin supply.
package reserve

import (
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/stable-net/stableweb/pkg/events"
)

// Oracle errors.
var (
	ErrUnauthorized = errors.New("unauthorized: caller is not the oracle owner")
	ErrInvalidCap   = errors.New("invalid cap value")
)

// Clock supplies the timestamp recorded on oracle events.
type Clock interface {
	Now() uint64
}

// Oracle publishes the maximum total supply backed by attested off-chain
// reserves. Token instances query it synchronously on every mint-class
// credit; readings are never cached.
type Oracle struct {
	owner   common.Address
	cap     *big.Int
	journal *events.Journal
	clock   Clock

	mu sync.RWMutex
}

// NewOracle creates an oracle owned by owner with an initial cap. The
// journal may be nil; a nil clock falls back to wall time.
func NewOracle(owner common.Address, initialCap *big.Int, journal *events.Journal, clock Clock) (*Oracle, error) {
	if initialCap == nil || initialCap.Sign() < 0 {
		return nil, ErrInvalidCap
	}
	return &Oracle{
		owner:   owner,
		cap:     new(big.Int).Set(initialCap),
		journal: journal,
		clock:   clock,
	}, nil
}

// Owner returns the oracle owner.
func (o *Oracle) Owner() common.Address {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.owner
}

// TransferOwner hands the oracle to a new owner.
func (o *Oracle) TransferOwner(caller, next common.Address) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if caller != o.owner {
		return ErrUnauthorized
	}
	o.owner = next
	return nil
}

// CurrentCap returns the supply ceiling currently attested.
func (o *Oracle) CurrentCap() *big.Int {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return new(big.Int).Set(o.cap)
}

// SetCap publishes a new supply ceiling. Lowering the cap below the
// current supply is allowed; it blocks further minting until supply
// falls back under the cap.
func (o *Oracle) SetCap(caller common.Address, cap *big.Int) error {
	if cap == nil || cap.Sign() < 0 {
		return ErrInvalidCap
	}

	o.mu.Lock()
	if caller != o.owner {
		o.mu.Unlock()
		return ErrUnauthorized
	}
	o.cap = new(big.Int).Set(cap)
	o.mu.Unlock()

	if o.journal != nil {
		o.journal.Append(events.Event{
			Kind:    events.KindCapUpdated,
			Time:    o.now(),
			Account: caller,
			Amount:  (*hexutil.Big)(new(big.Int).Set(cap)),
		})
	}
	return nil
}

func (o *Oracle) now() uint64 {
	if o.clock != nil {
		return o.clock.Now()
	}
	return uint64(time.Now().Unix())
}

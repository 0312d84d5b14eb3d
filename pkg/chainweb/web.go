package chainweb

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/stable-net/stableweb/pkg/config"
	"github.com/stable-net/stableweb/pkg/events"
	"github.com/stable-net/stableweb/pkg/kyc"
	"github.com/stable-net/stableweb/pkg/reserve"
	"github.com/stable-net/stableweb/pkg/roles"
	"github.com/stable-net/stableweb/pkg/signer"
	"github.com/stable-net/stableweb/pkg/token"
)

// Relay errors.
var (
	ErrUnknownChain    = errors.New("chain not deployed")
	ErrUnknownTransfer = errors.New("no outbound transfer under that correlation id")
)

// Fallback operator indexes into the derived accounts, used for role
// holders the config leaves unset.
const (
	idxAdmin = iota
	idxRelayer
	idxOracle
	idxBridge
	idxPauser
	minOperatorAccounts
)

// Deployment is the contract suite of one chain: its clock context,
// journal, collaborators and token instance.
type Deployment struct {
	Chain   *Chain
	Journal *events.Journal
	KYC     *kyc.Registry
	Reserve *reserve.Oracle
	Token   *token.Token
}

// Web is the deployed multi-chain platform. It is immutable after
// Deploy; all mutable state lives inside the per-chain deployments.
type Web struct {
	deployments map[uint64]*Deployment
	order       []uint64

	accounts []*signer.Account
	admin    common.Address
	relayer  common.Address
	oracles  []common.Address
	bridge   common.Address
	pauser   common.Address

	logger *zap.Logger
}

// Deploy instantiates the platform described by cfg: for every
// configured chain a journal, a KYC registry, a reserve-cap oracle and
// a token instance, wired together and bootstrapped with the configured
// role holders and KYC allow-list. Role addresses the config leaves
// zero fall back to accounts derived from the mnemonic, in index order
// admin, relayer, oracle, bridge, pauser.
func Deploy(cfg *config.Config, logger *zap.Logger) (*Web, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	accounts, err := signer.DeriveAccounts(cfg.Mnemonic, cfg.AccountCount)
	if err != nil {
		return nil, fmt.Errorf("failed to derive accounts: %w", err)
	}

	web := &Web{
		deployments: make(map[uint64]*Deployment),
		accounts:    accounts,
		logger:      logger,
	}
	if err := web.resolveOperators(cfg); err != nil {
		return nil, err
	}

	for _, chainCfg := range cfg.Chains {
		dep, err := web.deployChain(cfg, chainCfg)
		if err != nil {
			return nil, fmt.Errorf("chain %d: %w", chainCfg.ID, err)
		}
		web.deployments[chainCfg.ID] = dep
		web.order = append(web.order, chainCfg.ID)
	}

	return web, nil
}

// resolveOperators fills the role holders from the config, falling back
// to derived accounts for any left unset.
func (w *Web) resolveOperators(cfg *config.Config) error {
	needsFallback := cfg.Admin == (common.Address{}) || cfg.Relayer == (common.Address{}) ||
		len(cfg.Oracles) == 0 || cfg.Bridge == (common.Address{}) || cfg.Pauser == (common.Address{})
	if needsFallback && len(w.accounts) < minOperatorAccounts {
		return fmt.Errorf("accountCount %d is too small for default operator roles: derive at least %d accounts or set the role addresses explicitly",
			len(w.accounts), minOperatorAccounts)
	}

	w.admin = cfg.Admin
	if w.admin == (common.Address{}) {
		w.admin = w.accounts[idxAdmin].Address
	}
	w.relayer = cfg.Relayer
	if w.relayer == (common.Address{}) {
		w.relayer = w.accounts[idxRelayer].Address
	}
	w.oracles = append([]common.Address(nil), cfg.Oracles...)
	if len(w.oracles) == 0 {
		w.oracles = []common.Address{w.accounts[idxOracle].Address}
	}
	w.bridge = cfg.Bridge
	if w.bridge == (common.Address{}) {
		w.bridge = w.accounts[idxBridge].Address
	}
	w.pauser = cfg.Pauser
	if w.pauser == (common.Address{}) {
		w.pauser = w.accounts[idxPauser].Address
	}
	return nil
}

func (w *Web) deployChain(cfg *config.Config, chainCfg config.ChainConfig) (*Deployment, error) {
	chain := NewChain(chainCfg.ID)
	journal := events.NewJournal(chainCfg.ID)
	registry := kyc.NewRegistry(w.admin, journal, chain)

	initialCap := chainCfg.InitialCap
	if initialCap == nil {
		initialCap = new(big.Int).Set(config.DefaultInitialCap)
	}
	capOracle, err := reserve.NewOracle(w.admin, initialCap, journal, chain)
	if err != nil {
		return nil, err
	}

	contract := chainCfg.Contract
	if contract == (common.Address{}) {
		contract = crypto.CreateAddress(w.admin, chainCfg.ID)
	}

	tok, err := token.New(token.Config{
		Name:     cfg.Token.Name,
		Symbol:   cfg.Token.Symbol,
		Decimals: cfg.Token.Decimals,
		ChainID:  chainCfg.ID,
		Address:  contract,
		Admin:    w.admin,
		KYC:      registry,
		Reserve:  capOracle,
		Clock:    chain,
		Journal:  journal,
	})
	if err != nil {
		return nil, err
	}

	if err := w.bootstrapRoles(tok); err != nil {
		return nil, err
	}
	if err := w.bootstrapKYC(cfg, registry); err != nil {
		return nil, err
	}

	w.logger.Info("deployed chain",
		zap.Uint64("chain", chainCfg.ID),
		zap.String("token", contract.Hex()),
		zap.String("cap", initialCap.String()),
	)

	return &Deployment{
		Chain:   chain,
		Journal: journal,
		KYC:     registry,
		Reserve: capOracle,
		Token:   tok,
	}, nil
}

func (w *Web) bootstrapRoles(tok *token.Token) error {
	if err := tok.SetRelayer(w.admin, w.relayer); err != nil {
		return err
	}
	for _, oracle := range w.oracles {
		if err := tok.GrantRole(w.admin, roles.RoleOracle, oracle); err != nil {
			return err
		}
	}
	if err := tok.GrantRole(w.admin, roles.RoleBridge, w.bridge); err != nil {
		return err
	}
	return tok.GrantRole(w.admin, roles.RolePauser, w.pauser)
}

func (w *Web) bootstrapKYC(cfg *config.Config, registry *kyc.Registry) error {
	whitelist := cfg.Whitelist
	if len(whitelist) == 0 {
		whitelist = make([]common.Address, len(w.accounts))
		for i, acc := range w.accounts {
			whitelist[i] = acc.Address
		}
	}
	for _, addr := range whitelist {
		if err := registry.Approve(w.admin, addr); err != nil {
			return err
		}
	}
	return nil
}

// Deployment returns the deployment for one chain id.
func (w *Web) Deployment(chainID uint64) (*Deployment, bool) {
	dep, ok := w.deployments[chainID]
	return dep, ok
}

// Deployments returns every deployment in configured order.
func (w *Web) Deployments() []*Deployment {
	deps := make([]*Deployment, 0, len(w.order))
	for _, id := range w.order {
		deps = append(deps, w.deployments[id])
	}
	return deps
}

// ChainIDs returns the deployed chain ids in configured order.
func (w *Web) ChainIDs() []uint64 {
	return append([]uint64(nil), w.order...)
}

// Accounts returns the derived dev accounts.
func (w *Web) Accounts() []*signer.Account {
	return append([]*signer.Account(nil), w.accounts...)
}

// Account returns the derived account holding addr's key, if any.
func (w *Web) Account(addr common.Address) (*signer.Account, bool) {
	for _, acc := range w.accounts {
		if acc.Address == addr {
			return acc, true
		}
	}
	return nil, false
}

// Admin returns the platform admin address.
func (w *Web) Admin() common.Address { return w.admin }

// Relayer returns the bootstrapped relayer address.
func (w *Web) Relayer() common.Address { return w.relayer }

// Oracles returns the bootstrapped approval-oracle addresses.
func (w *Web) Oracles() []common.Address {
	return append([]common.Address(nil), w.oracles...)
}

// Bridge returns the bridge operator address.
func (w *Web) Bridge() common.Address { return w.bridge }

// Pauser returns the pauser address.
func (w *Web) Pauser() common.Address { return w.pauser }

// Relay moves one outbound transfer to its target chain: it reads the
// burn record on the source deployment and resumes it on the target
// under the platform's bridge identity. This stands in for a real
// bridge; admission on the target rests on the BRIDGE role alone, with
// no independent proof that the source burn happened.
func (w *Web) Relay(sourceChain uint64, correlationID common.Hash) error {
	source, ok := w.deployments[sourceChain]
	if !ok {
		return ErrUnknownChain
	}
	xfer, ok := source.Token.OutboundTransfer(correlationID)
	if !ok {
		return ErrUnknownTransfer
	}
	target, ok := w.deployments[xfer.TargetChain]
	if !ok {
		return ErrUnknownChain
	}

	if err := target.Token.ResumeCrossChain(w.bridge, *xfer); err != nil {
		return err
	}

	w.logger.Info("relayed cross-chain transfer",
		zap.Uint64("source", xfer.SourceChain),
		zap.Uint64("target", xfer.TargetChain),
		zap.String("correlationId", correlationID.Hex()),
		zap.String("recipient", xfer.Recipient.Hex()),
		zap.String("amount", xfer.Amount.String()),
	)
	return nil
}

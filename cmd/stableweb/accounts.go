package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"github.com/stable-net/stableweb/pkg/signer"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Print the accounts derived from the configured mnemonic",
	RunE:  printAccounts,
}

func printAccounts(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	accounts, err := signer.DeriveAccounts(cfg.Mnemonic, cfg.AccountCount)
	if err != nil {
		return err
	}

	fmt.Printf("Mnemonic: %s\n\n", cfg.Mnemonic)
	for i, acc := range accounts {
		fmt.Printf("(%d) %s\n", i, acc.Address.Hex())
		fmt.Printf("    %s\n", hexutil.Encode(crypto.FromECDSA(acc.PrivateKey)))
	}
	return nil
}

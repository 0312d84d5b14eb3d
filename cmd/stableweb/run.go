package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stable-net/stableweb/pkg/chainweb"
	"github.com/stable-net/stableweb/pkg/config"
	"github.com/stable-net/stableweb/pkg/logging"
	"github.com/stable-net/stableweb/pkg/rpc"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Deploy the configured chains and serve the JSON-RPC API",
	RunE:  runServer,
}

func init() {
	runCmd.Flags().StringVar(&flagHost, "host", "", "listen host (overrides config)")
	runCmd.Flags().IntVar(&flagPort, "port", 0, "listen port (overrides config)")
}

func runServer(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagHost != "" {
		cfg.Host = flagHost
	}
	if flagPort != 0 {
		cfg.Port = flagPort
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	web, err := chainweb.Deploy(cfg, logger)
	if err != nil {
		return err
	}
	printBanner(cfg, web)

	server := rpc.NewServer(web, logger)
	httpServer := &http.Server{
		Addr:    cfg.ServerAddr(),
		Handler: server.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("rpc server listening", zap.String("addr", cfg.ServerAddr()))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}

func printBanner(cfg *config.Config, web *chainweb.Web) {
	fmt.Println("stableweb - Multi-Chain Stablecoin Development Node")
	fmt.Printf("Version: %s\n\n", Version)

	fmt.Println("Available Accounts")
	fmt.Println("==================")
	for i, acc := range web.Accounts() {
		fmt.Printf("(%d) %s\n", i, acc.Address.Hex())
	}

	fmt.Println()
	fmt.Println("Operators")
	fmt.Println("=========")
	fmt.Printf("Admin:   %s\n", web.Admin().Hex())
	fmt.Printf("Relayer: %s\n", web.Relayer().Hex())
	for _, oracle := range web.Oracles() {
		fmt.Printf("Oracle:  %s\n", oracle.Hex())
	}
	fmt.Printf("Bridge:  %s\n", web.Bridge().Hex())
	fmt.Printf("Pauser:  %s\n", web.Pauser().Hex())

	fmt.Println()
	fmt.Println("Chains")
	fmt.Println("======")
	for _, dep := range web.Deployments() {
		fmt.Printf("(%d) %s (%s) at %s\n",
			dep.Chain.ID(), dep.Token.Name(), dep.Token.Symbol(), dep.Token.Address().Hex())
	}

	fmt.Printf("\nListening on http://%s\n\n", cfg.ServerAddr())
}

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"SignalDesk/internal/service/jupiter"
	"SignalDesk/internal/service/solana"
	"SignalDesk/internal/usecase"
	"SignalDesk/pkg/config"
	xhttp "SignalDesk/pkg/http"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	envFile := flag.String("env", ".env", "dotenv file")
	walletPath := flag.String("wallet", os.Getenv("SOLANA_WALLET"), "file holding the base58 secret key")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath, *envFile)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *walletPath == "" {
		log.Fatalf("a wallet is required: pass -wallet or set SOLANA_WALLET")
	}
	wallet, err := solana.LoadWalletFile(*walletPath)
	if err != nil {
		log.Fatalf("wallet load failed: %v", err)
	}

	jup := jupiter.New(
		jupiter.WithBaseURL(cfg.Jupiter.BaseURL),
		jupiter.WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(cfg.Jupiter.Timeout))),
	)
	rpc := solana.NewClient(
		solana.WithURL(cfg.Solana.RPCURL),
		solana.WithCommitment(cfg.Solana.Commitment),
		solana.WithPollInterval(cfg.Solana.PollInterval),
	)

	debouncer := usecase.NewQuoteDebouncer(jup, usecase.WithQuoteTimeout(cfg.Jupiter.Timeout))
	defer debouncer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Wallet %s\n", wallet.PublicKey())
	f := &flow{
		in:             bufio.NewScanner(os.Stdin),
		out:            os.Stdout,
		swapper:        jup,
		signer:         wallet,
		submitter:      rpc,
		debouncer:      debouncer,
		swapTimeout:    cfg.Jupiter.Timeout,
		confirmTimeout: cfg.Solana.ConfirmTimeout,
	}

	sig, err := f.run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
	fmt.Printf("Confirmed: https://solscan.io/tx/%s\n", sig)
}

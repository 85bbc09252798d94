package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"SignalDesk/internal/service/jupiter"
	"SignalDesk/internal/service/solana"
	"SignalDesk/internal/usecase"
)

var errAborted = errors.New("purchase cancelled")

type swapper interface {
	usecase.Quoter
	SwapTransaction(ctx context.Context, q *jupiter.Quote, userPublicKey string) (string, error)
}

type signer interface {
	PublicKey() solana.PublicKey
	SignTransaction(b64 string) (string, error)
}

type submitter interface {
	SendAndConfirm(ctx context.Context, signedB64 string) (string, error)
}

// flow walks one purchase: token, amount and slippage, a debounced quote, confirmation, then
// swap, sign and submit.
type flow struct {
	in  *bufio.Scanner
	out io.Writer

	swapper   swapper
	signer    signer
	submitter submitter
	debouncer *usecase.QuoteDebouncer

	swapTimeout    time.Duration
	confirmTimeout time.Duration
}

func (f *flow) prompt(label string) (string, error) {
	fmt.Fprint(f.out, label)
	if !f.in.Scan() {
		if err := f.in.Err(); err != nil {
			return "", err
		}
		return "", errAborted
	}
	return strings.TrimSpace(f.in.Text()), nil
}

func parseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 || v > usecase.MaxSolAmount {
		return 0, fmt.Errorf("amount must be a number between 0 and %g SOL", usecase.MaxSolAmount)
	}
	return v, nil
}

// parseSlippage accepts a preset number (1-based), a percentage, or nothing for 1%.
func parseSlippage(s string) (float64, error) {
	if s == "" {
		return 1, nil
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= len(usecase.SlippagePresets) {
		return usecase.SlippagePresets[n-1], nil
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil || v <= 0 || v > 50 {
		return 0, fmt.Errorf("slippage must be a preset or a percentage between 0 and 50")
	}
	return v, nil
}

func (f *flow) awaitQuote(ctx context.Context, p jupiter.QuoteParams) (*jupiter.Quote, error) {
	if !f.debouncer.Request(p) {
		return nil, fmt.Errorf("cannot quote %g SOL of %s", p.SolAmount, p.OutputMint)
	}
	fmt.Fprintln(f.out, "Fetching quote...")
	select {
	case <-ctx.Done():
		f.debouncer.Cancel()
		return nil, ctx.Err()
	case res, ok := <-f.debouncer.Results():
		if !ok {
			return nil, errAborted
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Quote, nil
	}
}

func (f *flow) showQuote(p jupiter.QuoteParams, q *jupiter.Quote) {
	fmt.Fprintf(f.out, "  You pay:       %g SOL\n", p.SolAmount)
	fmt.Fprintf(f.out, "  You receive:   %s\n", q.OutAmount)
	fmt.Fprintf(f.out, "  Price per SOL: %s\n", q.Price)
	fmt.Fprintf(f.out, "  Price impact:  %s%%\n", q.PriceImpactPct)
	fmt.Fprintf(f.out, "  Slippage:      %g%%\n", float64(q.SlippageBps)/100)
}

// run returns the confirmed transaction signature.
func (f *flow) run(ctx context.Context) (string, error) {
	token, err := f.prompt("Token address: ")
	if err != nil {
		return "", err
	}
	if !solana.IsPublicKey(token) {
		return "", fmt.Errorf("invalid token address %q", token)
	}

	raw, err := f.prompt(fmt.Sprintf("Amount in SOL (max %g): ", usecase.MaxSolAmount))
	if err != nil {
		return "", err
	}
	amount, err := parseAmount(raw)
	if err != nil {
		return "", err
	}

	raw, err = f.prompt("Slippage [1] 0.5%  [2] 1%  [3] 3%  or custom % (default 1%): ")
	if err != nil {
		return "", err
	}
	slippage, err := parseSlippage(raw)
	if err != nil {
		return "", err
	}

	p := jupiter.QuoteParams{OutputMint: token, SolAmount: amount, Slippage: slippage}
	var q *jupiter.Quote
	for {
		if q, err = f.awaitQuote(ctx, p); err != nil {
			return "", err
		}
		f.showQuote(p, q)

		answer, err := f.prompt("Buy? [y] confirm  [n] abort  or enter a new SOL amount: ")
		if err != nil {
			return "", err
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
		case "", "n", "no":
			return "", errAborted
		default:
			if p.SolAmount, err = parseAmount(answer); err != nil {
				return "", err
			}
			continue
		}
		break
	}

	swapCtx, cancel := context.WithTimeout(ctx, f.swapTimeout)
	tx, err := f.swapper.SwapTransaction(swapCtx, q, f.signer.PublicKey().String())
	cancel()
	if err != nil {
		return "", err
	}

	signed, err := f.signer.SignTransaction(tx)
	if err != nil {
		return "", err
	}

	fmt.Fprintln(f.out, "Submitting transaction...")
	confirmCtx, cancel := context.WithTimeout(ctx, f.confirmTimeout)
	defer cancel()
	return f.submitter.SendAndConfirm(confirmCtx, signed)
}

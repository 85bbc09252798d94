package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalDesk/internal/service/jupiter"
	"SignalDesk/internal/service/solana"
	"SignalDesk/internal/usecase"
)

const bonk = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"

type fakeSwapper struct {
	mu       sync.Mutex
	quoted   []jupiter.QuoteParams
	quoteErr error
	swapErr  error
	swapUser string
}

func (f *fakeSwapper) Quote(ctx context.Context, p jupiter.QuoteParams) (*jupiter.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quoted = append(f.quoted, p)
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return &jupiter.Quote{OutAmount: "1000.000000", Price: "2000.000000", SlippageBps: p.SlippageBps(), Raw: []byte(`{}`)}, nil
}

func (f *fakeSwapper) SwapTransaction(ctx context.Context, q *jupiter.Quote, user string) (string, error) {
	f.swapUser = user
	if f.swapErr != nil {
		return "", f.swapErr
	}
	return "dW5zaWduZWQ=", nil
}

type fakeSigner struct{ err error }

func (fakeSigner) PublicKey() solana.PublicKey { return solana.PublicKey{} }

func (s fakeSigner) SignTransaction(b64 string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "signed:" + b64, nil
}

type fakeSubmitter struct{ got string }

func (s *fakeSubmitter) SendAndConfirm(ctx context.Context, signed string) (string, error) {
	s.got = signed
	return "5sig", nil
}

func newFlow(input string, sw *fakeSwapper, sg fakeSigner, sub *fakeSubmitter) (*flow, *bytes.Buffer) {
	var out bytes.Buffer
	d := usecase.NewQuoteDebouncer(sw, usecase.WithDebounceDelay(time.Millisecond))
	return &flow{
		in:             bufio.NewScanner(strings.NewReader(input)),
		out:            &out,
		swapper:        sw,
		signer:         sg,
		submitter:      sub,
		debouncer:      d,
		swapTimeout:    time.Second,
		confirmTimeout: time.Second,
	}, &out
}

func TestFlowPurchase(t *testing.T) {
	sw := &fakeSwapper{}
	sub := &fakeSubmitter{}
	f, out := newFlow(bonk+"\n0.5\n3\ny\n", sw, fakeSigner{}, sub)
	defer f.debouncer.Close()

	sig, err := f.run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "5sig", sig)
	assert.Equal(t, "signed:dW5zaWduZWQ=", sub.got)
	assert.Equal(t, solana.PublicKey{}.String(), sw.swapUser)
	require.Len(t, sw.quoted, 1)
	assert.Equal(t, jupiter.QuoteParams{OutputMint: bonk, SolAmount: 0.5, Slippage: 3}, sw.quoted[0])
	assert.Contains(t, out.String(), "1000.000000")
	assert.Contains(t, out.String(), "Slippage:      3%")
}

func TestFlowRequotesOnNewAmount(t *testing.T) {
	sw := &fakeSwapper{}
	f, _ := newFlow(bonk+"\n1\n\n2.5\ny\n", sw, fakeSigner{}, &fakeSubmitter{})
	defer f.debouncer.Close()

	_, err := f.run(context.Background())
	require.NoError(t, err)

	require.Len(t, sw.quoted, 2)
	assert.Equal(t, 1.0, sw.quoted[0].SolAmount)
	assert.Equal(t, 2.5, sw.quoted[1].SolAmount)
	assert.Equal(t, 1.0, sw.quoted[1].Slippage)
}

func TestFlowFailures(t *testing.T) {
	boom := errors.New("boom")
	cases := []struct {
		name   string
		input  string
		swap   *fakeSwapper
		signer fakeSigner
		want   string
	}{
		{name: "bad token", input: "nope\n", want: "invalid token address"},
		{name: "amount too large", input: bonk + "\n101\n", want: "amount must be"},
		{name: "bad slippage", input: bonk + "\n1\n80\n", want: "slippage must be"},
		{name: "declined", input: bonk + "\n1\n2\nn\n", want: errAborted.Error()},
		{name: "eof", input: bonk + "\n", want: errAborted.Error()},
		{name: "quote error", input: bonk + "\n1\n2\n", swap: &fakeSwapper{quoteErr: boom}, want: "boom"},
		{name: "swap error", input: bonk + "\n1\n2\ny\n", swap: &fakeSwapper{swapErr: boom}, want: "boom"},
		{name: "sign error", input: bonk + "\n1\n2\ny\n", signer: fakeSigner{err: solana.ErrFeePayerMismatch}, want: solana.ErrFeePayerMismatch.Error()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sw := tc.swap
			if sw == nil {
				sw = &fakeSwapper{}
			}
			sub := &fakeSubmitter{}
			f, _ := newFlow(tc.input, sw, tc.signer, sub)
			defer f.debouncer.Close()

			_, err := f.run(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
			assert.Empty(t, sub.got)
		})
	}
}

func TestParseSlippage(t *testing.T) {
	for in, want := range map[string]float64{"": 1, "1": 0.5, "2": 1, "3": 3, "2.5%": 2.5, "10": 10} {
		got, err := parseSlippage(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"0", "-1", "51", "abc"} {
		_, err := parseSlippage(in)
		assert.Error(t, err, in)
	}
}

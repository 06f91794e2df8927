// Package wallet relays transactions to a wallet service for signing and
// broadcast.
package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/amirphl/vega-maker/internal/order"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrRejected = errors.New("wallet request rejected")

const (
	requestsPath = "/api/v2/requests"
	sendMethod   = "client.send_transaction"
	sendingMode  = "TYPE_SYNC"
	origin       = "VegaBot"
)

// Session holds the wallet endpoint and credentials. It is a value and is
// never mutated after construction.
type Session struct {
	URL       string
	Token     string
	PublicKey string
}

// Submitter accepts a serialized batch and relays it.
type Submitter interface {
	Submit(ctx context.Context, tx order.Transaction) error
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      string    `json:"id"`
}

type rpcParams struct {
	PublicKey   string            `json:"publicKey"`
	SendingMode string            `json:"sendingMode"`
	Transaction order.Transaction `json:"transaction"`
}

type Wallet struct {
	session    Session
	httpClient *http.Client
	newID      func() string
}

func New(session Session, timeout time.Duration) *Wallet {
	return &Wallet{
		session:    session,
		httpClient: &http.Client{Timeout: timeout},
		newID:      func() string { return uuid.NewString() },
	}
}

// Submit posts tx to the wallet. Network failures and non-2xx statuses are
// returned; the body of a successful response is not inspected.
func (w *Wallet) Submit(ctx context.Context, tx order.Transaction) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  sendMethod,
		Params: rpcParams{
			PublicKey:   w.session.PublicKey,
			SendingMode: sendingMode,
			Transaction: tx,
		},
		ID: w.newID(),
	})
	if err != nil {
		return fmt.Errorf("encode wallet request: %w", err)
	}

	url := strings.TrimRight(w.session.URL, "/") + requestsPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", origin)
	req.Header.Set("Authorization", "VWT "+w.session.Token)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send transaction: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// DryRun logs transactions instead of sending them.
type DryRun struct {
	logger *zap.SugaredLogger
}

func NewDryRun(logger *zap.SugaredLogger) *DryRun {
	return &DryRun{logger: logger}
}

func (d *DryRun) Submit(ctx context.Context, tx order.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("encode transaction: %w", err)
	}
	d.logger.Infow("dry_run_transaction", "transaction", string(raw))
	return nil
}

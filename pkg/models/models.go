package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Amount is a decimal quantity kept as text. The pool sends amounts as
// strings, but numbers and null are accepted too.
type Amount string

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("amount: %w", err)
		}
		*a = Amount(n.String())
	}
	return nil
}

// BasicStats is the wallet summary payload. Its shape is owned by the pool;
// only the error field is interpreted.
type BasicStats map[string]any

// HasError reports whether the payload carries a truthy error field.
func (b BasicStats) HasError() bool {
	return Truthy(b["error"])
}

// Miner is a single worker reported by the extended wallet endpoint.
type Miner struct {
	ID         string  `json:"ID"`
	Hashrate   float64 `json:"hashrate"`
	Difficulty float64 `json:"difficulty"`
	Version    string  `json:"version,omitempty"`
}

// Payment is a payout made by the pool to the wallet.
type Payment struct {
	Amount Amount `json:"amount"`
	Time   int64  `json:"time"`
	Tx     string `json:"tx"`
}

// ExtendedStats is the extended wallet payload.
type ExtendedStats struct {
	Unpaid   Amount    `json:"unpaid"`
	Total    Amount    `json:"total"`
	Hashrate float64   `json:"hashrate"`
	Miners   []Miner   `json:"miners"`
	Payments []Payment `json:"payments"`
	Error    any       `json:"error,omitempty"`
}

func (e *ExtendedStats) HasError() bool {
	return e != nil && Truthy(e.Error)
}

// PoolStats is the joined result of one poll cycle.
type PoolStats struct {
	Basic    BasicStats
	Extended *ExtendedStats
}

// Snapshot is the dashboard state published after every poll cycle.
type Snapshot struct {
	Basic      BasicStats     `json:"stats,omitempty"`
	Extended   *ExtendedStats `json:"extended_stats,omitempty"`
	Loading    bool           `json:"loading"`
	Err        string         `json:"error,omitempty"`
	LastUpdate time.Time      `json:"last_update"`
}

// HasStats reports whether both payloads are present.
func (s Snapshot) HasStats() bool {
	return s.Basic != nil && s.Extended != nil
}

// Truthy applies JavaScript truthiness to a decoded JSON value.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case string:
		return t != ""
	default:
		return true
	}
}

// TestReport holds the result of a single probe cycle.
type TestReport struct {
	ConfigPath   string `json:"config_path"`
	Coin         string `json:"coin"`
	Wallet       string `json:"wallet"`
	WalletURL    string `json:"wallet_url"`
	WalletExURL  string `json:"wallet_ex_url"`
	Status       string `json:"status"` // "ok" or "error"
	Error        string `json:"error,omitempty"`
	FailureKind  string `json:"failure_kind,omitempty"`
	Hashrate     string `json:"hashrate,omitempty"`
	Unpaid       string `json:"unpaid,omitempty"`
	MinerCount   int    `json:"miner_count"`
	PaymentCount int    `json:"payment_count"`
	DurationMs   int64  `json:"duration_ms"`
}

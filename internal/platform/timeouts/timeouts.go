// Package timeouts defines shared timeout constants used across commands.
package timeouts

import "time"

// LedgerCall caps a single read or write RPC against a ledger node.
const LedgerCall = 15 * time.Second

// LedgerReceipt caps how long a write waits for its transaction receipt.
const LedgerReceipt = 30 * time.Second

// Evaluation caps one challenge's phase evaluation, assembly included.
const Evaluation = 2 * time.Minute

// Shutdown limits how long servers wait for in-flight requests during
// graceful shutdown.
const Shutdown = 5 * time.Second

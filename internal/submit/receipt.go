package submit

import "github.com/gagliardetto/solana-go"

// Status is the submission outcome. A receipt starts Pending at broadcast
// and transitions exactly once to a terminal state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	// StatusFailed means the ledger executed the transaction and it errored,
	// or the submission itself could not be carried out. Retrying the same
	// bytes cannot succeed.
	StatusFailed Status = "failed"
	// StatusTimedOut means the poll budget ran out with no ledger record.
	// The transaction may still land; callers must re-query before assuming
	// failure, and any resubmission needs a fresh anchor.
	StatusTimedOut Status = "timed_out"
)

// Receipt reports the terminal outcome of one submission cycle.
type Receipt struct {
	Signature solana.Signature
	Status    Status
	// Err carries the ledger's execution error verbatim, or the transport
	// error that stopped the cycle. Empty when Confirmed.
	Err string
	// Slot is the slot the transaction landed in, when known.
	Slot uint64
	// Attempts is the number of confirmation polls performed.
	Attempts int
}

// Terminal reports whether the receipt reached a final state.
func (r Receipt) Terminal() bool {
	return r.Status == StatusConfirmed || r.Status == StatusFailed || r.Status == StatusTimedOut
}

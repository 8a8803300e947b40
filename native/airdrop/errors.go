package airdrop

import "errors"

var (
	// ErrAlreadyClaimed rejects a second claim for an account whose record is
	// already terminal.
	ErrAlreadyClaimed = errors.New("airdrop: already claimed")
	// ErrClaimPeriodEnded rejects claims after the configured deadline.
	ErrClaimPeriodEnded = errors.New("airdrop: claim period ended")
	// ErrInvalidProof rejects claims whose proof does not fold to the root.
	ErrInvalidProof = errors.New("airdrop: invalid proof")
	// ErrProofTooLong rejects proofs above the safety bound before hashing.
	ErrProofTooLong = errors.New("airdrop: proof exceeds maximum length")
	// ErrAmountZero rejects zero-amount claims.
	ErrAmountZero = errors.New("airdrop: amount must be positive")
	// ErrMaxAmountExceeded rejects claims above the per-claim cap.
	ErrMaxAmountExceeded = errors.New("airdrop: amount exceeds per-claim cap")
	// ErrPortalPaused rejects all claims while the emergency stop is engaged.
	ErrPortalPaused = errors.New("airdrop: portal paused")
	// ErrTimelockNotReady rejects root execution before the delay elapsed.
	ErrTimelockNotReady = errors.New("airdrop: timelock delay not elapsed")
	// ErrNoPendingRoot rejects root execution with no proposal outstanding.
	ErrNoPendingRoot = errors.New("airdrop: no pending root update")
	// ErrInvalidRoot rejects the zero root at proposal or install time.
	ErrInvalidRoot = errors.New("airdrop: root must not be zero")

	errStateNotConfigured = errors.New("airdrop: state not configured")
)

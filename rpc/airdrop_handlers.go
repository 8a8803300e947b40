package rpc

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/holiman/uint256"

	"claimdrop/crypto"
	"claimdrop/merkle"
	"claimdrop/native/airdrop"
	"claimdrop/observability"
)

const (
	codeAirdropInvalidParams   = -32061
	codeAirdropAlreadyClaimed  = -32062
	codeAirdropPeriodEnded     = -32063
	codeAirdropInvalidProof    = -32064
	codeAirdropProofTooLong    = -32065
	codeAirdropAmountZero      = -32066
	codeAirdropAmountExceeded  = -32067
	codeAirdropPaused          = -32068
	codeAirdropTimelockNotDue  = -32069
	codeAirdropNoPendingRoot   = -32070
	codeAirdropInvalidRoot     = -32071
)

type claimParams struct {
	Caller string   `json:"caller"`
	Amount string   `json:"amount"`
	Proof  []string `json:"proof"`
}

type accountParams struct {
	Account string `json:"account"`
}

type claimableParams struct {
	Account string   `json:"account"`
	Amount  string   `json:"amount"`
	Proof   []string `json:"proof"`
}

type claimResult struct {
	OK      bool   `json:"ok"`
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

type claimedResult struct {
	Claimed bool `json:"claimed"`
}

type claimableResult struct {
	Claimable bool `json:"claimable"`
}

type rootResult struct {
	Root string `json:"root"`
}

type totalResult struct {
	Total string `json:"total"`
}

func (s *Server) handleClaim(w http.ResponseWriter, req *RPCRequest) {
	var params claimParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, err := parseAccount(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeAirdropInvalidParams, "invalid_params", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeAirdropInvalidParams, "invalid_params", err.Error())
		return
	}
	proof, err := parseProof(params.Proof)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeAirdropInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.engine.Claim(caller, amount, proof); err != nil {
		observability.PortalMetrics().RecordClaimRejected(guardReason(err))
		writeAirdropError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, claimResult{OK: true, Account: params.Caller, Amount: amount.Dec()})
}

func (s *Server) handleIsClaimed(w http.ResponseWriter, req *RPCRequest) {
	var params accountParams
	if !decodeParams(w, req, &params) {
		return
	}
	account, err := parseAccount(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeAirdropInvalidParams, "invalid_params", err.Error())
		return
	}
	claimed, err := s.engine.IsClaimed(account)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "internal_error", err.Error())
		return
	}
	writeResult(w, req.ID, claimedResult{Claimed: claimed})
}

func (s *Server) handleGetClaimable(w http.ResponseWriter, req *RPCRequest) {
	var params claimableParams
	if !decodeParams(w, req, &params) {
		return
	}
	account, err := parseAccount(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeAirdropInvalidParams, "invalid_params", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeAirdropInvalidParams, "invalid_params", err.Error())
		return
	}
	proof, err := parseProof(params.Proof)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeAirdropInvalidParams, "invalid_params", err.Error())
		return
	}
	claimable, err := s.engine.GetClaimable(account, amount, proof)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "internal_error", err.Error())
		return
	}
	writeResult(w, req.ID, claimableResult{Claimable: claimable})
}

func (s *Server) handleMerkleRoot(w http.ResponseWriter, req *RPCRequest) {
	root, err := s.engine.MerkleRoot()
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "internal_error", err.Error())
		return
	}
	writeResult(w, req.ID, rootResult{Root: merkle.ElementToHex(root)})
}

func (s *Server) handleTotalClaimed(w http.ResponseWriter, req *RPCRequest) {
	total, err := s.engine.TotalClaimed()
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "internal_error", err.Error())
		return
	}
	writeResult(w, req.ID, totalResult{Total: total.Dec()})
}

// --- shared parsing helpers ---

func decodeParams(w http.ResponseWriter, req *RPCRequest, out interface{}) bool {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeAirdropInvalidParams, "invalid_params", "exactly one parameter object expected")
		return false
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeAirdropInvalidParams, "invalid_params", err.Error())
		return false
	}
	return true
}

func parseAccount(value string) ([20]byte, error) {
	addr, err := crypto.DecodeAddress(value)
	if err != nil {
		return [20]byte{}, err
	}
	return addr.Fixed(), nil
}

func parseAmount(value string) (*uint256.Int, error) {
	return uint256.FromDecimal(value)
}

func parseProof(encoded []string) ([]fr.Element, error) {
	proof := make([]fr.Element, len(encoded))
	for i, sibling := range encoded {
		element, err := merkle.ElementFromHex(sibling)
		if err != nil {
			return nil, err
		}
		proof[i] = element
	}
	return proof, nil
}

func guardReason(err error) string {
	switch {
	case errors.Is(err, airdrop.ErrPortalPaused):
		return "paused"
	case errors.Is(err, airdrop.ErrProofTooLong):
		return "proof_too_long"
	case errors.Is(err, airdrop.ErrAlreadyClaimed):
		return "already_claimed"
	case errors.Is(err, airdrop.ErrClaimPeriodEnded):
		return "period_ended"
	case errors.Is(err, airdrop.ErrAmountZero):
		return "amount_zero"
	case errors.Is(err, airdrop.ErrMaxAmountExceeded):
		return "amount_exceeded"
	case errors.Is(err, airdrop.ErrInvalidProof):
		return "invalid_proof"
	default:
		return "internal"
	}
}

func writeAirdropError(w http.ResponseWriter, id interface{}, err error) {
	switch {
	case errors.Is(err, airdrop.ErrAlreadyClaimed):
		writeError(w, http.StatusConflict, id, codeAirdropAlreadyClaimed, "already_claimed", err.Error())
	case errors.Is(err, airdrop.ErrClaimPeriodEnded):
		writeError(w, http.StatusForbidden, id, codeAirdropPeriodEnded, "claim_period_ended", err.Error())
	case errors.Is(err, airdrop.ErrInvalidProof):
		writeError(w, http.StatusForbidden, id, codeAirdropInvalidProof, "invalid_proof", err.Error())
	case errors.Is(err, airdrop.ErrProofTooLong):
		writeError(w, http.StatusBadRequest, id, codeAirdropProofTooLong, "proof_too_long", err.Error())
	case errors.Is(err, airdrop.ErrAmountZero):
		writeError(w, http.StatusBadRequest, id, codeAirdropAmountZero, "amount_zero", err.Error())
	case errors.Is(err, airdrop.ErrMaxAmountExceeded):
		writeError(w, http.StatusBadRequest, id, codeAirdropAmountExceeded, "max_amount_exceeded", err.Error())
	case errors.Is(err, airdrop.ErrPortalPaused):
		writeError(w, http.StatusServiceUnavailable, id, codeAirdropPaused, "portal_paused", err.Error())
	case errors.Is(err, airdrop.ErrTimelockNotReady):
		writeError(w, http.StatusForbidden, id, codeAirdropTimelockNotDue, "timelock_not_ready", err.Error())
	case errors.Is(err, airdrop.ErrNoPendingRoot):
		writeError(w, http.StatusNotFound, id, codeAirdropNoPendingRoot, "no_pending_root", err.Error())
	case errors.Is(err, airdrop.ErrInvalidRoot):
		writeError(w, http.StatusBadRequest, id, codeAirdropInvalidRoot, "invalid_root", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, id, codeServerError, "internal_error", err.Error())
	}
}

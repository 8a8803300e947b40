package rpc

import (
	"net/http"

	"claimdrop/merkle"
)

type proposeRootParams struct {
	Root string `json:"root"`
}

type proposeRootResult struct {
	Root         string `json:"root"`
	ExecuteAfter int64  `json:"executeAfter"`
}

type executeRootResult struct {
	Root string `json:"root"`
}

type pauseResult struct {
	OK     bool `json:"ok"`
	Paused bool `json:"paused"`
}

func (s *Server) handleProposeMerkleRoot(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params proposeRootParams
	if !decodeParams(w, req, &params) {
		return
	}
	root, err := merkle.ElementFromHex(params.Root)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeAirdropInvalidParams, "invalid_params", err.Error())
		return
	}
	pending, err := s.governor.ProposeRoot(root)
	if err != nil {
		writeAirdropError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, proposeRootResult{
		Root:         merkle.ElementToHex(pending.Root),
		ExecuteAfter: pending.ExecuteAfter,
	})
}

func (s *Server) handleExecuteMerkleRootUpdate(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	root, err := s.governor.ExecuteRootUpdate()
	if err != nil {
		writeAirdropError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, executeRootResult{Root: merkle.ElementToHex(root)})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	if err := s.governor.Pause(); err != nil {
		writeAirdropError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, pauseResult{OK: true, Paused: true})
}

func (s *Server) handleUnpause(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	if err := s.governor.Unpause(); err != nil {
		writeAirdropError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, pauseResult{OK: true, Paused: false})
}

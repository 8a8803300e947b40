package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/holiman/uint256"

	"claimdrop/core/state"
	"claimdrop/crypto"
	"claimdrop/merkle"
	"claimdrop/native/airdrop"
	"claimdrop/storage"
)

const (
	testAdminToken = "test-admin-token"
	testDeadline   = int64(1_900_000_000)
)

type testPortal struct {
	server  *httptest.Server
	rpc     *Server
	tree    *merkle.Tree
	entries []merkle.Entry
	now     *time.Time
}

func newTestPortal(t *testing.T, n int) *testPortal {
	t.Helper()
	t.Setenv(AuthTokenEnv, testAdminToken)

	entries := make([]merkle.Entry, n)
	for i := range entries {
		var account [20]byte
		account[0] = 0x20
		account[19] = byte(i + 1)
		entries[i] = merkle.Entry{Account: account, Amount: uint256.NewInt(uint64(1000 * (i + 1)))}
	}
	tree, err := merkle.Build(entries)
	if err != nil {
		t.Fatalf("build tree: %v", err)
	}

	manager := state.NewManager(storage.NewMemDB())
	if err := manager.SetMerkleRoot(tree.Root()); err != nil {
		t.Fatalf("install root: %v", err)
	}

	now := time.Unix(testDeadline-3600, 0).UTC()
	portal := &testPortal{tree: tree, entries: entries, now: &now}

	engine := airdrop.NewEngine()
	engine.SetState(manager)
	engine.SetMinter(airdrop.NewBalanceMinter(manager))
	engine.SetConfig(airdrop.PortalConfig{
		ClaimDeadline:  testDeadline,
		MaxClaimAmount: uint256.NewInt(1_000_000),
	})
	engine.SetNowFunc(func() time.Time { return *portal.now })

	governor := airdrop.NewGovernor()
	governor.SetState(manager)
	governor.SetDelay(time.Hour)
	governor.SetNowFunc(func() time.Time { return *portal.now })

	portal.rpc = NewServer(engine, governor, nil)
	portal.server = httptest.NewServer(portal.rpc.Router())
	t.Cleanup(portal.server.Close)
	return portal
}

func (p *testPortal) call(t *testing.T, method string, params interface{}, token string) (*RPCResponse, int) {
	t.Helper()
	req := map[string]interface{}{
		"jsonrpc": jsonRPCVersion,
		"id":      1,
		"method":  method,
	}
	if params != nil {
		req["params"] = []interface{}{params}
	}
	raw, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	httpReq, err := http.NewRequest(http.MethodPost, p.server.URL+"/", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	httpResp, err := p.server.Client().Do(httpReq)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer httpResp.Body.Close()
	resp := &RPCResponse{}
	if err := json.NewDecoder(httpResp.Body).Decode(resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, httpResp.StatusCode
}

func (p *testPortal) claimParamsFor(t *testing.T, i int) claimParams {
	t.Helper()
	entry := p.entries[i]
	proof, ok := p.tree.Proof(entry.Account)
	if !ok {
		t.Fatalf("missing proof for entry %d", i)
	}
	encoded := make([]string, len(proof))
	for j, sibling := range proof {
		encoded[j] = merkle.ElementToHex(sibling)
	}
	return claimParams{
		Caller: crypto.MustNewAddress(crypto.PortalPrefix, entry.Account[:]).String(),
		Amount: entry.Amount.Dec(),
		Proof:  encoded,
	}
}

func resultField(t *testing.T, resp *RPCResponse, field string) interface{} {
	t.Helper()
	obj, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("result is not an object: %#v", resp.Result)
	}
	return obj[field]
}

func TestClaimLifecycleOverRPC(t *testing.T) {
	portal := newTestPortal(t, 2)

	// Pre-check the probe.
	params := portal.claimParamsFor(t, 0)
	probe := claimableParams{Account: params.Caller, Amount: params.Amount, Proof: params.Proof}
	resp, status := portal.call(t, "airdrop_getClaimable", probe, "")
	if status != http.StatusOK || resp.Error != nil {
		t.Fatalf("probe failed: status=%d err=%+v", status, resp.Error)
	}
	if resultField(t, resp, "claimable") != true {
		t.Fatalf("expected claimable=true before claim")
	}

	// Claim both accounts.
	for i := range portal.entries {
		resp, status := portal.call(t, "airdrop_claim", portal.claimParamsFor(t, i), "")
		if status != http.StatusOK || resp.Error != nil {
			t.Fatalf("claim %d failed: status=%d err=%+v", i, status, resp.Error)
		}
	}

	resp, _ = portal.call(t, "airdrop_totalClaimed", nil, "")
	if resultField(t, resp, "total") != "3000" {
		t.Fatalf("expected total 3000, got %v", resultField(t, resp, "total"))
	}

	resp, _ = portal.call(t, "airdrop_isClaimed", accountParams{Account: params.Caller}, "")
	if resultField(t, resp, "claimed") != true {
		t.Fatalf("expected claimed=true after claim")
	}

	// A repeat claim surfaces the conflict code.
	resp, status = portal.call(t, "airdrop_claim", params, "")
	if status != http.StatusConflict || resp.Error == nil || resp.Error.Code != codeAirdropAlreadyClaimed {
		t.Fatalf("expected already-claimed conflict, got status=%d err=%+v", status, resp.Error)
	}
}

func TestClaimRejectsMalformedParams(t *testing.T) {
	portal := newTestPortal(t, 2)
	params := portal.claimParamsFor(t, 0)
	params.Caller = "not-a-bech32-address"
	resp, status := portal.call(t, "airdrop_claim", params, "")
	if status != http.StatusBadRequest || resp.Error == nil || resp.Error.Code != codeAirdropInvalidParams {
		t.Fatalf("expected invalid params, got status=%d err=%+v", status, resp.Error)
	}
}

func TestAdminMethodsRequireAuth(t *testing.T) {
	portal := newTestPortal(t, 2)
	newRoot := portal.tree.Root()
	params := proposeRootParams{Root: merkle.ElementToHex(newRoot)}

	resp, status := portal.call(t, "airdrop_proposeMerkleRoot", params, "")
	if status != http.StatusUnauthorized || resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("expected unauthorized without token, got status=%d err=%+v", status, resp.Error)
	}
	resp, status = portal.call(t, "airdrop_proposeMerkleRoot", params, "wrong-token")
	if status != http.StatusUnauthorized || resp.Error == nil {
		t.Fatalf("expected unauthorized with wrong token, got status=%d err=%+v", status, resp.Error)
	}
	resp, status = portal.call(t, "airdrop_proposeMerkleRoot", params, testAdminToken)
	if status != http.StatusOK || resp.Error != nil {
		t.Fatalf("expected propose to succeed with token, got status=%d err=%+v", status, resp.Error)
	}
}

func TestRootRotationOverRPC(t *testing.T) {
	portal := newTestPortal(t, 2)

	// Build a replacement snapshot and propose its root.
	var account [20]byte
	account[0] = 0x30
	account[19] = 0x01
	newEntries := []merkle.Entry{{Account: account, Amount: uint256.NewInt(7777)}}
	newTree, err := merkle.Build(newEntries)
	if err != nil {
		t.Fatalf("build new tree: %v", err)
	}
	resp, status := portal.call(t, "airdrop_proposeMerkleRoot",
		proposeRootParams{Root: merkle.ElementToHex(newTree.Root())}, testAdminToken)
	if status != http.StatusOK || resp.Error != nil {
		t.Fatalf("propose failed: status=%d err=%+v", status, resp.Error)
	}

	// Too early.
	resp, status = portal.call(t, "airdrop_executeMerkleRootUpdate", nil, testAdminToken)
	if status != http.StatusForbidden || resp.Error == nil || resp.Error.Code != codeAirdropTimelockNotDue {
		t.Fatalf("expected timelock rejection, got status=%d err=%+v", status, resp.Error)
	}

	// After the delay.
	*portal.now = portal.now.Add(2 * time.Hour)
	resp, status = portal.call(t, "airdrop_executeMerkleRootUpdate", nil, testAdminToken)
	if status != http.StatusOK || resp.Error != nil {
		t.Fatalf("execute failed: status=%d err=%+v", status, resp.Error)
	}

	resp, _ = portal.call(t, "airdrop_merkleRoot", nil, "")
	if resultField(t, resp, "root") != merkle.ElementToHex(newTree.Root()) {
		t.Fatalf("active root not rotated")
	}
}

func TestPauseBlocksClaimsOverRPC(t *testing.T) {
	portal := newTestPortal(t, 2)

	resp, status := portal.call(t, "airdrop_pause", nil, testAdminToken)
	if status != http.StatusOK || resp.Error != nil {
		t.Fatalf("pause failed: status=%d err=%+v", status, resp.Error)
	}
	resp, status = portal.call(t, "airdrop_claim", portal.claimParamsFor(t, 0), "")
	if status != http.StatusServiceUnavailable || resp.Error == nil || resp.Error.Code != codeAirdropPaused {
		t.Fatalf("expected paused rejection, got status=%d err=%+v", status, resp.Error)
	}
	resp, status = portal.call(t, "airdrop_unpause", nil, testAdminToken)
	if status != http.StatusOK || resp.Error != nil {
		t.Fatalf("unpause failed: status=%d err=%+v", status, resp.Error)
	}
	resp, status = portal.call(t, "airdrop_claim", portal.claimParamsFor(t, 0), "")
	if status != http.StatusOK || resp.Error != nil {
		t.Fatalf("claim after unpause failed: status=%d err=%+v", status, resp.Error)
	}
}

func TestMethodNotFound(t *testing.T) {
	portal := newTestPortal(t, 2)
	resp, status := portal.call(t, "airdrop_unknownMethod", nil, "")
	if status != http.StatusNotFound || resp.Error == nil || resp.Error.Code != codeMethodNotFound {
		t.Fatalf("expected method-not-found, got status=%d err=%+v", status, resp.Error)
	}
}

func TestHealthz(t *testing.T) {
	portal := newTestPortal(t, 2)
	resp, err := portal.server.Client().Get(portal.server.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from healthz, got %d", resp.StatusCode)
	}
}

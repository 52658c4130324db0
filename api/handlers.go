package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"

	"github.com/xraph/points/account"
	"github.com/xraph/points/event"
	"github.com/xraph/points/reward"
	"github.com/xraph/points/types"
)

var errBadRequest = errors.New("api: bad request")

type amountRequest struct {
	Amount types.Amount `json:"amount"`
}

type targetAmountRequest struct {
	Target types.Address `json:"target"`
	Amount types.Amount  `json:"amount"`
}

type targetRequest struct {
	Target types.Address `json:"target"`
}

type valueRequest struct {
	Value types.Amount `json:"value"`
}

type fallbackRequest struct {
	Value types.Amount  `json:"value"`
	Data  hexutil.Bytes `json:"data"`
}

type balanceResponse struct {
	Address types.Address `json:"address"`
	Balance types.Amount  `json:"balance"`
}

type statusResponse struct {
	Status string `json:"status"`
}

var statusOK = statusResponse{Status: "ok"}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusOK)
}

// ──────────────────────────────────────────────────
// Membership
// ──────────────────────────────────────────────────

// JoinAsMember handles POST /members.
func (h *Handler) JoinAsMember(w http.ResponseWriter, r *http.Request) {
	caller, err := h.identity.Resolve(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.ledger.JoinAsMember(r.Context(), caller); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, statusOK)
}

// BanAccount handles POST /bans.
func (h *Handler) BanAccount(w http.ResponseWriter, r *http.Request) {
	caller, err := h.identity.Resolve(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req targetRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.ledger.BanAccount(r.Context(), caller, req.Target); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusOK)
}

// ──────────────────────────────────────────────────
// Points
// ──────────────────────────────────────────────────

// EarnPoints handles POST /points/earn.
func (h *Handler) EarnPoints(w http.ResponseWriter, r *http.Request) {
	caller, err := h.identity.Resolve(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req amountRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.ledger.EarnPoints(r.Context(), caller, req.Amount); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeBalance(w, r, caller)
}

// AssignPoints handles POST /points/assign.
func (h *Handler) AssignPoints(w http.ResponseWriter, r *http.Request) {
	caller, err := h.identity.Resolve(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req targetAmountRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.ledger.AssignPoints(r.Context(), caller, req.Target, req.Amount); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeBalance(w, r, req.Target)
}

// TransferPoints handles POST /points/transfer.
func (h *Handler) TransferPoints(w http.ResponseWriter, r *http.Request) {
	caller, err := h.identity.Resolve(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req targetAmountRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.ledger.TransferPoints(r.Context(), caller, req.Target, req.Amount); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeBalance(w, r, caller)
}

// ──────────────────────────────────────────────────
// Rewards
// ──────────────────────────────────────────────────

// ListRewards handles GET /rewards.
func (h *Handler) ListRewards(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ledger.RewardTiers().Tiers())
}

// GetReward handles GET /rewards/{index}.
func (h *Handler) GetReward(w http.ResponseWriter, r *http.Request) {
	index, err := rewardIndex(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	cost, err := h.ledger.PointsRequiredForRewards(index)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reward.Tier{Index: index, Cost: cost})
}

// RedeemReward handles POST /rewards/{index}/redeem.
func (h *Handler) RedeemReward(w http.ResponseWriter, r *http.Request) {
	caller, err := h.identity.Resolve(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	index, err := rewardIndex(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.ledger.RedeemReward(r.Context(), caller, index); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeBalance(w, r, caller)
}

// ──────────────────────────────────────────────────
// Balances and accounts
// ──────────────────────────────────────────────────

// GetMyBalance handles GET /me/balance.
func (h *Handler) GetMyBalance(w http.ResponseWriter, r *http.Request) {
	caller, err := h.identity.Resolve(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	bal, err := h.ledger.GetMyBalance(r.Context(), caller)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Address: caller, Balance: bal})
}

// BalanceOf handles GET /accounts/{address}/balance.
func (h *Handler) BalanceOf(w http.ResponseWriter, r *http.Request) {
	addr, err := pathAddress(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeBalance(w, r, addr)
}

// GetAccount handles GET /accounts/{address}.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := pathAddress(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	acct, err := h.ledger.Account(r.Context(), addr)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

// ListAccounts handles GET /accounts?status=&members=&limit=&offset=.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := account.ListOpts{Status: account.Status(q.Get("status"))}
	if opts.Status != "" && opts.Status != account.StatusActive && opts.Status != account.StatusBanned {
		h.writeError(w, r, fmt.Errorf("%w: unknown status %q", errBadRequest, opts.Status))
		return
	}
	if v := q.Get("members"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			h.writeError(w, r, fmt.Errorf("%w: members: %v", errBadRequest, err))
			return
		}
		opts.MembersOnly = b
	}
	var err error
	if opts.Limit, opts.Offset, err = pagination(r); err != nil {
		h.writeError(w, r, err)
		return
	}

	accts, err := h.ledger.ListAccounts(r.Context(), opts)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if accts == nil {
		accts = []*account.Account{}
	}
	writeJSON(w, http.StatusOK, accts)
}

// ──────────────────────────────────────────────────
// Journal
// ──────────────────────────────────────────────────

// ListEvents handles GET /events?account=&kind=&after=&limit=&offset=.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := event.ListOpts{Kind: event.Kind(q.Get("kind"))}
	if opts.Kind != "" && !opts.Kind.Valid() {
		h.writeError(w, r, fmt.Errorf("%w: unknown kind %q", errBadRequest, opts.Kind))
		return
	}
	if v := q.Get("account"); v != "" {
		addr, err := types.ParseAddress(v)
		if err != nil {
			h.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
		opts.Account = &addr
	}
	if v := q.Get("after"); v != "" {
		after, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			h.writeError(w, r, fmt.Errorf("%w: after: %v", errBadRequest, err))
			return
		}
		opts.AfterSeq = after
	}
	var err error
	if opts.Limit, opts.Offset, err = pagination(r); err != nil {
		h.writeError(w, r, err)
		return
	}

	evs, err := h.ledger.Events(r.Context(), opts)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if evs == nil {
		evs = []*event.Event{}
	}
	writeJSON(w, http.StatusOK, evs)
}

// ──────────────────────────────────────────────────
// Inbound value
// ──────────────────────────────────────────────────

// Receive handles POST /receive.
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	sender, err := h.identity.Resolve(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req valueRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.ledger.OnPlainTransfer(r.Context(), sender, req.Value); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusOK)
}

// Fallback handles POST /fallback. Calls with empty data go down the
// plain transfer path.
func (h *Handler) Fallback(w http.ResponseWriter, r *http.Request) {
	sender, err := h.identity.Resolve(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req fallbackRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	// A call without data is a plain transfer and is not counted.
	if len(req.Data) == 0 {
		err = h.ledger.OnPlainTransfer(r.Context(), sender, req.Value)
	} else {
		err = h.ledger.OnDataTransfer(r.Context(), sender, req.Value, req.Data)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusOK)
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	return nil
}

func (h *Handler) writeBalance(w http.ResponseWriter, r *http.Request, addr types.Address) {
	bal, err := h.ledger.BalanceOf(r.Context(), addr)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Address: addr, Balance: bal})
}

func rewardIndex(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: reward index %q", errBadRequest, raw)
	}
	return index, nil
}

func pathAddress(r *http.Request) (types.Address, error) {
	addr, err := types.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		return types.ZeroAddress, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return addr, nil
}

func pagination(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 0 {
			return 0, 0, fmt.Errorf("%w: limit %q", errBadRequest, v)
		}
	}
	if v := q.Get("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("%w: offset %q", errBadRequest, v)
		}
	}
	return limit, offset, nil
}

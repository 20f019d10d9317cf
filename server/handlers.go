package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/Elactrac/dotnation-sub001/batch"
	"github.com/Elactrac/dotnation-sub001/store"
	"github.com/Elactrac/dotnation-sub001/types"
)

type apiError struct {
	Error      string            `json:"error"`
	Violations []batch.FieldError `json:"violations,omitempty"`
}

type campaignsResponse struct {
	Campaigns []types.Campaign `json:"campaigns"`
	// Cached is set when the node was unreachable and the local store served
	// the (possibly stale) last known view.
	Cached bool `json:"cached,omitempty"`
}

type campaignResponse struct {
	Campaign  *types.Campaign  `json:"campaign"`
	Donations []types.Donation `json:"donations"`
}

type createBatchRequest struct {
	Campaigns []types.CreateCampaign `json:"campaigns"`
}

type withdrawBatchRequest struct {
	CampaignIDs []uint32 `json:"campaign_ids"`
}

type donateRequest struct {
	CampaignID uint32 `json:"campaign_id"`
	Amount     string `json:"amount"`
}

type runAccepted struct {
	RunID      uint64 `json:"run_id"`
	Operations int    `json:"operations"`
	Status     string `json:"status"`
}

func (s *Server) handleCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := s.gw.Campaigns(r.Context())
	cached := false
	if err != nil {
		s.logger.Warn("campaign query failed, serving local cache", "error", err)
		campaigns, err = s.store.CachedCampaigns()
		if err != nil {
			writeError(w, http.StatusBadGateway, "campaigns unavailable")
			return
		}
		cached = true
	} else if cacheErr := s.store.CacheCampaigns(campaigns); cacheErr != nil {
		s.logger.Warn("failed to cache campaigns", "error", cacheErr)
	}

	if r.URL.Query().Get("active") == "true" {
		filtered := campaigns[:0]
		for _, c := range campaigns {
			if c.State == types.CampaignActive {
				filtered = append(filtered, c)
			}
		}
		campaigns = filtered
	}
	if campaigns == nil {
		campaigns = []types.Campaign{}
	}
	writeJSON(w, http.StatusOK, campaignsResponse{Campaigns: campaigns, Cached: cached})
}

func (s *Server) handleCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}
	campaign, donations, err := s.gw.Campaign(r.Context(), uint32(id))
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if campaign == nil {
		writeError(w, http.StatusNotFound, "campaign not found")
		return
	}
	if donations == nil {
		donations = []types.Donation{}
	}
	writeJSON(w, http.StatusOK, campaignResponse{Campaign: campaign, Donations: donations})
}

func (s *Server) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	var req createBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	reqs := make([]types.OperationRequest, len(req.Campaigns))
	for i, c := range req.Campaigns {
		reqs[i] = c
	}
	s.startRun(w, reqs)
}

func (s *Server) handleWithdrawBatch(w http.ResponseWriter, r *http.Request) {
	var req withdrawBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	reqs := make([]types.OperationRequest, len(req.CampaignIDs))
	for i, id := range req.CampaignIDs {
		reqs[i] = types.WithdrawFunds{CampaignID: id}
	}
	s.startRun(w, reqs)
}

// startRun validates reqs, reserves the single run slot and launches the
// orchestrator asynchronously. The response only acknowledges acceptance; the
// outcome is persisted as a run report.
func (s *Server) startRun(w http.ResponseWriter, reqs []types.OperationRequest) {
	if _, err := batch.ValidateOperations(reqs, time.Now()); err != nil {
		var verr *batch.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid operations", Violations: verr.Violations})
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !s.accepting.CompareAndSwap(false, true) {
		writeError(w, http.StatusConflict, batch.ErrRunInProgress.Error())
		return
	}

	runID, err := s.store.NextRunID()
	if err != nil {
		s.accepting.Store(false)
		writeError(w, http.StatusInternalServerError, "failed to allocate run id")
		return
	}
	s.activeRun.Store(runID)

	kind := reqs[0].Kind()
	go func() {
		started := time.Now()
		result, err := s.orch.Run(s.runCtx, reqs)
		if err != nil {
			s.logger.Error("batch run failed", "run_id", runID, "error", err)
		}
		if result == nil {
			result = &types.AggregateResult{}
		}
		report := store.RunReport{
			ID:         runID,
			Kind:       kind,
			StartedAt:  started,
			FinishedAt: time.Now(),
			Requested:  len(reqs),
			Result:     *result,
		}

		// free the run slot before persisting, so a client that observes the
		// report can start the next run right away
		s.activeRun.Store(0)
		s.accepting.Store(false)

		if err := s.store.SaveReport(report); err != nil {
			s.logger.Error("failed to persist run report", "run_id", runID, "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, runAccepted{RunID: runID, Operations: len(reqs), Status: "accepted"})
}

func (s *Server) handleDonate(w http.ResponseWriter, r *http.Request) {
	var req donateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	amount, err := types.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "donation amount must be positive")
		return
	}
	if err := s.gw.SubmitDonation(r.Context(), req.CampaignID, amount, s.signer); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "finalized"})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.orch.Progress().Snapshot())
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	reports, err := s.store.Reports()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if reports == nil {
		reports = []store.RunReport{}
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}
	report, err := s.store.Report(id)
	if errors.Is(err, store.ErrKeyNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if s.signer != nil {
		if addr, err := s.signer.Address(); err == nil {
			resp["signer"] = addr
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	// headers are already sent, an encode error cannot be reported
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, apiError{Error: msg})
}

package server

import (
	"net/http"

	gorillarpc "github.com/gorilla/rpc/v2"
	gorillajson "github.com/gorilla/rpc/v2/json"

	"github.com/Elactrac/dotnation-sub001/batch"
	"github.com/Elactrac/dotnation-sub001/store"
	"github.com/Elactrac/dotnation-sub001/types"
)

const serviceName = "dotnation"

func methodName(method string) string {
	return serviceName + "." + method
}

// rpcHandler exposes a read-only JSON-RPC view of the engine at /rpc, with
// snake_case method aliases.
func (s *Server) rpcHandler() (http.Handler, error) {
	srv := gorillarpc.NewServer()
	aliases := map[string]string{
		"progress":  methodName("Progress"),
		"status":    methodName("Status"),
		"runs":      methodName("Runs"),
		"campaigns": methodName("Campaigns"),
	}
	srv.RegisterCodec(newMapperCodec(aliases), "application/json")
	err := srv.RegisterService(&rpcService{s: s}, serviceName)
	return srv, err
}

// mapperCodec rewrites aliased method names before delegating to the stock
// gorilla JSON codec.
type mapperCodec struct {
	aliases map[string]string
	codec   gorillarpc.Codec
}

func newMapperCodec(aliases map[string]string) *mapperCodec {
	return &mapperCodec{
		aliases: aliases,
		codec:   gorillajson.NewCodec(),
	}
}

func (m *mapperCodec) NewRequest(request *http.Request) gorillarpc.CodecRequest {
	return &mapperCodecRequest{
		CodecRequest: m.codec.NewRequest(request).(*gorillajson.CodecRequest),
		aliases:      m.aliases,
	}
}

type mapperCodecRequest struct {
	*gorillajson.CodecRequest
	aliases map[string]string
}

func (m *mapperCodecRequest) Method() (string, error) {
	raw, err := m.CodecRequest.Method()
	if err != nil {
		return "", err
	}
	if alias, ok := m.aliases[raw]; ok {
		return alias, nil
	}
	return raw, nil
}

type rpcService struct {
	s *Server
}

type EmptyArgs struct{}

// StatusResult summarizes the engine state for RPC clients.
type StatusResult struct {
	RunActive bool                   `json:"run_active"`
	RunID     uint64                 `json:"run_id,omitempty"`
	Progress  batch.ProgressSnapshot `json:"progress"`
	Signer    string                 `json:"signer,omitempty"`
}

func (r *rpcService) Progress(req *http.Request, args *EmptyArgs, resp *batch.ProgressSnapshot) error {
	*resp = r.s.orch.Progress().Snapshot()
	return nil
}

func (r *rpcService) Status(req *http.Request, args *EmptyArgs, resp *StatusResult) error {
	runID := r.s.activeRun.Load()
	result := StatusResult{
		RunActive: runID != 0,
		RunID:     runID,
		Progress:  r.s.orch.Progress().Snapshot(),
	}
	if r.s.signer != nil {
		if addr, err := r.s.signer.Address(); err == nil {
			result.Signer = addr
		}
	}
	*resp = result
	return nil
}

func (r *rpcService) Runs(req *http.Request, args *EmptyArgs, resp *[]store.RunReport) error {
	reports, err := r.s.store.Reports()
	if err != nil {
		return err
	}
	if reports == nil {
		reports = []store.RunReport{}
	}
	*resp = reports
	return nil
}

func (r *rpcService) Campaigns(req *http.Request, args *EmptyArgs, resp *[]types.Campaign) error {
	campaigns, err := r.s.gw.Campaigns(req.Context())
	if err != nil {
		return err
	}
	if campaigns == nil {
		campaigns = []types.Campaign{}
	}
	*resp = campaigns
	return nil
}

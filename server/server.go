package server

import (
	"context"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/Elactrac/dotnation-sub001/batch"
	"github.com/Elactrac/dotnation-sub001/config"
	"github.com/Elactrac/dotnation-sub001/gateway"
	"github.com/Elactrac/dotnation-sub001/log"
	"github.com/Elactrac/dotnation-sub001/signer"
	"github.com/Elactrac/dotnation-sub001/store"
)

// Server exposes the batch engine and campaign queries over HTTP and JSON-RPC.
type Server struct {
	cfg    config.Config
	orch   *batch.Orchestrator
	gw     gateway.Gateway
	store  *store.RunStore
	signer signer.Signer
	logger log.Logger

	server http.Server

	// runCtx bounds the lifetime of asynchronously launched runs; Stop cancels
	// it so an in-flight run ends at its next batch boundary.
	runCtx    context.Context
	runCancel context.CancelFunc

	// accepting guards the async run launch so that a second submission is
	// rejected at request time instead of inside the run goroutine.
	accepting atomic.Bool
	activeRun atomic.Uint64
}

// NewServer wires the HTTP layer over the orchestrator and its collaborators.
func NewServer(cfg config.Config, orch *batch.Orchestrator, gw gateway.Gateway, rs *store.RunStore, s signer.Signer, logger log.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:       cfg,
		orch:      orch,
		gw:        gw,
		store:     rs,
		signer:    s,
		logger:    logger,
		runCtx:    ctx,
		runCancel: cancel,
	}
}

// Start binds the listen address and serves until Stop is called. It returns
// once the listener is established; serving continues in the background.
func (s *Server) Start() error {
	if s.cfg.ListenAddress == "" {
		s.logger.Info("listen address not specified, HTTP API will not be exposed")
		return nil
	}

	listener, err := net.Listen("tcp", s.cfg.ListenAddress)
	if err != nil {
		return err
	}

	handler, err := s.Handler()
	if err != nil {
		return err
	}

	go func() {
		err := s.serve(listener, handler)
		if err != http.ErrServerClosed {
			s.logger.Error("error while serving HTTP", "error", err)
		}
	}()

	return nil
}

// Stop gracefully shuts the HTTP server down and cancels any in-flight run.
func (s *Server) Stop() {
	s.runCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("error while shutting down HTTP server", "error", err)
	}
}

// Handler builds the full route table, CORS-wrapped.
func (s *Server) Handler() (http.Handler, error) {
	router := mux.NewRouter()

	v1 := router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/campaigns", s.handleCampaigns).Methods(http.MethodGet)
	v1.HandleFunc("/campaigns/{id:[0-9]+}", s.handleCampaign).Methods(http.MethodGet)
	v1.HandleFunc("/campaigns/batch", s.handleCreateBatch).Methods(http.MethodPost)
	v1.HandleFunc("/withdrawals/batch", s.handleWithdrawBatch).Methods(http.MethodPost)
	v1.HandleFunc("/donations", s.handleDonate).Methods(http.MethodPost)
	v1.HandleFunc("/progress", s.handleProgress).Methods(http.MethodGet)
	v1.HandleFunc("/runs", s.handleRuns).Methods(http.MethodGet)
	v1.HandleFunc("/runs/{id:[0-9]+}", s.handleRun).Methods(http.MethodGet)

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	if s.cfg.Prometheus {
		router.Handle("/metrics", promhttp.Handler())
	}

	rpcHandler, err := s.rpcHandler()
	if err != nil {
		return nil, err
	}
	router.Handle("/rpc", rpcHandler)

	return cors.Default().Handler(router), nil
}

func (s *Server) serve(listener net.Listener, handler http.Handler) error {
	s.logger.Info("serving HTTP", "listen_address", listener.Addr().String())
	s.server = http.Server{
		Handler:           handler,
		ReadHeaderTimeout: time.Second * 2,
	}
	return s.server.Serve(listener)
}

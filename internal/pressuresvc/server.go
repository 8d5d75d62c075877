// Package pressuresvc exposes register pressure computation as a JSON-RPC
// 2.0 service over an arbitrary stream (stdio by convention, matching the
// teacher's internal/lsp.Server), using go.lsp.dev/jsonrpc2 in place of the
// teacher's hand-rolled Content-Length framing in internal/lsp/server.go and
// internal/lsp2/server.go.
package pressuresvc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.lsp.dev/jsonrpc2"
	"go.uber.org/zap"

	"github.com/tangzhangming/regpressure/internal/diag"
	"github.com/tangzhangming/regpressure/internal/liveinterval"
	"github.com/tangzhangming/regpressure/internal/mirtext"
	"github.com/tangzhangming/regpressure/internal/pressure"
	"github.com/tangzhangming/regpressure/internal/regclass"
	"github.com/tangzhangming/regpressure/internal/report"
)

// MethodCompute is the JSON-RPC method this service handles.
const MethodCompute = "pressure/compute"

// ComputeParams is the request payload for pressure/compute.
type ComputeParams struct {
	// Source is a block in mirtext format.
	Source string `json:"source"`
	// Variant is "region" (default) or "interval".
	Variant string `json:"variant"`
}

// Server serves pressure/compute requests, building a fresh target instance
// for each request.
type Server struct {
	log *zap.Logger
}

// NewServer returns a Server that logs through log.
func NewServer(log *zap.Logger) *Server {
	return &Server{log: log}
}

// Run serves a single client connection over rwc until it disconnects or ctx
// is canceled.
func (s *Server) Run(ctx context.Context, rwc io.ReadWriteCloser) error {
	stream := jsonrpc2.NewStream(rwc)
	conn := jsonrpc2.NewConn(stream)
	conn.Go(ctx, s.handle)
	<-conn.Done()
	return conn.Err()
}

func (s *Server) handle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	if req.Method() != MethodCompute {
		return reply(ctx, nil, fmt.Errorf("pressuresvc: unknown method %q", req.Method()))
	}

	var params ComputeParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, fmt.Errorf("pressuresvc: %w", err))
	}

	summary, err := s.compute(params)
	if err != nil {
		s.log.Warn("pressure/compute failed", zap.Error(err))
		return reply(ctx, nil, err)
	}
	return reply(ctx, summary, nil)
}

func (s *Server) compute(params ComputeParams) (summary *report.Summary, err error) {
	defer func() {
		if v := recover(); v != nil {
			d := diag.FromPanic("<rpc>", v)
			s.log.Error("tracker invariant violated", zap.String("code", d.Code), zap.String("message", d.Message))
			err = d
		}
	}()

	target := regclass.NewX86_64Target()
	block, perr := mirtext.Parse(target, params.Source)
	if perr != nil {
		return nil, &diag.Diagnostic{Code: diag.R0001, Level: diag.LevelError, Message: perr.Error(), File: "<rpc>"}
	}

	variant := pressure.VariantRegion
	var oracle liveinterval.Oracle
	if params.Variant == "interval" {
		variant = pressure.VariantInterval
		oracle = liveinterval.Compute(block)
	}

	tr := pressure.NewTracker(target, target, target, block, variant, oracle)
	tr.Init(0)
	for tr.Advance() {
	}

	return report.Summarize(tr.Result()), nil
}

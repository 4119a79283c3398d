// Package rpc exposes the evaluation service over gRPC. Messages travel as
// google.protobuf.Struct carrying the same JSON documents the HTTP API serves,
// so no generated code is needed.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/reroll-odds/internal/logger"
	"github.com/xtding233/reroll-odds/internal/service"
	"github.com/xtding233/reroll-odds/internal/tables"
)

const (
	ServiceName = "rerollodds.v1.Odds"

	computeDistributionMethod = "/" + ServiceName + "/ComputeDistribution"
	getTablesMethod           = "/" + ServiceName + "/GetTables"
)

// OddsServer is the server API for the Odds service.
type OddsServer interface {
	ComputeDistribution(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetTables(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OddsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ComputeDistribution", Handler: computeDistributionHandler},
		{MethodName: "GetTables", Handler: getTablesHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rerollodds/v1/odds.proto",
}

func RegisterOddsServer(s grpc.ServiceRegistrar, srv OddsServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func computeDistributionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OddsServer).ComputeDistribution(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: computeDistributionMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OddsServer).ComputeDistribution(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getTablesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OddsServer).GetTables(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getTablesMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OddsServer).GetTables(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Server implements OddsServer on top of an Evaluator.
type Server struct {
	eval *service.Evaluator
}

func NewServer(eval *service.Evaluator) *Server {
	return &Server{eval: eval}
}

func (s *Server) ComputeDistribution(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req service.Request
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}
	resp, err := s.eval.Evaluate(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeReply(resp)
}

type tablesRequest struct {
	Set string `json:"set"`
}

func (s *Server) GetTables(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req tablesRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}
	view, err := s.eval.Tables(req.Set)
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeReply(view)
}

func encodeReply(v any) (*structpb.Struct, error) {
	out, err := toStruct(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// NewGRPCServer builds a gRPC server with the Odds and health services
// registered and request logging installed.
func NewGRPCServer(eval *service.Evaluator) (*grpc.Server, *health.Server) {
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(logUnary))
	RegisterOddsServer(gs, NewServer(eval))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return gs, hs
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, tables.ErrUnknownSet):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		logger.Error("rpc failed", "error", err)
		return status.Error(codes.Internal, err.Error())
	}
}

func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	logger.Debug("grpc request",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration", time.Since(start),
	)
	return resp, err
}

// fromStruct decodes a Struct into v through its JSON form.
func fromStruct(in *structpb.Struct, v any) error {
	if in == nil {
		in = &structpb.Struct{}
	}
	b, err := protojson.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return out, nil
}

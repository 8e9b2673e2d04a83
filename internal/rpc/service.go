// Package rpc exposes the prediction dispatcher as the wknn.Regressor gRPC
// service.
package rpc

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/go-sod/wknn/internal/dispatcher"
	"github.com/go-sod/wknn/internal/errkind"
	"github.com/go-sod/wknn/internal/logging"
	"github.com/go-sod/wknn/internal/metrics"
	"github.com/go-sod/wknn/internal/result/model"
)

const (
	ServiceName   = "wknn.Regressor"
	predictMethod = "/" + ServiceName + "/Predict"
)

type PredictRequest struct {
	Train       []float32    `json:"train"`
	Test        []float32    `json:"test"`
	TrainSource string       `json:"trainSource"`
	TestSource  string       `json:"testSource"`
	Params      model.Params `json:"params"`
}

type RegressorServer interface {
	Predict(ctx context.Context, req *PredictRequest) (*model.Run, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RegressorServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Predict",
			Handler:    predictHandler,
		},
	},
	Streams: []grpc.StreamDesc{},
}

func predictHandler(
	srv interface{},
	ctx context.Context,
	dec func(interface{}) error,
	interceptor grpc.UnaryServerInterceptor,
) (interface{}, error) {
	in := new(PredictRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RegressorServer).Predict(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: predictMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RegressorServer).Predict(ctx, req.(*PredictRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func RegisterRegressorServer(s grpc.ServiceRegistrar, srv RegressorServer) {
	s.RegisterService(&serviceDesc, srv)
}

type Option func(*server)

// WithMaxSamples rejects requests whose series are longer than n.
func WithMaxSamples(n int) Option {
	return func(s *server) {
		s.maxSamples = n
	}
}

func NewServer(predictor dispatcher.Predictor, opts ...Option) (RegressorServer, error) {
	if predictor == nil {
		return nil, fmt.Errorf("predictor is not created")
	}
	s := &server{predictor: predictor}
	for _, f := range opts {
		f(s)
	}
	return s, nil
}

type server struct {
	predictor  dispatcher.Predictor
	maxSamples int
}

var _ RegressorServer = (*server)(nil)

func (s *server) Predict(ctx context.Context, req *PredictRequest) (*model.Run, error) {
	ctx = metrics.WithSource(ctx, metrics.SourceGRPC)
	if s.maxSamples > 0 && (len(req.Train) > s.maxSamples || len(req.Test) > s.maxSamples) {
		return nil, status.Errorf(codes.ResourceExhausted, "series is too large, max allowed len is %d", s.maxSamples)
	}

	run, err := s.predictor.Predict(ctx, dispatcher.Job{
		Train:       req.Train,
		Test:        req.Test,
		TrainSource: req.TrainSource,
		TestSource:  req.TestSource,
		Params:      req.Params,
	})
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	if err := run.CheckFinite(); err != nil {
		return nil, toStatus(ctx, err)
	}
	return run, nil
}

func toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, errkind.ErrPrecondition), errors.Is(err, errkind.ErrArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		logging.FromContext(ctx).Errorf("rpc predict: %v", err)
		return status.Error(codes.Internal, "predict processing error")
	}
}

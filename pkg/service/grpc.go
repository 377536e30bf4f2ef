package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dasmlab/tripglot/pkg/translate"
)

// TranslationServiceName is the fully qualified gRPC service name.
const TranslationServiceName = "tripglot.v1.TranslationService"

// Method names of TranslationServiceName.
const (
	MethodTranslate            = "Translate"
	MethodTranslateBatch       = "TranslateBatch"
	MethodSimplify             = "Simplify"
	MethodTranslateAndSimplify = "TranslateAndSimplify"
	MethodListLanguages        = "ListLanguages"
	MethodListProviders        = "ListProviders"
	MethodSubmitJob            = "SubmitJob"
	MethodGetJob               = "GetJob"
)

// TranslationServiceServer is the server API of TranslationServiceName.
// Every message is a google.protobuf.Struct carrying the JSON form of the
// request and response types of this package.
type TranslationServiceServer interface {
	Translate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	TranslateBatch(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Simplify(context.Context, *structpb.Struct) (*structpb.Struct, error)
	TranslateAndSimplify(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListLanguages(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListProviders(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitJob(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetJob(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type serverMethod func(TranslationServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call serverMethod) grpc.MethodDesc {
	fullMethod := "/" + TranslationServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(TranslationServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(TranslationServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// TranslationServiceDesc describes TranslationServiceName for grpc.Server.
var TranslationServiceDesc = grpc.ServiceDesc{
	ServiceName: TranslationServiceName,
	HandlerType: (*TranslationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler(MethodTranslate, TranslationServiceServer.Translate),
		unaryHandler(MethodTranslateBatch, TranslationServiceServer.TranslateBatch),
		unaryHandler(MethodSimplify, TranslationServiceServer.Simplify),
		unaryHandler(MethodTranslateAndSimplify, TranslationServiceServer.TranslateAndSimplify),
		unaryHandler(MethodListLanguages, TranslationServiceServer.ListLanguages),
		unaryHandler(MethodListProviders, TranslationServiceServer.ListProviders),
		unaryHandler(MethodSubmitJob, TranslationServiceServer.SubmitJob),
		unaryHandler(MethodGetJob, TranslationServiceServer.GetJob),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: TranslationServiceFile,
}

// RegisterTranslationServiceServer registers srv with s.
func RegisterTranslationServiceServer(s grpc.ServiceRegistrar, srv TranslationServiceServer) {
	s.RegisterService(&TranslationServiceDesc, srv)
}

// BatchRequest is the payload of TranslateBatch.
type BatchRequest struct {
	Texts  []string `json:"texts"`
	Source string   `json:"source"`
	Target string   `json:"target"`
}

// BatchResponse is the result of TranslateBatch.
type BatchResponse struct {
	Results []*TranslateResponse `json:"results"`
}

// SimplifyRequest is the payload of Simplify and TranslateAndSimplify.
type SimplifyRequest struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
	Target string `json:"target,omitempty"`
	Level  string `json:"level,omitempty"`
}

// LanguagesResponse is the result of ListLanguages.
type LanguagesResponse struct {
	Languages []translate.Language `json:"languages"`
}

// ProvidersResponse is the result of ListProviders.
type ProvidersResponse struct {
	Providers []translate.ProviderStatus `json:"providers"`
}

// JobRef identifies a batch job.
type JobRef struct {
	JobID string `json:"job_id"`
}

// GRPCServer implements TranslationServiceServer on top of a
// TranslationService and a JobQueue.
type GRPCServer struct {
	service *TranslationService
	jobs    *JobQueue
	logger  *logrus.Logger
}

// NewGRPCServer creates a gRPC front end. jobs may be nil, in which case
// the job methods return Unimplemented.
func NewGRPCServer(svc *TranslationService, jobs *JobQueue, logger *logrus.Logger) *GRPCServer {
	if logger == nil {
		logger = logrus.New()
	}
	return &GRPCServer{service: svc, jobs: jobs, logger: logger}
}

func (s *GRPCServer) Translate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req TranslateRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"source_lang": req.Source,
		"target_lang": req.Target,
		"text_length": len(req.Text),
	}).Debug("Translate request received")

	resp, err := s.service.Translate(ctx, req)
	if err != nil {
		return nil, s.toStatus(MethodTranslate, err)
	}
	return toStruct(resp)
}

func (s *GRPCServer) TranslateBatch(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req BatchRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}

	results, err := s.service.TranslateBatch(ctx, req.Texts, req.Source, req.Target, nil)
	if err != nil {
		return nil, s.toStatus(MethodTranslateBatch, err)
	}
	return toStruct(BatchResponse{Results: results})
}

func (s *GRPCServer) Simplify(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req SimplifyRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}

	resp, err := s.service.Simplify(ctx, req.Text, req.Level)
	if err != nil {
		return nil, s.toStatus(MethodSimplify, err)
	}
	return toStruct(resp)
}

func (s *GRPCServer) TranslateAndSimplify(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req SimplifyRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}

	resp, err := s.service.TranslateAndSimplify(ctx, TranslateRequest{
		Text:   req.Text,
		Source: req.Source,
		Target: req.Target,
	}, req.Level)
	if err != nil {
		return nil, s.toStatus(MethodTranslateAndSimplify, err)
	}
	return toStruct(resp)
}

func (s *GRPCServer) ListLanguages(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return toStruct(LanguagesResponse{Languages: s.service.Languages()})
}

func (s *GRPCServer) ListProviders(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return toStruct(ProvidersResponse{Providers: s.service.Providers(ctx)})
}

func (s *GRPCServer) SubmitJob(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s.jobs == nil {
		return nil, status.Error(codes.Unimplemented, "batch jobs are not enabled")
	}
	var req JobRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}

	jobID, err := s.jobs.CreateJob(req)
	if err != nil {
		return nil, s.toStatus(MethodSubmitJob, err)
	}
	return toStruct(JobRef{JobID: jobID})
}

func (s *GRPCServer) GetJob(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s.jobs == nil {
		return nil, status.Error(codes.Unimplemented, "batch jobs are not enabled")
	}
	var ref JobRef
	if err := fromStruct(in, &ref); err != nil {
		return nil, err
	}
	if ref.JobID == "" {
		return nil, status.Error(codes.InvalidArgument, "job_id is required")
	}

	job, err := s.jobs.GetJob(ref.JobID)
	if err != nil {
		return nil, status.Error(codes.NotFound, err.Error())
	}
	return toStruct(job.Snapshot())
}

func (s *GRPCServer) toStatus(method string, err error) error {
	if errors.Is(err, ErrInvalidRequest) {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	s.logger.WithError(err).WithField("method", method).Error("gRPC request failed")
	return status.Error(codes.Internal, err.Error())
}

// toStruct converts a JSON-tagged value into a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("failed to encode response: %v", err))
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("failed to encode response: %v", err))
	}
	return out, nil
}

// fromStruct decodes a Struct into a JSON-tagged value.
func fromStruct(in *structpb.Struct, v any) error {
	if in == nil {
		in = &structpb.Struct{}
	}
	data, err := protojson.Marshal(in)
	if err != nil {
		return status.Error(codes.InvalidArgument, fmt.Sprintf("malformed request: %v", err))
	}
	if err := json.Unmarshal(data, v); err != nil {
		return status.Error(codes.InvalidArgument, fmt.Sprintf("malformed request: %v", err))
	}
	return nil
}

// TranslationClient calls TranslationServiceName over a client connection.
type TranslationClient struct {
	cc grpc.ClientConnInterface
}

// NewTranslationClient creates a client for cc.
func NewTranslationClient(cc grpc.ClientConnInterface) *TranslationClient {
	return &TranslationClient{cc: cc}
}

func (c *TranslationClient) invoke(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	req, err := toStruct(in)
	if err != nil {
		return err
	}
	resp := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+TranslationServiceName+"/"+method, req, resp, opts...); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := fromStruct(resp, out); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	return nil
}

func (c *TranslationClient) Translate(ctx context.Context, req TranslateRequest, opts ...grpc.CallOption) (*TranslateResponse, error) {
	var out TranslateResponse
	if err := c.invoke(ctx, MethodTranslate, req, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *TranslationClient) TranslateBatch(ctx context.Context, req BatchRequest, opts ...grpc.CallOption) (*BatchResponse, error) {
	var out BatchResponse
	if err := c.invoke(ctx, MethodTranslateBatch, req, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *TranslationClient) Simplify(ctx context.Context, req SimplifyRequest, opts ...grpc.CallOption) (*SimplifyResponse, error) {
	var out SimplifyResponse
	if err := c.invoke(ctx, MethodSimplify, req, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *TranslationClient) TranslateAndSimplify(ctx context.Context, req SimplifyRequest, opts ...grpc.CallOption) (*SimplifyResponse, error) {
	var out SimplifyResponse
	if err := c.invoke(ctx, MethodTranslateAndSimplify, req, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *TranslationClient) ListLanguages(ctx context.Context, opts ...grpc.CallOption) ([]translate.Language, error) {
	var out LanguagesResponse
	if err := c.invoke(ctx, MethodListLanguages, struct{}{}, &out, opts...); err != nil {
		return nil, err
	}
	return out.Languages, nil
}

func (c *TranslationClient) ListProviders(ctx context.Context, opts ...grpc.CallOption) ([]translate.ProviderStatus, error) {
	var out ProvidersResponse
	if err := c.invoke(ctx, MethodListProviders, struct{}{}, &out, opts...); err != nil {
		return nil, err
	}
	return out.Providers, nil
}

func (c *TranslationClient) SubmitJob(ctx context.Context, req JobRequest, opts ...grpc.CallOption) (string, error) {
	var out JobRef
	if err := c.invoke(ctx, MethodSubmitJob, req, &out, opts...); err != nil {
		return "", err
	}
	return out.JobID, nil
}

func (c *TranslationClient) GetJob(ctx context.Context, jobID string, opts ...grpc.CallOption) (*JobSnapshot, error) {
	var out JobSnapshot
	if err := c.invoke(ctx, MethodGetJob, JobRef{JobID: jobID}, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}

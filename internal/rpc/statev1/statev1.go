// Package statev1 declares the Go shape of the state-store gRPC contract
// described in proto/state/v1/state.proto. In a normal build these types
// and the service registration helper are produced by protoc and
// protoc-gen-go-grpc (see the `tool` directives in go.mod); they are
// hand-declared here because that codegen step runs externally, supplied
// by the sidecar SDK rather than by this module.
package statev1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type InitRequest struct {
	Properties map[string]string
}

type InitResponse struct{}

type PingRequest struct{}

type PingResponse struct{}

type FeaturesRequest struct{}

type FeaturesResponse struct {
	Features []string
}

type GetRequest struct {
	Key      string
	Metadata map[string]string
}

type GetResponse struct {
	Value []byte
	Etag  string
	Found bool
}

type SetRequest struct {
	Key      string
	Value    []byte
	Etag     *string
	Metadata map[string]string
}

type SetResponse struct {
	Etag string
}

type DeleteRequest struct {
	Key      string
	Etag     *string
	Metadata map[string]string
}

type DeleteResponse struct{}

type OperationType int32

const (
	OperationTypeUnspecified OperationType = 0
	OperationTypeSet         OperationType = 1
	OperationTypeDelete      OperationType = 2
)

type TransactionalOperation struct {
	Type     OperationType
	Key      string
	Value    []byte
	Etag     *string
	Metadata map[string]string
}

type BulkTransactRequest struct {
	Operations []TransactionalOperation
}

type BulkTransactResponse struct{}

// StateStoreServer is the service surface the sidecar invokes over the
// Unix domain socket, one method per RPC in state.proto.
type StateStoreServer interface {
	Init(context.Context, *InitRequest) (*InitResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	Features(context.Context, *FeaturesRequest) (*FeaturesResponse, error)
	Get(context.Context, *GetRequest) (*GetResponse, error)
	Set(context.Context, *SetRequest) (*SetResponse, error)
	Delete(context.Context, *DeleteRequest) (*DeleteResponse, error)
	BulkTransact(context.Context, *BulkTransactRequest) (*BulkTransactResponse, error)
}

// UnimplementedStateStoreServer can be embedded by implementations that
// only implement a subset of the methods, matching the forward-compatible
// embedding pattern protoc-gen-go-grpc generates.
type UnimplementedStateStoreServer struct{}

func (UnimplementedStateStoreServer) Init(context.Context, *InitRequest) (*InitResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Init not implemented")
}
func (UnimplementedStateStoreServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}
func (UnimplementedStateStoreServer) Features(context.Context, *FeaturesRequest) (*FeaturesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Features not implemented")
}
func (UnimplementedStateStoreServer) Get(context.Context, *GetRequest) (*GetResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Get not implemented")
}
func (UnimplementedStateStoreServer) Set(context.Context, *SetRequest) (*SetResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Set not implemented")
}
func (UnimplementedStateStoreServer) Delete(context.Context, *DeleteRequest) (*DeleteResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Delete not implemented")
}
func (UnimplementedStateStoreServer) BulkTransact(context.Context, *BulkTransactRequest) (*BulkTransactResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method BulkTransact not implemented")
}

// RegisterStateStoreServer registers srv against grpcServer's service
// descriptor, the same call shape protoc-gen-go-grpc emits (compare
// voyagerv1.RegisterDiscoveryServer).
func RegisterStateStoreServer(grpcServer *grpc.Server, srv StateStoreServer) {
	grpcServer.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: "state.v1.StateStore",
	HandlerType: (*StateStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Init", Handler: initHandler},
		{MethodName: "Ping", Handler: pingHandler},
		{MethodName: "Features", Handler: featuresHandler},
		{MethodName: "Get", Handler: getHandler},
		{MethodName: "Set", Handler: setHandler},
		{MethodName: "Delete", Handler: deleteHandler},
		{MethodName: "BulkTransact", Handler: bulkTransactHandler},
	},
	Metadata: "state/v1/state.proto",
}

func initHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(InitRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StateStoreServer).Init(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/state.v1.StateStore/Init"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StateStoreServer).Init(ctx, req.(*InitRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func pingHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(PingRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StateStoreServer).Ping(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/state.v1.StateStore/Ping"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StateStoreServer).Ping(ctx, req.(*PingRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func featuresHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(FeaturesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StateStoreServer).Features(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/state.v1.StateStore/Features"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StateStoreServer).Features(ctx, req.(*FeaturesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StateStoreServer).Get(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/state.v1.StateStore/Get"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StateStoreServer).Get(ctx, req.(*GetRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func setHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SetRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StateStoreServer).Set(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/state.v1.StateStore/Set"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StateStoreServer).Set(ctx, req.(*SetRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func deleteHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(DeleteRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StateStoreServer).Delete(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/state.v1.StateStore/Delete"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StateStoreServer).Delete(ctx, req.(*DeleteRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func bulkTransactHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(BulkTransactRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StateStoreServer).BulkTransact(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/state.v1.StateStore/BulkTransact"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StateStoreServer).BulkTransact(ctx, req.(*BulkTransactRequest))
	}
	return interceptor(ctx, in, info, handler)
}

package committer

import (
	context "context"

	grpc "google.golang.org/grpc"
	codes "google.golang.org/grpc/codes"
	status "google.golang.org/grpc/status"
)

const CommitterService_CommitPartialSignature_FullMethodName = "/committer.CommitterService/CommitPartialSignature"

// CommitterServiceClient is the client API for CommitterService.
type CommitterServiceClient interface {
	// CommitPartialSignature gossips one partial signature to a committer
	// (spec.md §4.6).
	CommitPartialSignature(ctx context.Context, in *CommitPartialSignatureRequest, opts ...grpc.CallOption) (*CommitPartialSignatureReply, error)
}

type committerServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewCommitterServiceClient wraps an established conn.
func NewCommitterServiceClient(cc grpc.ClientConnInterface) CommitterServiceClient {
	return &committerServiceClient{cc}
}

func (c *committerServiceClient) CommitPartialSignature(
	ctx context.Context,
	in *CommitPartialSignatureRequest,
	opts ...grpc.CallOption,
) (*CommitPartialSignatureReply, error) {
	out := new(CommitPartialSignatureReply)
	if err := c.cc.Invoke(ctx, CommitterService_CommitPartialSignature_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// CommitterServiceServer is the server API for CommitterService.
type CommitterServiceServer interface {
	CommitPartialSignature(context.Context, *CommitPartialSignatureRequest) (*CommitPartialSignatureReply, error)
}

// UnimplementedCommitterServiceServer should be embedded for forward compatibility.
type UnimplementedCommitterServiceServer struct{}

func (UnimplementedCommitterServiceServer) CommitPartialSignature(
	context.Context, *CommitPartialSignatureRequest,
) (*CommitPartialSignatureReply, error) {
	return nil, status.Errorf(codes.Unimplemented, "method CommitPartialSignature not implemented")
}

// RegisterCommitterServiceServer registers srv on s.
func RegisterCommitterServiceServer(s grpc.ServiceRegistrar, srv CommitterServiceServer) {
	s.RegisterService(&CommitterService_ServiceDesc, srv)
}

func _CommitterService_CommitPartialSignature_Handler(
	srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor,
) (interface{}, error) {
	in := new(CommitPartialSignatureRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CommitterServiceServer).CommitPartialSignature(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: CommitterService_CommitPartialSignature_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CommitterServiceServer).CommitPartialSignature(ctx, req.(*CommitPartialSignatureRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// CommitterService_ServiceDesc is the grpc.ServiceDesc for CommitterService.
var CommitterService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "committer.CommitterService",
	HandlerType: (*CommitterServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CommitPartialSignature",
			Handler:    _CommitterService_CommitPartialSignature_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "committer/committer.proto",
}

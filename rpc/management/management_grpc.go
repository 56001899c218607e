package management

import (
	context "context"

	grpc "google.golang.org/grpc"
	codes "google.golang.org/grpc/codes"
	status "google.golang.org/grpc/status"
)

const (
	ManagementService_StartListener_FullMethodName      = "/management.ManagementService/StartListener"
	ManagementService_ShutdownListener_FullMethodName    = "/management.ManagementService/ShutdownListener"
	ManagementService_ListFixedTasks_FullMethodName      = "/management.ManagementService/ListFixedTasks"
	ManagementService_NodeActivate_FullMethodName        = "/management.ManagementService/NodeActivate"
	ManagementService_NodeQuit_FullMethodName            = "/management.ManagementService/NodeQuit"
)

// ManagementServiceClient is the client API for ManagementService.
type ManagementServiceClient interface {
	StartListener(ctx context.Context, in *StartListenerRequest, opts ...grpc.CallOption) (*Result, error)
	ShutdownListener(ctx context.Context, in *ShutdownListenerRequest, opts ...grpc.CallOption) (*Result, error)
	ListFixedTasks(ctx context.Context, in *ListFixedTasksRequest, opts ...grpc.CallOption) (*ListFixedTasksReply, error)
	NodeActivate(ctx context.Context, in *NodeActivateRequest, opts ...grpc.CallOption) (*Result, error)
	NodeQuit(ctx context.Context, in *NodeQuitRequest, opts ...grpc.CallOption) (*Result, error)
}

type managementServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewManagementServiceClient wraps an established conn.
func NewManagementServiceClient(cc grpc.ClientConnInterface) ManagementServiceClient {
	return &managementServiceClient{cc}
}

func (c *managementServiceClient) StartListener(ctx context.Context, in *StartListenerRequest, opts ...grpc.CallOption) (*Result, error) {
	out := new(Result)
	if err := c.cc.Invoke(ctx, ManagementService_StartListener_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *managementServiceClient) ShutdownListener(ctx context.Context, in *ShutdownListenerRequest, opts ...grpc.CallOption) (*Result, error) {
	out := new(Result)
	if err := c.cc.Invoke(ctx, ManagementService_ShutdownListener_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *managementServiceClient) ListFixedTasks(ctx context.Context, in *ListFixedTasksRequest, opts ...grpc.CallOption) (*ListFixedTasksReply, error) {
	out := new(ListFixedTasksReply)
	if err := c.cc.Invoke(ctx, ManagementService_ListFixedTasks_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *managementServiceClient) NodeActivate(ctx context.Context, in *NodeActivateRequest, opts ...grpc.CallOption) (*Result, error) {
	out := new(Result)
	if err := c.cc.Invoke(ctx, ManagementService_NodeActivate_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *managementServiceClient) NodeQuit(ctx context.Context, in *NodeQuitRequest, opts ...grpc.CallOption) (*Result, error) {
	out := new(Result)
	if err := c.cc.Invoke(ctx, ManagementService_NodeQuit_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ManagementServiceServer is the server API for ManagementService.
type ManagementServiceServer interface {
	StartListener(context.Context, *StartListenerRequest) (*Result, error)
	ShutdownListener(context.Context, *ShutdownListenerRequest) (*Result, error)
	ListFixedTasks(context.Context, *ListFixedTasksRequest) (*ListFixedTasksReply, error)
	NodeActivate(context.Context, *NodeActivateRequest) (*Result, error)
	NodeQuit(context.Context, *NodeQuitRequest) (*Result, error)
}

// UnimplementedManagementServiceServer should be embedded for forward compatibility.
type UnimplementedManagementServiceServer struct{}

func (UnimplementedManagementServiceServer) StartListener(context.Context, *StartListenerRequest) (*Result, error) {
	return nil, status.Errorf(codes.Unimplemented, "method StartListener not implemented")
}
func (UnimplementedManagementServiceServer) ShutdownListener(context.Context, *ShutdownListenerRequest) (*Result, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ShutdownListener not implemented")
}
func (UnimplementedManagementServiceServer) ListFixedTasks(context.Context, *ListFixedTasksRequest) (*ListFixedTasksReply, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListFixedTasks not implemented")
}
func (UnimplementedManagementServiceServer) NodeActivate(context.Context, *NodeActivateRequest) (*Result, error) {
	return nil, status.Errorf(codes.Unimplemented, "method NodeActivate not implemented")
}
func (UnimplementedManagementServiceServer) NodeQuit(context.Context, *NodeQuitRequest) (*Result, error) {
	return nil, status.Errorf(codes.Unimplemented, "method NodeQuit not implemented")
}

// RegisterManagementServiceServer registers srv on s.
func RegisterManagementServiceServer(s grpc.ServiceRegistrar, srv ManagementServiceServer) {
	s.RegisterService(&ManagementService_ServiceDesc, srv)
}

func _ManagementService_StartListener_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(StartListenerRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ManagementServiceServer).StartListener(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ManagementService_StartListener_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ManagementServiceServer).StartListener(ctx, req.(*StartListenerRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ManagementService_ShutdownListener_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ShutdownListenerRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ManagementServiceServer).ShutdownListener(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ManagementService_ShutdownListener_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ManagementServiceServer).ShutdownListener(ctx, req.(*ShutdownListenerRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ManagementService_ListFixedTasks_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ListFixedTasksRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ManagementServiceServer).ListFixedTasks(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ManagementService_ListFixedTasks_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ManagementServiceServer).ListFixedTasks(ctx, req.(*ListFixedTasksRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ManagementService_NodeActivate_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(NodeActivateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ManagementServiceServer).NodeActivate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ManagementService_NodeActivate_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ManagementServiceServer).NodeActivate(ctx, req.(*NodeActivateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ManagementService_NodeQuit_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(NodeQuitRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ManagementServiceServer).NodeQuit(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ManagementService_NodeQuit_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ManagementServiceServer).NodeQuit(ctx, req.(*NodeQuitRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ManagementService_ServiceDesc is the grpc.ServiceDesc for ManagementService.
var ManagementService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "management.ManagementService",
	HandlerType: (*ManagementServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "StartListener", Handler: _ManagementService_StartListener_Handler},
		{MethodName: "ShutdownListener", Handler: _ManagementService_ShutdownListener_Handler},
		{MethodName: "ListFixedTasks", Handler: _ManagementService_ListFixedTasks_Handler},
		{MethodName: "NodeActivate", Handler: _ManagementService_NodeActivate_Handler},
		{MethodName: "NodeQuit", Handler: _ManagementService_NodeQuit_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "management/management.proto",
}

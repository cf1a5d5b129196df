package v2

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName полное имя gRPC-сервиса.
const ServiceName = "shortener.v2.Shortener"

const (
	methodShorten   = "/" + ServiceName + "/Shorten"
	methodResolve   = "/" + ServiceName + "/Resolve"
	methodAnalytics = "/" + ServiceName + "/Analytics"
)

// ShortenerServer методы сервиса. Сообщения берутся из well-known типов
// protobuf, поэтому сгенерированный код не нужен.
type ShortenerServer interface {
	Shorten(ctx context.Context, longURL *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	Resolve(ctx context.Context, shortID *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	Analytics(ctx context.Context, shortID *wrapperspb.StringValue) (*wrapperspb.Int64Value, error)
}

func unaryHandler[Req any, Resp any](
	fullMethod string,
	call func(ShortenerServer, context.Context, *Req) (*Resp, error),
) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ShortenerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ShortenerServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc описание сервиса для grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ShortenerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Shorten",
			Handler:    unaryHandler(methodShorten, ShortenerServer.Shorten),
		},
		{
			MethodName: "Resolve",
			Handler:    unaryHandler(methodResolve, ShortenerServer.Resolve),
		},
		{
			MethodName: "Analytics",
			Handler:    unaryHandler(methodAnalytics, ShortenerServer.Analytics),
		},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterShortenerServer регистрирует реализацию сервиса.
func RegisterShortenerServer(s grpc.ServiceRegistrar, srv ShortenerServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client клиент сервиса поверх любого grpc.ClientConnInterface.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Shorten возвращает полный короткий URL.
func (c *Client) Shorten(ctx context.Context, longURL string, opts ...grpc.CallOption) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, methodShorten, wrapperspb.String(longURL), out, opts...); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

// Resolve возвращает адрес назначения и засчитывает переход.
func (c *Client) Resolve(ctx context.Context, shortID string, opts ...grpc.CallOption) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, methodResolve, wrapperspb.String(shortID), out, opts...); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

func (c *Client) Analytics(ctx context.Context, shortID string, opts ...grpc.CallOption) (int64, error) {
	out := new(wrapperspb.Int64Value)
	if err := c.cc.Invoke(ctx, methodAnalytics, wrapperspb.String(shortID), out, opts...); err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}

package grpcsvc

import (
	"context"

	"google.golang.org/grpc"
)

const (
	// ServiceName: полное имя gRPC-сервиса, под ним же публикуется статус в grpc.health.v1.
	ServiceName = "furnicart.v1.CartService"

	methodOpenSession    = "/" + ServiceName + "/OpenSession"
	methodCloseSession   = "/" + ServiceName + "/CloseSession"
	methodGetCart        = "/" + ServiceName + "/GetCart"
	methodAddItem        = "/" + ServiceName + "/AddItem"
	methodRemoveItem     = "/" + ServiceName + "/RemoveItem"
	methodUpdateQuantity = "/" + ServiceName + "/UpdateQuantity"
	methodClearCart      = "/" + ServiceName + "/ClearCart"
	methodCheckout       = "/" + ServiceName + "/Checkout"
)

// CartServer: серверная сторона CartService.
type CartServer interface {
	OpenSession(context.Context, *SessionRequest) (*CartReply, error)
	CloseSession(context.Context, *SessionRequest) (*CloseSessionReply, error)
	GetCart(context.Context, *SessionRequest) (*CartReply, error)
	AddItem(context.Context, *AddItemRequest) (*CartReply, error)
	RemoveItem(context.Context, *RemoveItemRequest) (*CartReply, error)
	UpdateQuantity(context.Context, *UpdateQuantityRequest) (*CartReply, error)
	ClearCart(context.Context, *SessionRequest) (*CartReply, error)
	Checkout(context.Context, *CheckoutRequest) (*CheckoutReply, error)
}

var _ CartServer = (*CartService)(nil)

// unaryMethod строит MethodDesc с поддержкой интерсепторов.
func unaryMethod[Req, Resp any](fullMethod string, call func(CartServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	name := fullMethod[len(ServiceName)+2:]
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(CartServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(CartServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// CartServiceDesc описывает CartService для grpc.Server.
var CartServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CartServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(methodOpenSession, CartServer.OpenSession),
		unaryMethod(methodCloseSession, CartServer.CloseSession),
		unaryMethod(methodGetCart, CartServer.GetCart),
		unaryMethod(methodAddItem, CartServer.AddItem),
		unaryMethod(methodRemoveItem, CartServer.RemoveItem),
		unaryMethod(methodUpdateQuantity, CartServer.UpdateQuantity),
		unaryMethod(methodClearCart, CartServer.ClearCart),
		unaryMethod(methodCheckout, CartServer.Checkout),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "furnicart/v1/cart_service",
}

// RegisterCartServer регистрирует реализацию на сервере.
func RegisterCartServer(s grpc.ServiceRegistrar, srv CartServer) {
	s.RegisterService(&CartServiceDesc, srv)
}

// Client: клиент CartService, использующий JSON-кодек.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient создаёт клиента поверх соединения.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func invoke[Resp any](ctx context.Context, c *Client, method string, req any, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	if err := c.conn.Invoke(ctx, method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) OpenSession(ctx context.Context, req *SessionRequest, opts ...grpc.CallOption) (*CartReply, error) {
	return invoke[CartReply](ctx, c, methodOpenSession, req, opts...)
}

func (c *Client) CloseSession(ctx context.Context, req *SessionRequest, opts ...grpc.CallOption) (*CloseSessionReply, error) {
	return invoke[CloseSessionReply](ctx, c, methodCloseSession, req, opts...)
}

func (c *Client) GetCart(ctx context.Context, req *SessionRequest, opts ...grpc.CallOption) (*CartReply, error) {
	return invoke[CartReply](ctx, c, methodGetCart, req, opts...)
}

func (c *Client) AddItem(ctx context.Context, req *AddItemRequest, opts ...grpc.CallOption) (*CartReply, error) {
	return invoke[CartReply](ctx, c, methodAddItem, req, opts...)
}

func (c *Client) RemoveItem(ctx context.Context, req *RemoveItemRequest, opts ...grpc.CallOption) (*CartReply, error) {
	return invoke[CartReply](ctx, c, methodRemoveItem, req, opts...)
}

func (c *Client) UpdateQuantity(ctx context.Context, req *UpdateQuantityRequest, opts ...grpc.CallOption) (*CartReply, error) {
	return invoke[CartReply](ctx, c, methodUpdateQuantity, req, opts...)
}

func (c *Client) ClearCart(ctx context.Context, req *SessionRequest, opts ...grpc.CallOption) (*CartReply, error) {
	return invoke[CartReply](ctx, c, methodClearCart, req, opts...)
}

func (c *Client) Checkout(ctx context.Context, req *CheckoutRequest, opts ...grpc.CallOption) (*CheckoutReply, error) {
	return invoke[CheckoutReply](ctx, c, methodCheckout, req, opts...)
}

package handler

import (
	"context"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

const (
	serviceName      = "storefront.v1.Storefront"
	browserTokenMeta = "x-browser-token"
)

type Empty struct{}

type OpenBrowserResponse struct {
	Token string `json:"token"`
}

type ListProductsRequest struct {
	Category string `json:"category"`
	Query    string `json:"query"`
}

type ListProductsResponse struct {
	Products []domain.Product `json:"products"`
}

type AddToCartRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type ListOrdersResponse struct {
	Orders []domain.Order `json:"orders"`
}

type CancelOrderRequest struct {
	OrderID string `json:"order_id"`
}

type CheckoutRPCRequest struct {
	Address       domain.Address       `json:"address"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	FastDelivery  bool                 `json:"fast_delivery"`
}

type StorefrontServer interface {
	OpenBrowser(context.Context, *Empty) (*OpenBrowserResponse, error)
	ListProducts(context.Context, *ListProductsRequest) (*ListProductsResponse, error)
	SignIn(context.Context, *SignInRequest) (*domain.User, error)
	GetCart(context.Context, *Empty) (*service.CartView, error)
	AddToCart(context.Context, *AddToCartRequest) (*service.CartView, error)
	Checkout(context.Context, *CheckoutRPCRequest) (*domain.Order, error)
	ListOrders(context.Context, *Empty) (*ListOrdersResponse, error)
	CancelOrder(context.Context, *CancelOrderRequest) (*domain.Order, error)
}

type GRPCHandler struct {
	catalog  *service.Catalog
	browsers *service.Browsers
	tokens   *BrowserTokens
	logger   zerolog.Logger
}

func NewGRPCHandler(catalog *service.Catalog, browsers *service.Browsers, tokens *BrowserTokens, logger zerolog.Logger) *GRPCHandler {
	return &GRPCHandler{
		catalog:  catalog,
		browsers: browsers,
		tokens:   tokens,
		logger:   logger.With().Str("component", "grpc").Logger(),
	}
}

// Register adds the storefront service to s.
func (h *GRPCHandler) Register(s grpc.ServiceRegistrar) {
	s.RegisterService(&StorefrontServiceDesc, h)
}

func (h *GRPCHandler) OpenBrowser(ctx context.Context, _ *Empty) (*OpenBrowserResponse, error) {
	_, token, err := h.tokens.NewBrowser()
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &OpenBrowserResponse{Token: token}, nil
}

func (h *GRPCHandler) ListProducts(ctx context.Context, req *ListProductsRequest) (*ListProductsResponse, error) {
	return &ListProductsResponse{Products: h.catalog.Filter(req.Category, req.Query)}, nil
}

func (h *GRPCHandler) SignIn(ctx context.Context, req *SignInRequest) (*domain.User, error) {
	sf, err := h.storefront(ctx)
	if err != nil {
		return nil, err
	}
	user, err := sf.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &user, nil
}

func (h *GRPCHandler) GetCart(ctx context.Context, _ *Empty) (*service.CartView, error) {
	sf, err := h.storefront(ctx)
	if err != nil {
		return nil, err
	}
	view := sf.Cart()
	return &view, nil
}

func (h *GRPCHandler) AddToCart(ctx context.Context, req *AddToCartRequest) (*service.CartView, error) {
	sf, err := h.storefront(ctx)
	if err != nil {
		return nil, err
	}
	if err := sf.AddToCart(ctx, req.ProductID, req.Quantity); err != nil {
		return nil, h.toStatus(err)
	}
	view := sf.Cart()
	return &view, nil
}

func (h *GRPCHandler) Checkout(ctx context.Context, req *CheckoutRPCRequest) (*domain.Order, error) {
	sf, err := h.storefront(ctx)
	if err != nil {
		return nil, err
	}
	order, err := sf.PlaceOrder(ctx, service.CheckoutRequest{
		Address:       req.Address,
		PaymentMethod: req.PaymentMethod,
		FastDelivery:  req.FastDelivery,
	})
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &order, nil
}

func (h *GRPCHandler) ListOrders(ctx context.Context, _ *Empty) (*ListOrdersResponse, error) {
	sf, err := h.storefront(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := sf.Orders(ctx)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &ListOrdersResponse{Orders: orders}, nil
}

func (h *GRPCHandler) CancelOrder(ctx context.Context, req *CancelOrderRequest) (*domain.Order, error) {
	sf, err := h.storefront(ctx)
	if err != nil {
		return nil, err
	}
	order, err := sf.CancelOrder(ctx, req.OrderID)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &order, nil
}

func (h *GRPCHandler) storefront(ctx context.Context) (*service.Storefront, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	values := md.Get(browserTokenMeta)
	if len(values) == 0 || values[0] == "" {
		return nil, status.Error(codes.Unauthenticated, "missing "+browserTokenMeta)
	}
	browserID, err := h.tokens.Parse(values[0])
	if err != nil {
		return nil, h.toStatus(err)
	}
	sf, err := h.browsers.Open(ctx, browserID)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return sf, nil
}

func (h *GRPCHandler) toStatus(err error) error {
	_, code, message := classify(err)
	if code == codes.Internal {
		h.logger.Error().Err(err).Msg("rpc failed")
	}
	return status.Error(code, message)
}

func unaryHandler[Req any, Resp any](name string, call func(StorefrontServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(StorefrontServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/" + name}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(StorefrontServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var StorefrontServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*StorefrontServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("OpenBrowser", StorefrontServer.OpenBrowser),
		unaryHandler("ListProducts", StorefrontServer.ListProducts),
		unaryHandler("SignIn", StorefrontServer.SignIn),
		unaryHandler("GetCart", StorefrontServer.GetCart),
		unaryHandler("AddToCart", StorefrontServer.AddToCart),
		unaryHandler("Checkout", StorefrontServer.Checkout),
		unaryHandler("ListOrders", StorefrontServer.ListOrders),
		unaryHandler("CancelOrder", StorefrontServer.CancelOrder),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "storefront.proto",
}

// StorefrontClient calls the storefront service with the JSON codec.
type StorefrontClient struct {
	cc grpc.ClientConnInterface
}

func NewStorefrontClient(cc grpc.ClientConnInterface) *StorefrontClient {
	return &StorefrontClient{cc: cc}
}

// WithBrowser returns ctx carrying token for calls that need a browser.
func WithBrowser(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, browserTokenMeta, token)
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any) (*Resp, error) {
	out := new(Resp)
	err := cc.Invoke(ctx, "/"+serviceName+"/"+method, in, out, grpc.CallContentSubtype(codecName))
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *StorefrontClient) OpenBrowser(ctx context.Context) (*OpenBrowserResponse, error) {
	return invoke[OpenBrowserResponse](ctx, c.cc, "OpenBrowser", &Empty{})
}

func (c *StorefrontClient) ListProducts(ctx context.Context, req *ListProductsRequest) (*ListProductsResponse, error) {
	return invoke[ListProductsResponse](ctx, c.cc, "ListProducts", req)
}

func (c *StorefrontClient) SignIn(ctx context.Context, req *SignInRequest) (*domain.User, error) {
	return invoke[domain.User](ctx, c.cc, "SignIn", req)
}

func (c *StorefrontClient) GetCart(ctx context.Context) (*service.CartView, error) {
	return invoke[service.CartView](ctx, c.cc, "GetCart", &Empty{})
}

func (c *StorefrontClient) AddToCart(ctx context.Context, req *AddToCartRequest) (*service.CartView, error) {
	return invoke[service.CartView](ctx, c.cc, "AddToCart", req)
}

func (c *StorefrontClient) Checkout(ctx context.Context, req *CheckoutRPCRequest) (*domain.Order, error) {
	return invoke[domain.Order](ctx, c.cc, "Checkout", req)
}

func (c *StorefrontClient) ListOrders(ctx context.Context) (*ListOrdersResponse, error) {
	return invoke[ListOrdersResponse](ctx, c.cc, "ListOrders", &Empty{})
}

func (c *StorefrontClient) CancelOrder(ctx context.Context, req *CancelOrderRequest) (*domain.Order, error) {
	return invoke[domain.Order](ctx, c.cc, "CancelOrder", req)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

var ErrOutOfStock = errors.New("product out of stock")

type Deps struct {
	Catalog         *Catalog
	Auth            *AuthService
	Storage         port.StorageProvider
	Metrics         port.Metrics
	Logger          zerolog.Logger
	FastDeliveryFee decimal.Decimal
}

type CartView struct {
	Items []domain.CartItem `json:"items"`
	Total decimal.Decimal   `json:"total"`
	Count int               `json:"count"`
}

// Storefront is everything one browser sees: its session, cart, theme and
// order history. Calls are serialized so a browser behaves as a single
// logical thread even when requests for it arrive concurrently.
type Storefront struct {
	mu        sync.Mutex
	browserID string
	catalog   *Catalog
	auth      *AuthService
	session   *SessionStore
	cart      *CartStore
	orders    *OrderService
	theme     *ThemeStore
	lastOrder *domain.Order
	logger    zerolog.Logger
	onState   func(*Storefront)
}

func OpenStorefront(ctx context.Context, browserID string, deps Deps) (*Storefront, error) {
	if deps.Metrics == nil {
		deps.Metrics = port.NopMetrics{}
	}

	storage := deps.Storage.Storage(browserID)
	logger := deps.Logger.With().Str("browser_id", browserID).Logger()

	sf := &Storefront{
		browserID: browserID,
		catalog:   deps.Catalog,
		auth:      deps.Auth,
		session:   NewSessionStore(storage, deps.Metrics, logger),
		cart:      NewCartStore(storage, deps.Metrics, logger),
		orders:    NewOrderService(storage, deps.Catalog, deps.FastDeliveryFee, deps.Metrics, logger),
		theme:     NewThemeStore(storage, deps.Metrics),
		logger:    logger,
	}
	sf.session.Subscribe(sf.onIdentityChange)

	if err := sf.theme.Restore(ctx); err != nil {
		return nil, fmt.Errorf("restore theme: %w", err)
	}
	if err := sf.session.Restore(ctx); err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	return sf, nil
}

func (sf *Storefront) onIdentityChange(ctx context.Context, user *domain.User) error {
	sf.lastOrder = nil
	return sf.cart.SwitchIdentity(ctx, user)
}

// stateful reports whether this browser has anything persisted worth
// keeping it open for.
func (sf *Storefront) stateful() bool {
	_, signedIn := sf.session.Current()
	return signedIn || sf.theme.Persisted()
}

func (sf *Storefront) stateChanged() {
	if sf.onState != nil {
		sf.onState(sf)
	}
}

func (sf *Storefront) BrowserID() string {
	return sf.browserID
}

func (sf *Storefront) Catalog() *Catalog {
	return sf.catalog
}

func (sf *Storefront) CurrentUser() (domain.User, bool) {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	return sf.session.Current()
}

// Register creates the account and signs this browser into it.
func (sf *Storefront) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	sf.mu.Lock()
	defer sf.mu.Unlock()

	user, err := sf.auth.Register(ctx, in)
	if err != nil {
		return domain.User{}, err
	}
	if err := sf.session.signIn(ctx, user); err != nil {
		return domain.User{}, err
	}
	sf.stateChanged()
	return user, nil
}

func (sf *Storefront) SignIn(ctx context.Context, email, password string) (domain.User, error) {
	sf.mu.Lock()
	defer sf.mu.Unlock()

	user, err := sf.auth.Authenticate(ctx, email, password)
	if err != nil {
		return domain.User{}, err
	}
	if err := sf.session.signIn(ctx, user); err != nil {
		return domain.User{}, err
	}
	sf.stateChanged()
	return user, nil
}

func (sf *Storefront) SignOut(ctx context.Context) error {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	return sf.session.signOut(ctx)
}

func (sf *Storefront) Theme() domain.Theme {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	return sf.theme.Theme()
}

func (sf *Storefront) ToggleTheme(ctx context.Context) (domain.Theme, error) {
	sf.mu.Lock()
	defer sf.mu.Unlock()

	theme, err := sf.theme.Toggle(ctx)
	if err != nil {
		return theme, err
	}
	sf.stateChanged()
	return theme, nil
}

// AddToCart adds a catalog product the way the detail view does: the
// requested quantity is clamped to [1, stock] first.
func (sf *Storefront) AddToCart(ctx context.Context, productID string, quantity int) error {
	sf.mu.Lock()
	defer sf.mu.Unlock()

	if _, ok := sf.session.Current(); !ok {
		return ErrNoIdentity
	}
	p, ok := sf.catalog.Product(productID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	if !p.InStock() {
		return fmt.Errorf("%w: %s", ErrOutOfStock, productID)
	}
	return sf.cart.Add(ctx, p, p.ClampQuantity(quantity))
}

func (sf *Storefront) RemoveFromCart(ctx context.Context, productID string) error {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	return sf.cart.Remove(ctx, productID)
}

func (sf *Storefront) SetCartQuantity(ctx context.Context, productID string, quantity int) error {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	return sf.cart.SetQuantity(ctx, productID, quantity)
}

func (sf *Storefront) ClearCart(ctx context.Context) error {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	return sf.cart.Clear(ctx)
}

func (sf *Storefront) Cart() CartView {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	return CartView{Items: sf.cart.Items(), Total: sf.cart.Total(), Count: sf.cart.Count()}
}

func (sf *Storefront) Quote(fastDelivery bool) Quote {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	return sf.orders.Quote(sf.cart.Items(), fastDelivery)
}

func (sf *Storefront) PlaceOrder(ctx context.Context, req CheckoutRequest) (domain.Order, error) {
	sf.mu.Lock()
	defer sf.mu.Unlock()

	user, ok := sf.session.Current()
	if !ok {
		return domain.Order{}, ErrNoIdentity
	}
	order, err := sf.orders.Place(ctx, user, sf.cart, req)
	if errors.Is(err, ErrCartNotCleared) {
		sf.lastOrder = &order
		return order, err
	}
	if err != nil {
		return domain.Order{}, err
	}
	sf.lastOrder = &order
	return order, nil
}

// LastOrder is the confirmation of the most recent checkout in this session.
func (sf *Storefront) LastOrder() (domain.Order, bool) {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	if sf.lastOrder == nil {
		return domain.Order{}, false
	}
	return *sf.lastOrder, true
}

func (sf *Storefront) Orders(ctx context.Context) ([]domain.Order, error) {
	sf.mu.Lock()
	defer sf.mu.Unlock()

	user, ok := sf.session.Current()
	if !ok {
		return nil, ErrNoIdentity
	}
	return sf.orders.List(ctx, user.ID)
}

func (sf *Storefront) CancelOrder(ctx context.Context, orderID string) (domain.Order, error) {
	sf.mu.Lock()
	defer sf.mu.Unlock()

	user, ok := sf.session.Current()
	if !ok {
		return domain.Order{}, ErrNoIdentity
	}
	return sf.orders.Cancel(ctx, user.ID, orderID)
}

// Browsers keeps one Storefront per browser ID for the lifetime of the
// process. Browsers with nothing persisted (no session, no theme choice) are
// rebuilt on every Open and only kept once they sign in or pick a theme, so
// anonymous traffic does not accumulate.
type Browsers struct {
	mu   sync.Mutex
	deps Deps
	open map[string]*Storefront
}

func NewBrowsers(deps Deps) *Browsers {
	return &Browsers{deps: deps, open: make(map[string]*Storefront)}
}

func (b *Browsers) Open(ctx context.Context, browserID string) (*Storefront, error) {
	if browserID == "" || browserID == AccountsNamespace {
		return nil, fmt.Errorf("invalid browser id %q", browserID)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if sf, ok := b.open[browserID]; ok {
		return sf, nil
	}
	sf, err := OpenStorefront(ctx, browserID, b.deps)
	if err != nil {
		return nil, err
	}
	if sf.stateful() {
		b.open[browserID] = sf
	} else {
		sf.onState = b.retain
	}
	return sf, nil
}

// retain keeps sf once it has persisted state. An instance opened
// concurrently for the same browser that got retained first wins.
func (b *Browsers) retain(sf *Storefront) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sf.onState = nil
	if _, ok := b.open[sf.browserID]; !ok {
		b.open[sf.browserID] = sf
	}
}

func (b *Browsers) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.open)
}

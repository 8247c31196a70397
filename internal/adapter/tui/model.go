package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

type view int

const (
	stay view = iota - 1
	viewCatalog
	viewDetail
	viewCart
	viewCheckout
	viewOrders
	viewAuth
)

// Checkout form layout: the address fields come first, followed by the
// payment selector, the fast delivery toggle and the submit row.
const (
	fieldStreet = iota
	fieldCity
	fieldState
	fieldPostal
	rowPayment
	rowFast
	rowSubmit
)

const (
	authEmail = iota
	authPassword
	authFullName
)

type actionMsg struct {
	status string
	next   view
	err    error
}

type ordersMsg struct {
	orders []domain.Order
	err    error
}

// Model is the terminal storefront for a single browser.
type Model struct {
	ctx   context.Context
	store *service.Storefront

	view   view
	status string

	categories []domain.Category
	category   int
	query      string
	searching  bool
	products   []domain.Product
	cursor     int

	detail   domain.Product
	quantity int

	cartCursor int

	checkout     form
	checkoutRow  int
	payment      domain.PaymentMethod
	fastDelivery bool

	orders      []domain.Order
	orderCursor int

	auth        form
	registering bool
}

func New(ctx context.Context, store *service.Storefront) Model {
	m := Model{
		ctx:        ctx,
		store:      store,
		view:       viewCatalog,
		status:     "Welcome!",
		categories: store.Catalog().Categories(),
		payment:    domain.PaymentMethodCard,
	}
	m.refilter()
	m.resetAuth(false)
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.view {
		case viewDetail:
			return m.updateDetail(msg)
		case viewCart:
			return m.updateCart(msg)
		case viewCheckout:
			return m.updateCheckout(msg)
		case viewOrders:
			return m.updateOrders(msg)
		case viewAuth:
			return m.updateAuth(msg)
		default:
			return m.updateCatalog(msg)
		}
	case actionMsg:
		return m.handleAction(msg)
	case ordersMsg:
		if msg.err != nil {
			return m.handleAction(actionMsg{err: msg.err, next: stay})
		}
		m.orders = msg.orders
		m.orderCursor = clamp(m.orderCursor, len(m.orders))
	}
	return m, nil
}

func (m Model) handleAction(msg actionMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if errors.Is(msg.err, service.ErrNoIdentity) {
			m.view = viewAuth
			m.status = "Sign in to continue"
			return m, nil
		}
		m.status = "Error: " + msg.err.Error()
		return m, nil
	}
	if msg.status != "" {
		m.status = msg.status
	}
	if msg.next != stay {
		m.view = msg.next
	}
	m.cartCursor = clamp(m.cartCursor, len(m.store.Cart().Items))
	if m.view == viewOrders {
		return m, m.loadOrders()
	}
	return m, nil
}

func (m Model) updateCatalog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch msg.Type {
		case tea.KeyEnter, tea.KeyEsc:
			m.searching = false
		case tea.KeyRunes, tea.KeySpace:
			if msg.Type == tea.KeySpace {
				m.query += " "
			} else {
				m.query += string(msg.Runes)
			}
			m.refilter()
		case tea.KeyBackspace:
			if r := []rune(m.query); len(r) > 0 {
				m.query = string(r[:len(r)-1])
				m.refilter()
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.products)-1 {
			m.cursor++
		}
	case "right", "l", "tab":
		m.category = (m.category + 1) % (len(m.categories) + 1)
		m.refilter()
	case "left", "h", "shift+tab":
		m.category = (m.category + len(m.categories)) % (len(m.categories) + 1)
		m.refilter()
	case "/":
		m.searching = true
	case "esc":
		m.query = ""
		m.category = 0
		m.refilter()
	case "enter":
		if len(m.products) > 0 {
			m.detail = m.products[m.cursor]
			m.quantity = m.detail.ClampQuantity(1)
			m.view = viewDetail
		}
	case "c":
		m.view = viewCart
	case "o":
		m.view = viewOrders
		return m, m.loadOrders()
	case "a":
		if u, ok := m.store.CurrentUser(); ok {
			m.status = "Signed in as " + u.Email
			return m, nil
		}
		m.resetAuth(false)
		m.view = viewAuth
	case "x":
		return m, m.do("Signed out", stay, func() error { return m.store.SignOut(m.ctx) })
	case "t":
		return m, m.do("", stay, func() error {
			_, err := m.store.ToggleTheme(m.ctx)
			return err
		})
	}
	return m, nil
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace", "q":
		m.view = viewCatalog
	case "+", "=", "right":
		m.quantity = m.detail.ClampQuantity(m.quantity + 1)
	case "-", "left":
		m.quantity = m.detail.ClampQuantity(m.quantity - 1)
	case "enter", "a":
		if !m.detail.InStock() {
			m.status = m.detail.Name + " is out of stock"
			return m, nil
		}
		p, qty := m.detail, m.quantity
		return m, m.do(fmt.Sprintf("Added %d × %s to cart", qty, p.Name), stay, func() error {
			return m.store.AddToCart(m.ctx, p.ID, qty)
		})
	}
	return m, nil
}

func (m Model) updateCart(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.store.Cart().Items
	switch msg.String() {
	case "esc", "q":
		m.view = viewCatalog
	case "up", "k":
		if m.cartCursor > 0 {
			m.cartCursor--
		}
	case "down", "j":
		if m.cartCursor < len(items)-1 {
			m.cartCursor++
		}
	case "+", "=":
		if len(items) > 0 {
			it := items[m.cartCursor]
			return m, m.do("", stay, func() error {
				return m.store.SetCartQuantity(m.ctx, it.ProductID, it.Quantity+1)
			})
		}
	case "-":
		if len(items) > 0 {
			it := items[m.cartCursor]
			return m, m.do("", stay, func() error {
				return m.store.SetCartQuantity(m.ctx, it.ProductID, it.Quantity-1)
			})
		}
	case "d":
		if len(items) > 0 {
			it := items[m.cartCursor]
			return m, m.do("Removed item", stay, func() error {
				return m.store.RemoveFromCart(m.ctx, it.ProductID)
			})
		}
	case "enter":
		if _, ok := m.store.CurrentUser(); !ok {
			m.view = viewAuth
			m.status = "Sign in to continue"
			return m, nil
		}
		if len(items) == 0 {
			m.status = "Your cart is empty"
			return m, nil
		}
		m.resetCheckout()
		m.view = viewCheckout
	}
	return m, nil
}

func (m Model) updateCheckout(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.view = viewCart
		return m, nil
	case "tab", "down":
		m.checkoutRow = (m.checkoutRow + 1) % (rowSubmit + 1)
		return m, nil
	case "shift+tab", "up":
		m.checkoutRow = (m.checkoutRow + rowSubmit) % (rowSubmit + 1)
		return m, nil
	}

	switch m.checkoutRow {
	case rowPayment:
		if msg.Type == tea.KeySpace || msg.Type == tea.KeyEnter {
			if m.payment == domain.PaymentMethodCard {
				m.payment = domain.PaymentMethodCOD
			} else {
				m.payment = domain.PaymentMethodCard
			}
		}
	case rowFast:
		if msg.Type == tea.KeySpace || msg.Type == tea.KeyEnter {
			if m.store.Quote(true).FastDeliveryAvailable {
				m.fastDelivery = !m.fastDelivery
			} else {
				m.status = "Fast delivery is not available for these items"
			}
		}
	case rowSubmit:
		if msg.Type == tea.KeyEnter {
			req := service.CheckoutRequest{
				Address: domain.Address{
					StreetAddress: m.checkout.value(fieldStreet),
					City:          m.checkout.value(fieldCity),
					State:         m.checkout.value(fieldState),
					PostalCode:    m.checkout.value(fieldPostal),
				},
				PaymentMethod: m.payment,
				FastDelivery:  m.fastDelivery,
			}
			return m, func() tea.Msg {
				order, err := m.store.PlaceOrder(m.ctx, req)
				if err != nil {
					return actionMsg{err: err, next: stay}
				}
				return actionMsg{status: "Order placed! Total $" + order.TotalAmount.StringFixed(2), next: viewOrders}
			}
		}
	default:
		m.checkout.focus = m.checkoutRow
		m.checkout.edit(msg)
	}
	return m, nil
}

func (m Model) updateOrders(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.view = viewCatalog
	case "up", "k":
		if m.orderCursor > 0 {
			m.orderCursor--
		}
	case "down", "j":
		if m.orderCursor < len(m.orders)-1 {
			m.orderCursor++
		}
	case "x":
		if len(m.orders) == 0 {
			return m, nil
		}
		id := m.orders[m.orderCursor].ID
		return m, m.do("Order cancelled", viewOrders, func() error {
			_, err := m.store.CancelOrder(m.ctx, id)
			return err
		})
	}
	return m, nil
}

func (m Model) updateAuth(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.view = viewCatalog
		return m, nil
	case "ctrl+r":
		m.resetAuth(!m.registering)
		return m, nil
	case "tab", "down":
		m.auth.focus = (m.auth.focus + 1) % len(m.auth.fields)
		return m, nil
	case "shift+tab", "up":
		m.auth.focus = (m.auth.focus + len(m.auth.fields) - 1) % len(m.auth.fields)
		return m, nil
	case "enter":
		email, password := m.auth.value(authEmail), m.auth.fields[authPassword].value
		if m.registering {
			in := service.RegisterInput{Email: email, Password: password, FullName: m.auth.value(authFullName)}
			m.auth.fields[authPassword].value = ""
			return m, m.do("Welcome, "+email, viewCatalog, func() error {
				_, err := m.store.Register(m.ctx, in)
				return err
			})
		}
		m.auth.fields[authPassword].value = ""
		return m, m.do("Signed in as "+email, viewCatalog, func() error {
			_, err := m.store.SignIn(m.ctx, email, password)
			return err
		})
	}
	m.auth.edit(msg)
	return m, nil
}

func (m Model) do(status string, next view, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return actionMsg{status: status, next: next, err: fn()}
	}
}

func (m Model) loadOrders() tea.Cmd {
	return func() tea.Msg {
		orders, err := m.store.Orders(m.ctx)
		return ordersMsg{orders: orders, err: err}
	}
}

func (m *Model) refilter() {
	m.products = m.store.Catalog().Filter(m.selectedCategory(), m.query)
	m.cursor = clamp(m.cursor, len(m.products))
}

func (m Model) selectedCategory() string {
	if m.category == 0 {
		return service.AllCategories
	}
	return m.categories[m.category-1].ID
}

func (m *Model) resetAuth(register bool) {
	m.registering = register
	fields := []field{{label: "Email"}, {label: "Password", secret: true}}
	if register {
		fields = append(fields, field{label: "Full name"})
	}
	m.auth = newForm(fields...)
}

func (m *Model) resetCheckout() {
	m.checkout = newForm(
		field{label: "Street address"},
		field{label: "City"},
		field{label: "State"},
		field{label: "Postal code"},
	)
	m.checkoutRow = fieldStreet
	m.payment = domain.PaymentMethodCard
	m.fastDelivery = false
}

func clamp(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

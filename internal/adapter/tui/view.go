package tui

import (
	"fmt"
	"strings"

	"github.com/rl1809/storefront/internal/core/domain"
)

func (m Model) View() string {
	b := &strings.Builder{}
	m.renderHeader(b)

	switch m.view {
	case viewDetail:
		m.renderDetail(b)
	case viewCart:
		m.renderCart(b)
	case viewCheckout:
		m.renderCheckout(b)
	case viewOrders:
		m.renderOrders(b)
	case viewAuth:
		m.renderAuth(b)
	default:
		m.renderCatalog(b)
	}

	fmt.Fprintf(b, "\nStatus: %s\n", m.status)
	fmt.Fprintf(b, "%s\n", m.help())
	return b.String()
}

func (m Model) renderHeader(b *strings.Builder) {
	who := "guest"
	if u, ok := m.store.CurrentUser(); ok {
		who = u.Email
	}
	cart := m.store.Cart()
	fmt.Fprintf(b, "Storefront  [%s]  %s  cart: %d ($%s)\n\n",
		m.store.Theme(), who, cart.Count, cart.Total.StringFixed(2))
}

func (m Model) renderCatalog(b *strings.Builder) {
	names := []string{"All Products"}
	for _, c := range m.categories {
		names = append(names, c.Name)
	}
	for i, n := range names {
		if i == m.category {
			fmt.Fprintf(b, "[%s] ", n)
		} else {
			fmt.Fprintf(b, " %s  ", n)
		}
	}
	b.WriteString("\n")

	cursor := ""
	if m.searching {
		cursor = "_"
	}
	fmt.Fprintf(b, "Search: %s%s\n\n", m.query, cursor)

	if m.category == 0 && strings.TrimSpace(m.query) == "" {
		renderRail(b, "Trending Now", m.store.Catalog().Trending())
		renderRail(b, "Special Offers", m.store.Catalog().OnOffer())
	}

	if len(m.products) == 0 {
		b.WriteString("No products found\n")
		return
	}
	for i, p := range m.products {
		marker := " "
		if i == m.cursor {
			marker = ">"
		}
		fmt.Fprintf(b, " %s %-30s %s  %s\n", marker, p.Name, priceTag(p), p.StockLabel())
	}
}

func renderRail(b *strings.Builder, title string, ps []domain.Product) {
	if len(ps) == 0 {
		return
	}
	names := make([]string, 0, len(ps))
	for _, p := range ps {
		names = append(names, p.Name)
	}
	fmt.Fprintf(b, "%s: %s\n\n", title, strings.Join(names, " · "))
}

func priceTag(p domain.Product) string {
	if p.DiscountPercentage > 0 {
		return fmt.Sprintf("$%s (was $%s, -%d%%)", p.EffectivePrice().StringFixed(2), p.Price.StringFixed(2), p.DiscountPercentage)
	}
	return "$" + p.Price.StringFixed(2)
}

func (m Model) renderDetail(b *strings.Builder) {
	p := m.detail
	fmt.Fprintf(b, "%s\n", p.Name)
	if c, ok := m.store.Catalog().Category(p.CategoryID); ok {
		fmt.Fprintf(b, "Category: %s\n", c.Name)
	}
	fmt.Fprintf(b, "%s\n\n", p.Description)
	fmt.Fprintf(b, "Price: %s\n", priceTag(p))
	fmt.Fprintf(b, "Rating: %.1f (%d reviews)\n", p.Rating, p.ReviewsCount)
	fmt.Fprintf(b, "Stock: %s\n", p.StockLabel())
	if p.FastDeliveryAvailable {
		b.WriteString("Fast delivery available\n")
	}
	if p.InStock() {
		fmt.Fprintf(b, "\nQuantity: %d\n", m.quantity)
	} else {
		b.WriteString("\nOut of Stock\n")
	}
}

func (m Model) renderCart(b *strings.Builder) {
	cart := m.store.Cart()
	b.WriteString("Shopping Cart\n\n")
	if len(cart.Items) == 0 {
		b.WriteString("Your cart is empty\n")
		return
	}
	for i, it := range cart.Items {
		marker := " "
		if i == m.cartCursor {
			marker = ">"
		}
		p, ok := it.Product.Get()
		if !ok {
			continue
		}
		fmt.Fprintf(b, " %s %-30s x%d  $%s\n", marker, p.Name, it.Quantity, it.LineTotal().StringFixed(2))
	}
	fmt.Fprintf(b, "\nTotal: $%s\n", cart.Total.StringFixed(2))
}

func (m Model) renderCheckout(b *strings.Builder) {
	b.WriteString("Checkout\n\nShipping address\n")
	m.checkout.render(b, 0, m.checkoutRow)

	marker := func(row int) string {
		if row == m.checkoutRow {
			return ">"
		}
		return " "
	}
	fmt.Fprintf(b, " %s Payment: %s\n", marker(rowPayment), m.payment.Label())

	q := m.store.Quote(m.fastDelivery)
	if q.FastDeliveryAvailable {
		check := " "
		if q.FastDelivery {
			check = "x"
		}
		fmt.Fprintf(b, " %s [%s] Fast delivery (+$%s)\n", marker(rowFast), check, m.store.Quote(true).FastDeliveryFee.StringFixed(2))
	} else {
		fmt.Fprintf(b, " %s Fast delivery unavailable\n", marker(rowFast))
	}

	fmt.Fprintf(b, "\nSubtotal: $%s\n", q.Subtotal.StringFixed(2))
	if q.FastDelivery {
		fmt.Fprintf(b, "Fast delivery: $%s\n", q.FastDeliveryFee.StringFixed(2))
	}
	fmt.Fprintf(b, "Total: $%s\n", q.Total.StringFixed(2))
	fmt.Fprintf(b, "\n %s [ Place order ]\n", marker(rowSubmit))
}

func (m Model) renderOrders(b *strings.Builder) {
	if last, ok := m.store.LastOrder(); ok {
		fmt.Fprintf(b, "Thank you! Order %s confirmed.\n\n", shortID(last.ID))
	}
	b.WriteString("My Orders\n\n")
	if len(m.orders) == 0 {
		b.WriteString("No orders yet\n")
		return
	}
	for i, o := range m.orders {
		marker := " "
		if i == m.orderCursor {
			marker = ">"
		}
		fmt.Fprintf(b, " %s #%s  %s  %-10s $%s  %s\n", marker, shortID(o.ID),
			o.CreatedAt.Format("Jan 2, 2006"), o.Status.Label(), o.TotalAmount.StringFixed(2), o.PaymentMethod.Label())
		for _, it := range o.Items {
			name := it.ProductID
			if p, ok := it.Product.Get(); ok {
				name = p.Name
			}
			fmt.Fprintf(b, "      %s x%d  $%s\n", name, it.Quantity, it.LineTotal().StringFixed(2))
		}
		if note := o.StatusNote(); note != "" {
			fmt.Fprintf(b, "      %s\n", note)
		}
	}
}

func (m Model) renderAuth(b *strings.Builder) {
	if m.registering {
		b.WriteString("Create Account\n\n")
	} else {
		b.WriteString("Sign In\n\n")
	}
	m.auth.render(b, 0, m.auth.focus)
}

func (m Model) help() string {
	switch m.view {
	case viewDetail:
		return "+/- quantity  enter add to cart  esc back"
	case viewCart:
		return "up/down select  +/- quantity  d remove  enter checkout  esc back"
	case viewCheckout:
		return "tab next field  space toggle  enter place order  esc back"
	case viewOrders:
		return "up/down select  x cancel order  esc back"
	case viewAuth:
		return "tab next field  ctrl+r sign in/register  enter submit  esc back"
	}
	if m.searching {
		return "type to search  enter done"
	}
	return "up/down move  left/right category  / search  enter details  c cart  o orders  a sign in  x sign out  t theme  q quit"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

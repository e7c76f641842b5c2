// Package tui is the interactive terminal storefront. Keystrokes in the search
// box drive the debounced search; the product list follows the latest view.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"storefront/models"
	"storefront/service"
	"storefront/utils"
)

type focusArea int

const (
	focusSearch focusArea = iota
	focusProducts
	focusCart
)

const listHeight = 12

// searchViewMsg carries a new search view from the coordinator subscription
type searchViewMsg service.SearchView

// cartMsg is the result of a cart command
type cartMsg struct {
	view service.CartView
	err  error
}

// initMsg reports the end of the initial catalog and cart load
type initMsg struct {
	err error
}

// Model is the bubbletea model of the storefront screen
type Model struct {
	ctx   context.Context
	sf    *service.Storefront
	views <-chan service.SearchView
	unsub func()

	input      textinput.Model
	focus      focusArea
	cursor     int
	cartCursor int
	loading    bool

	products service.SearchView
	cart     service.CartView
	status   *models.Notification

	width  int
	styles Styles
}

// New creates the storefront screen for sf. The storefront must not be
// initialized yet; Init loads it.
func New(ctx context.Context, sf *service.Storefront) Model {
	input := textinput.New()
	input.Placeholder = "Search for items/categories"
	input.Prompt = "🔍 "
	input.CharLimit = 64
	input.Focus()

	views, unsub := sf.SearchCoordinator().Subscribe()
	return Model{
		ctx:      ctx,
		sf:       sf,
		views:    views,
		unsub:    unsub,
		input:    input,
		loading:  true,
		products: sf.Products(),
		cart:     sf.Cart(),
		width:    100,
		styles:   DefaultStyles(),
	}
}

// Init starts the initial load and the subscription pump
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadCmd(), m.waitForView())
}

func (m Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		return initMsg{err: m.sf.Init(m.ctx)}
	}
}

func (m Model) waitForView() tea.Cmd {
	views := m.views
	return func() tea.Msg {
		view, ok := <-views
		if !ok {
			return nil
		}
		return searchViewMsg(view)
	}
}

func (m Model) cartCmd(op func(ctx context.Context, productID string) (service.CartView, error), productID string) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		view, err := op(ctx, productID)
		return cartMsg{view: view, err: err}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case initMsg:
		m.loading = false
		m.products = m.sf.Products()
		m.cart = m.sf.Cart()
		m.takeNotifications()
		return m, nil

	case searchViewMsg:
		m.products = service.SearchView(msg)
		m.cursor = clamp(m.cursor, len(m.products.Products))
		return m, m.waitForView()

	case cartMsg:
		m.cart = msg.view
		m.cartCursor = clamp(m.cartCursor, len(m.cart.Items))
		m.takeNotifications()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.unsub()
		return m, tea.Quit
	case tea.KeyTab:
		m.setFocus((m.focus + 1) % 3)
		return m, nil
	case tea.KeyShiftTab:
		m.setFocus((m.focus + 2) % 3)
		return m, nil
	case tea.KeyEsc:
		m.setFocus(focusSearch)
		return m, nil
	}

	if m.focus == focusSearch {
		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if value := m.input.Value(); value != before {
			m.sf.Search(value)
		}
		if msg.Type == tea.KeyDown || msg.Type == tea.KeyEnter {
			m.setFocus(focusProducts)
		}
		return m, cmd
	}

	key := msg.String()
	if key == "q" {
		m.unsub()
		return m, tea.Quit
	}

	switch m.focus {
	case focusProducts:
		switch key {
		case "up", "k":
			m.cursor = clamp(m.cursor-1, len(m.products.Products))
		case "down", "j":
			m.cursor = clamp(m.cursor+1, len(m.products.Products))
		case "enter", "a":
			if p, ok := m.selectedProduct(); ok {
				return m, m.cartCmd(m.sf.AddToCart, p.ID)
			}
		case "/":
			m.setFocus(focusSearch)
		}

	case focusCart:
		switch key {
		case "up", "k":
			m.cartCursor = clamp(m.cartCursor-1, len(m.cart.Items))
		case "down", "j":
			m.cartCursor = clamp(m.cartCursor+1, len(m.cart.Items))
		case "+", "=":
			if item, ok := m.selectedCartItem(); ok {
				return m, m.cartCmd(m.sf.Increment, item.ProductID)
			}
		case "-", "_":
			if item, ok := m.selectedCartItem(); ok {
				return m, m.cartCmd(m.sf.Decrement, item.ProductID)
			}
		}
	}
	return m, nil
}

func (m *Model) setFocus(f focusArea) {
	m.focus = f
	if f == focusSearch {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m *Model) takeNotifications() {
	notes := m.sf.Notifications()
	if len(notes) > 0 {
		last := notes[len(notes)-1]
		m.status = &last
	}
}

func (m Model) selectedProduct() (models.Product, bool) {
	if m.cursor < 0 || m.cursor >= len(m.products.Products) {
		return models.Product{}, false
	}
	return m.products.Products[m.cursor], true
}

func (m Model) selectedCartItem() (models.CartItem, bool) {
	if m.cartCursor < 0 || m.cartCursor >= len(m.cart.Items) {
		return models.CartItem{}, false
	}
	return m.cart.Items[m.cartCursor], true
}

// View renders the screen
func (m Model) View() string {
	var b strings.Builder

	header := m.styles.Title.Render("QKart")
	if session := m.sf.Session(); session.Authenticated() {
		header += m.styles.Muted.Render(fmt.Sprintf("  %s · balance %s", session.Username, utils.FormatAmount(session.Balance)))
	} else {
		header += m.styles.Muted.Render("  not logged in")
	}
	b.WriteString(header + "\n")
	b.WriteString(m.styles.pane(m.focus == focusSearch).Render(m.input.View()) + "\n")

	productsWidth := m.width*3/5 - 4
	if productsWidth < 30 {
		productsWidth = 30
	}
	products := m.styles.pane(m.focus == focusProducts).Width(productsWidth).Render(m.renderProducts())
	cart := m.styles.pane(m.focus == focusCart).Render(m.renderCart())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, products, cart) + "\n")

	b.WriteString(m.renderStatus() + "\n")
	b.WriteString(m.styles.Muted.Render("tab: switch pane · enter/a: add · +/-: quantity · esc: search · q: quit"))
	return b.String()
}

func (m Model) renderProducts() string {
	if m.loading {
		return "Loading Products..."
	}

	var b strings.Builder
	switch m.products.Phase {
	case service.SearchPending:
		b.WriteString(m.styles.Muted.Render("searching \""+m.products.Query+"\"...") + "\n")
	case service.SearchFailed:
		if m.products.Err != nil {
			b.WriteString(m.styles.Error.Render(m.products.Err.Message) + "\n")
		}
	}

	if m.products.NotFound && m.products.Phase != service.SearchFailed {
		b.WriteString("No products found")
		return b.String()
	}

	start := 0
	if m.cursor >= listHeight {
		start = m.cursor - listHeight + 1
	}
	for i := start; i < len(m.products.Products) && i < start+listHeight; i++ {
		p := m.products.Products[i]
		line := fmt.Sprintf("%-34s %-10s %8s %s", truncate(p.Name, 34), truncate(p.Category, 10),
			utils.FormatAmount(p.Cost), strings.Repeat("★", p.Rating))
		if i == m.cursor && m.focus == focusProducts {
			b.WriteString(m.styles.Selected.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderCart() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Cart") + "\n")
	if len(m.cart.Items) == 0 {
		b.WriteString(m.styles.Muted.Render("Cart is empty. Add an item to the cart and it will show up here."))
		return b.String()
	}

	for i, item := range m.cart.Items {
		line := fmt.Sprintf("%-24s x%-3d %8s", truncate(item.Name, 24), item.Qty, utils.FormatAmount(item.LineTotal()))
		if i == m.cartCursor && m.focus == focusCart {
			b.WriteString(m.styles.Selected.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Products %d\n", m.cart.Totals.ItemCount))
	b.WriteString(m.styles.Total.Render("Order total " + utils.FormatAmount(m.cart.Totals.Subtotal)))
	return b.String()
}

func (m Model) renderStatus() string {
	if m.status == nil {
		return ""
	}
	switch m.status.Variant {
	case "success":
		return m.styles.Success.Render(m.status.Message)
	case "warning":
		return m.styles.Warning.Render(m.status.Message)
	}
	return m.styles.Error.Render(m.status.Message)
}

func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

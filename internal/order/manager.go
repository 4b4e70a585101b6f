package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wichananm65/shopper-backend/internal/identity"
	"github.com/wichananm65/shopper-backend/internal/payment"
)

// ScopeAll is the view key of the administrator's all-orders list.
const ScopeAll = "*"

type Options struct {
	ShippingFee  decimal.Decimal
	DeliveryDays int
	// Products re-snapshots catalog data on reorder. Optional.
	Products ProductLookup
	Now      func() time.Time
}

// CommitRequest is everything needed to persist a new order. OrderID is
// optional; a staged order keeps the id it was given at checkout.
type CommitRequest struct {
	OrderID         string
	Items           []Item
	Total           decimal.Decimal
	PaymentMethod   payment.MethodType
	ShippingAddress string
	PhoneNumber     string
	Note            string
}

// Manager turns cart snapshots into orders, holds each user's pending
// (unconfirmed) order and applies status transitions. It keeps the last
// loaded order list per scope (a user id or ScopeAll) for observers.
type Manager struct {
	repo         Repository
	products     ProductLookup
	shippingFee  decimal.Decimal
	deliveryDays int
	now          func() time.Time

	statusLocks *orderLocks

	mu      sync.Mutex
	pending map[string]PendingOrder
	views   map[string][]Order
	subs    map[string]map[int]chan struct{}
	nextSub int
}

func NewManager(repo Repository, opts Options) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DeliveryDays <= 0 {
		opts.DeliveryDays = 7
	}
	return &Manager{
		repo:         repo,
		products:     opts.Products,
		shippingFee:  opts.ShippingFee,
		deliveryDays: opts.DeliveryDays,
		now:          opts.Now,
		statusLocks:  newOrderLocks(),
		pending:      make(map[string]PendingOrder),
		views:        make(map[string][]Order),
		subs:         make(map[string]map[int]chan struct{}),
	}
}

func (m *Manager) ShippingFee() decimal.Decimal {
	return m.shippingFee
}

func newOrderNumber() string {
	return "DH" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// CommitOrder persists a new PENDING order for actor and refreshes actor's
// order list. Without an actor it does nothing.
func (m *Manager) CommitOrder(ctx context.Context, actor *identity.Identity, req CommitRequest) (Order, error) {
	if actor == nil {
		return Order{}, nil
	}
	now := m.now().UTC()
	eta := now.AddDate(0, 0, m.deliveryDays)
	id := req.OrderID
	if id == "" {
		id = uuid.NewString()
	}
	items := make([]Item, len(req.Items))
	copy(items, req.Items)

	o := Order{
		ID:                id,
		OrderNumber:       newOrderNumber(),
		UserID:            actor.ID,
		UserName:          actor.DisplayName,
		CreatedAt:         now,
		Items:             items,
		TotalAmount:       req.Total,
		ShippingAddress:   req.ShippingAddress,
		PhoneNumber:       req.PhoneNumber,
		PaymentMethod:     payment.Label(req.PaymentMethod),
		Status:            StatusPending,
		EstimatedDelivery: &eta,
		Note:              req.Note,
		SchemaVersion:     schemaVersion,
	}
	if err := m.repo.Create(ctx, o); err != nil {
		log.Printf("[order] ERROR: commit %s for %s: %v", o.ID, actor.ID, err)
		return Order{}, fmt.Errorf("commit order: %w", err)
	}
	log.Printf("[order] committed %s (%s) for %s total=%s", o.ID, o.OrderNumber, actor.ID, o.TotalAmount.String())

	if _, err := m.LoadOrdersForUser(ctx, actor.ID); err != nil {
		log.Printf("[order] WARN: reload after commit for %s: %v", actor.ID, err)
	}
	return o, nil
}

// StagePendingOrder holds p in memory until the buyer confirms payment. A
// second stage replaces the first.
func (m *Manager) StagePendingOrder(actor *identity.Identity, p PendingOrder) {
	if actor == nil {
		return
	}
	if p.StagedAt.IsZero() {
		p.StagedAt = m.now().UTC()
	}
	m.mu.Lock()
	prev, replaced := m.pending[actor.ID]
	m.pending[actor.ID] = p
	m.mu.Unlock()
	if replaced {
		log.Printf("[order] pending order %s for %s replaced by %s", prev.OrderID, actor.ID, p.OrderID)
	}
}

// ConfirmPendingOrder commits the staged order. The bool is false when
// nothing was staged. The stage is taken before committing so concurrent
// confirms commit it once; a failed commit puts it back unless a newer
// stage arrived or the order already exists.
func (m *Manager) ConfirmPendingOrder(ctx context.Context, actor *identity.Identity) (Order, bool, error) {
	if actor == nil {
		return Order{}, false, nil
	}
	m.mu.Lock()
	p, ok := m.pending[actor.ID]
	delete(m.pending, actor.ID)
	m.mu.Unlock()
	if !ok {
		return Order{}, false, nil
	}

	o, err := m.CommitOrder(ctx, actor, p.commitRequest())
	if err != nil {
		if !errors.Is(err, ErrOrderExists) {
			m.mu.Lock()
			if _, taken := m.pending[actor.ID]; !taken {
				m.pending[actor.ID] = p
			}
			m.mu.Unlock()
		}
		return Order{}, true, err
	}
	return o, true, nil
}

// CancelPendingOrder discards the staged order. It reports whether one
// existed.
func (m *Manager) CancelPendingOrder(actor *identity.Identity) bool {
	if actor == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pending[actor.ID]
	delete(m.pending, actor.ID)
	return ok
}

func (m *Manager) PendingOrder(actor *identity.Identity) (PendingOrder, bool) {
	if actor == nil {
		return PendingOrder{}, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pending[actor.ID]
	if ok {
		items := make([]Item, len(p.Items))
		copy(items, p.Items)
		p.Items = items
	}
	return p, ok
}

func (m *Manager) HasPendingOrder(actor *identity.Identity) bool {
	_, ok := m.PendingOrder(actor)
	return ok
}

// TransitionStatus moves an order to st after checking the transition
// table. The owner acts as a user, an admin as an admin; an admin who owns
// the order may act as either. Transitions on one order run one at a time,
// so the check always sees the status the previous transition wrote.
func (m *Manager) TransitionStatus(ctx context.Context, actor *identity.Identity, orderID string, st Status) (Order, error) {
	if actor == nil {
		return Order{}, nil
	}
	unlock := m.statusLocks.lock(orderID)
	defer unlock()

	dec, err := m.repo.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if dec.Err != nil {
		return Order{}, fmt.Errorf("%w: %v", ErrOrderNotFound, dec.Err)
	}
	o := dec.Order

	var roles []actorRole
	if o.UserID == actor.ID {
		roles = append(roles, roleOwner)
	}
	if actor.IsAdmin() {
		roles = append(roles, roleAdmin)
	}
	role, err := checkTransition(o.Status, st, roles...)
	if err != nil {
		log.Printf("[order] rejected %s %s -> %s by %s: %v", o.ID, o.Status, st, actor.ID, err)
		return Order{}, err
	}

	if err := m.repo.UpdateStatus(ctx, o.ID, st); err != nil {
		return Order{}, fmt.Errorf("update order status: %w", err)
	}
	log.Printf("[order] %s %s -> %s by %s (%s)", o.ID, o.Status, st, actor.ID, role)
	o.Status = st

	if role == roleOwner {
		if _, err := m.LoadOrdersForUser(ctx, o.UserID); err != nil {
			log.Printf("[order] WARN: reload for %s: %v", o.UserID, err)
		}
	} else {
		if _, err := m.LoadAllOrders(ctx); err != nil {
			log.Printf("[order] WARN: reload all orders: %v", err)
		}
		if m.hasView(o.UserID) {
			if _, err := m.LoadOrdersForUser(ctx, o.UserID); err != nil {
				log.Printf("[order] WARN: reload for %s: %v", o.UserID, err)
			}
		}
	}
	return o, nil
}

func (m *Manager) Cancel(ctx context.Context, actor *identity.Identity, orderID string) (Order, error) {
	return m.TransitionStatus(ctx, actor, orderID, StatusCanceled)
}

func (m *Manager) Approve(ctx context.Context, actor *identity.Identity, orderID string) (Order, error) {
	return m.TransitionStatus(ctx, actor, orderID, StatusApproved)
}

func (m *Manager) Reject(ctx context.Context, actor *identity.Identity, orderID string) (Order, error) {
	return m.TransitionStatus(ctx, actor, orderID, StatusRejected)
}

func (m *Manager) MarkDelivered(ctx context.Context, actor *identity.Identity, orderID string) (Order, error) {
	return m.TransitionStatus(ctx, actor, orderID, StatusDelivered)
}

// LoadOrdersForUser reads userID's orders, newest first, and stores them
// as that user's view. On failure the previous view is kept.
func (m *Manager) LoadOrdersForUser(ctx context.Context, userID string) ([]Order, error) {
	if userID == "" {
		return nil, nil
	}
	decoded, err := m.repo.ListByUser(ctx, userID)
	if err != nil {
		log.Printf("[order] ERROR: load orders for %s: %v", userID, err)
		return m.Orders(userID), err
	}
	return m.storeView(userID, decoded), nil
}

// HasPurchased reports whether userID has an order containing productID
// that was not canceled or rejected. It reads the store, not the cached view.
func (m *Manager) HasPurchased(ctx context.Context, userID, productID string) (bool, error) {
	decoded, err := m.repo.ListByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, d := range decoded {
		if d.Err != nil || d.Order.Status == StatusCanceled || d.Order.Status == StatusRejected {
			continue
		}
		for _, it := range d.Order.Items {
			if it.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

// LoadAllOrders is LoadOrdersForUser over every user.
func (m *Manager) LoadAllOrders(ctx context.Context) ([]Order, error) {
	decoded, err := m.repo.ListAll(ctx)
	if err != nil {
		log.Printf("[order] ERROR: load all orders: %v", err)
		return m.Orders(ScopeAll), err
	}
	return m.storeView(ScopeAll, decoded), nil
}

func (m *Manager) storeView(scope string, decoded []Decoded) []Order {
	orders := make([]Order, 0, len(decoded))
	for _, d := range decoded {
		if d.Err != nil {
			log.Printf("[order] WARN: dropped record: %v", d.Err)
			continue
		}
		for _, df := range d.Defects {
			log.Printf("[order] WARN: order %s: %s", d.Order.ID, df)
		}
		orders = append(orders, d.Order)
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	m.mu.Lock()
	m.views[scope] = orders
	m.mu.Unlock()
	m.notify(scope)
	return copyOrders(orders)
}

func (m *Manager) hasView(scope string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.views[scope]
	return ok
}

// Orders returns the last loaded list for scope.
func (m *Manager) Orders(scope string) []Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyOrders(m.views[scope])
}

// Subscribe signals after every reload of scope. Signals coalesce.
func (m *Manager) Subscribe(scope string) (<-chan struct{}, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	ch := make(chan struct{}, 1)
	if m.subs[scope] == nil {
		m.subs[scope] = make(map[int]chan struct{})
	}
	m.subs[scope][id] = ch
	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs[scope], id)
	}
}

func (m *Manager) notify(scope string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subs[scope] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func copyOrders(in []Order) []Order {
	out := make([]Order, len(in))
	copy(out, in)
	return out
}

package rest

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/printpeak/internal/common"
	"github.com/dmitrijs2005/printpeak/internal/server/auth"
	"github.com/dmitrijs2005/printpeak/internal/server/models"
	"github.com/dmitrijs2005/printpeak/internal/server/services"
	"github.com/shopspring/decimal"
)

const testSecret = "test-secret"

// memStore backs every fake service so that writes through one route are
// visible through the others.
type memStore struct {
	seq       int
	users     map[string]*models.User
	passwords map[string]string
	products  map[string]*models.Product
	carts     map[string][]string
	orders    []*models.Order
	uploads   []string
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[string]*models.User{},
		passwords: map[string]string{},
		products:  map[string]*models.Product{},
		carts:     map[string][]string{},
	}
}

func (m *memStore) id(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s%d", prefix, m.seq)
}

func (m *memStore) addUser(name, email, password string, admin bool) *models.User {
	u := &models.User{ID: m.id("u"), Name: name, Email: email, IsAdmin: admin, CreatedAt: time.Now()}
	m.users[u.ID] = u
	m.passwords[u.ID] = password
	return u
}

func (m *memStore) addProduct(name string, price string) *models.Product {
	p := &models.Product{ID: m.id("p"), Name: name, Price: decimal.RequireFromString(price), CreatedAt: time.Now()}
	m.products[p.ID] = p
	return p
}

func (m *memStore) withProduct(o *models.Order) *models.Order {
	cp := *o
	if o.ProductID != nil {
		cp.Product = m.products[*o.ProductID]
	}
	return &cp
}

func tokenFor(id string) string {
	t, err := auth.GenerateToken(id, []byte(testSecret), time.Hour)
	if err != nil {
		panic(err)
	}
	return t
}

// --- accounts ---

type fakeAccounts struct{ st *memStore }

func (f fakeAccounts) result(u *models.User) *services.AuthResult {
	return &services.AuthResult{User: u, TokenPair: services.TokenPair{AccessToken: tokenFor(u.ID), RefreshToken: "refresh-" + u.ID}}
}

func (f fakeAccounts) Register(_ context.Context, name, email, password string) (*services.AuthResult, error) {
	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: missing field", common.ErrValidation)
	}
	for _, u := range f.st.users {
		if u.Email == email {
			return nil, fmt.Errorf("error creating user: %w", common.ErrConflict)
		}
	}
	return f.result(f.st.addUser(name, email, password, false)), nil
}

func (f fakeAccounts) Login(_ context.Context, email, password string) (*services.AuthResult, error) {
	for _, u := range f.st.users {
		if u.Email == email && f.st.passwords[u.ID] == password {
			return f.result(u), nil
		}
	}
	return nil, common.ErrorUnauthorized
}

func (f fakeAccounts) RefreshToken(_ context.Context, token string) (*services.TokenPair, error) {
	for id := range f.st.users {
		if token == "refresh-"+id {
			return &services.TokenPair{AccessToken: tokenFor(id), RefreshToken: "refresh2-" + id}, nil
		}
	}
	return nil, common.ErrorUnauthorized
}

func (f fakeAccounts) Get(_ context.Context, id string) (*models.User, error) {
	u, ok := f.st.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f fakeAccounts) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error) {
	u, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		if *upd.Name == "" {
			return nil, fmt.Errorf("%w: name is required", common.ErrValidation)
		}
		u.Name = *upd.Name
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.Address != nil {
		u.Address = *upd.Address
	}
	if upd.ProfileImage != nil {
		b, _ := io.ReadAll(upd.ProfileImage.Body)
		f.st.uploads = append(f.st.uploads, upd.ProfileImage.Filename+":"+string(b))
		u.ProfileImage = "http://s3/profiles/" + upd.ProfileImage.Filename
	}
	return u, nil
}

func (f fakeAccounts) ChangePassword(_ context.Context, id, oldPassword, newPassword string) error {
	if f.st.passwords[id] != oldPassword {
		return common.ErrInvalidCredential
	}
	f.st.passwords[id] = newPassword
	return nil
}

func (f fakeAccounts) List(context.Context) ([]*models.User, error) {
	out := []*models.User{}
	for _, u := range f.st.users {
		out = append(out, u)
	}
	return out, nil
}

func (f fakeAccounts) Delete(_ context.Context, id string) error {
	delete(f.st.users, id)
	return nil
}

func (f fakeAccounts) DeleteAllNonAdmin(context.Context) (int64, error) {
	var n int64
	for id, u := range f.st.users {
		if !u.IsAdmin {
			delete(f.st.users, id)
			n++
		}
	}
	return n, nil
}

func (f fakeAccounts) AdminUpdate(ctx context.Context, id string, upd models.AccountUpdate) (*models.User, error) {
	u, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.IsAdmin != nil && !*upd.IsAdmin && u.IsAdmin {
		return nil, common.ErrLastAdmin
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	return u, nil
}

// --- catalog ---

type fakeCatalog struct{ st *memStore }

func (f fakeCatalog) List(context.Context) ([]*models.Product, error) {
	out := []*models.Product{}
	for _, p := range f.st.products {
		out = append(out, p)
	}
	return out, nil
}

func (f fakeCatalog) Get(_ context.Context, id string) (*models.Product, error) {
	p, ok := f.st.products[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return p, nil
}

func (f fakeCatalog) Create(_ context.Context, in models.ProductInput) (*models.Product, error) {
	if in.Name == "" || !in.Price.IsPositive() || in.Image == nil {
		return nil, fmt.Errorf("%w: bad product", common.ErrValidation)
	}
	p := f.st.addProduct(in.Name, in.Price.String())
	p.Description = in.Description
	p.Image = "http://s3/products/" + in.Image.Filename
	return p, nil
}

func (f fakeCatalog) Update(ctx context.Context, id string, upd models.ProductUpdate) (*models.Product, error) {
	p, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.Price != nil {
		if !upd.Price.IsPositive() {
			return nil, fmt.Errorf("%w: price must be positive", common.ErrValidation)
		}
		p.Price = *upd.Price
	}
	if upd.Image != nil {
		p.Image = "http://s3/products/" + upd.Image.Filename
	}
	return p, nil
}

func (f fakeCatalog) Delete(_ context.Context, id string) error {
	delete(f.st.products, id)
	return nil
}

func (f fakeCatalog) DeleteAll(context.Context) (int64, error) {
	n := int64(len(f.st.products))
	f.st.products = map[string]*models.Product{}
	return n, nil
}

func (f fakeCatalog) ExportXLSX(_ context.Context, w io.Writer) error {
	_, err := fmt.Fprintf(w, "PK%d", len(f.st.products))
	return err
}

// --- carts ---

type fakeCarts struct{ st *memStore }

func (f fakeCarts) entry(userID, productID string) *models.CartEntry {
	return &models.CartEntry{ID: userID + "/" + productID, UserID: userID, ProductID: productID, Product: f.st.products[productID]}
}

func (f fakeCarts) AddItem(_ context.Context, accountID, productID string) (*models.CartEntry, bool, error) {
	if _, ok := f.st.products[productID]; !ok {
		return nil, false, common.ErrorNotFound
	}
	for _, id := range f.st.carts[accountID] {
		if id == productID {
			return f.entry(accountID, productID), true, nil
		}
	}
	f.st.carts[accountID] = append(f.st.carts[accountID], productID)
	return f.entry(accountID, productID), false, nil
}

func (f fakeCarts) List(_ context.Context, accountID string) ([]*models.CartEntry, error) {
	out := []*models.CartEntry{}
	for _, id := range f.st.carts[accountID] {
		out = append(out, f.entry(accountID, id))
	}
	return out, nil
}

func (f fakeCarts) RemoveItem(_ context.Context, accountID, productID string) error {
	var kept []string
	for _, id := range f.st.carts[accountID] {
		if id != productID {
			kept = append(kept, id)
		}
	}
	f.st.carts[accountID] = kept
	return nil
}

func (f fakeCarts) Clear(_ context.Context, accountID string) error {
	delete(f.st.carts, accountID)
	return nil
}

// --- checkout ---

type fakeCheckout struct{ st *memStore }

func (f fakeCheckout) place(req models.OrderRequest, status models.OrderStatus, session string) (*models.Order, error) {
	if req.Size == "" || req.Address == "" || !models.ValidDeliveryMethod(req.Method) {
		return nil, fmt.Errorf("%w: bad order", common.ErrValidation)
	}
	if _, ok := f.st.products[req.ProductID]; !ok {
		return nil, common.ErrorNotFound
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	pid := req.ProductID
	o := &models.Order{
		ID: f.st.id("o"), UserID: req.AccountID, ProductID: &pid, Size: req.Size, Method: req.Method,
		Address: req.Address, Quantity: req.Quantity, Status: status, PaymentSessionID: session, CreatedAt: time.Now(),
	}
	if req.Design != nil {
		o.Design = "http://s3/designs/" + req.Design.Filename
	}
	f.st.orders = append([]*models.Order{o}, f.st.orders...)
	return f.st.withProduct(o), nil
}

func (f fakeCheckout) PlaceDirectOrder(_ context.Context, req models.OrderRequest) (*models.Order, error) {
	return f.place(req, models.StatusPending, "")
}

func (f fakeCheckout) PlaceCardOrder(_ context.Context, req models.OrderRequest) (*models.CheckoutResult, error) {
	if req.Method == "" {
		req.Method = models.MethodCardPayment
	}
	sess := "cs_" + f.st.id("")
	o, err := f.place(req, models.StatusAwaitingPayment, sess)
	if err != nil {
		return nil, err
	}
	return &models.CheckoutResult{SessionID: sess, URL: "https://pay.example/" + sess, OrderID: o.ID}, nil
}

func (f fakeCheckout) ConfirmPayment(_ context.Context, sessionID string) (*models.Order, error) {
	for _, o := range f.st.orders {
		if o.PaymentSessionID == sessionID {
			o.Status = models.StatusPending
			return f.st.withProduct(o), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f fakeCheckout) HandleWebhook(_ context.Context, payload []byte, signature string) error {
	if signature != "good" {
		return fmt.Errorf("%w: signature mismatch", common.ErrValidation)
	}
	return nil
}

func (f fakeCheckout) OrdersForAccount(_ context.Context, accountID string) ([]*models.Order, error) {
	out := []*models.Order{}
	for _, o := range f.st.orders {
		if o.UserID == accountID {
			out = append(out, f.st.withProduct(o))
		}
	}
	return out, nil
}

func (f fakeCheckout) Summary(ctx context.Context, accountID string) (*models.Summary, error) {
	orders, _ := f.OrdersForAccount(ctx, accountID)
	return &models.Summary{Orders: orders, TotalSpent: decimal.Zero, CartItems: len(f.st.carts[accountID])}, nil
}

// --- admin orders ---

type fakeOrders struct{ st *memStore }

func (f fakeOrders) ListAll(context.Context) ([]*models.Order, error) {
	out := []*models.Order{}
	for _, o := range f.st.orders {
		out = append(out, f.st.withProduct(o))
	}
	return out, nil
}

func (f fakeOrders) SetStatus(_ context.Context, id, status string) (*models.Order, error) {
	next, err := models.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}
	for _, o := range f.st.orders {
		if o.ID != id {
			continue
		}
		if o.Status != next && !o.Status.CanTransition(next) {
			return nil, fmt.Errorf("%w: %s -> %s", common.ErrInvalidTransition, o.Status, next)
		}
		o.Status = next
		return f.st.withProduct(o), nil
	}
	return nil, common.ErrorNotFound
}

func (f fakeOrders) Delete(_ context.Context, id string) error {
	for i, o := range f.st.orders {
		if o.ID == id {
			f.st.orders = append(f.st.orders[:i], f.st.orders[i+1:]...)
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f fakeOrders) DeleteAll(context.Context) (int64, error) {
	n := int64(len(f.st.orders))
	f.st.orders = nil
	return n, nil
}

func fakeServices(st *memStore) Services {
	return Services{
		Accounts: fakeAccounts{st},
		Catalog:  fakeCatalog{st},
		Carts:    fakeCarts{st},
		Checkout: fakeCheckout{st},
		Orders:   fakeOrders{st},
	}
}

package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/printpeak/internal/common"
	"github.com/dmitrijs2005/printpeak/internal/dbx"
	"github.com/dmitrijs2005/printpeak/internal/server/config"
	"github.com/dmitrijs2005/printpeak/internal/server/models"
	"github.com/dmitrijs2005/printpeak/internal/server/payments"
	"github.com/dmitrijs2005/printpeak/internal/server/repositories/carts"
	"github.com/dmitrijs2005/printpeak/internal/server/repositories/orders"
	"github.com/dmitrijs2005/printpeak/internal/server/repositories/products"
	"github.com/dmitrijs2005/printpeak/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/printpeak/internal/server/repositories/users"

	_ "modernc.org/sqlite"
)

// newTxDB returns a database that can open and commit empty transactions,
// which is all dbx.WithTx needs when the repositories are fakes.
func newTxDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"
	return cfg
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

var seq struct {
	sync.Mutex
	n int
}

func nextID(prefix string) string {
	seq.Lock()
	defer seq.Unlock()
	seq.n++
	return fmt.Sprintf("%s%d", prefix, seq.n)
}

// --- users ---

type memUsers struct {
	byID    map[string]*models.User
	failGet error
}

func newMemUsers(us ...*models.User) *memUsers {
	m := &memUsers{byID: map[string]*models.User{}}
	for _, u := range us {
		m.byID[u.ID] = u
	}
	return m
}

func (m *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	for _, other := range m.byID {
		if other.Email == u.Email {
			return nil, fmt.Errorf("%w: email", common.ErrConflict)
		}
	}
	u.ID = nextID("u")
	u.CreatedAt = time.Now()
	cp := *u
	m.byID[u.ID] = &cp
	return u, nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	if m.failGet != nil {
		return nil, m.failGet
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if m.failGet != nil {
		return nil, m.failGet
	}
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) List(context.Context) ([]*models.User, error) {
	var out []*models.User
	for _, u := range m.byID {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memUsers) Update(_ context.Context, u *models.User) (*models.User, error) {
	cur, ok := m.byID[u.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	for _, other := range m.byID {
		if other.ID != u.ID && other.Email == u.Email {
			return nil, fmt.Errorf("%w: email", common.ErrConflict)
		}
	}
	cp := *u
	cp.PasswordHash = cur.PasswordHash
	m.byID[u.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id, hash string) error {
	u, ok := m.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	delete(m.byID, id)
	return nil
}

func (m *memUsers) DeleteAllNonAdmin(context.Context) (int64, error) {
	var n int64
	for id, u := range m.byID {
		if !u.IsAdmin {
			delete(m.byID, id)
			n++
		}
	}
	return n, nil
}

func (m *memUsers) CountAdmins(context.Context) (int, error) {
	n := 0
	for _, u := range m.byID {
		if u.IsAdmin {
			n++
		}
	}
	return n, nil
}

// --- refresh tokens ---

// sqlUsers writes new accounts to the sqlite handle it is bound to, so a
// rolled-back transaction takes its inserts with it. Reads fall back to
// the embedded memUsers.
type sqlUsers struct {
	*memUsers
	db dbx.DBTX
}

func (r *sqlUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	u.ID = nextID("u")
	if _, err := r.db.ExecContext(ctx, `INSERT INTO users (id, email) VALUES (?, ?)`, u.ID, u.Email); err != nil {
		return nil, fmt.Errorf("%w: email", common.ErrConflict)
	}
	return u, nil
}

// sqlUsersManager binds users to the handle each call receives.
type sqlUsersManager struct{ *fakeRepoManager }

func (m sqlUsersManager) Users(db dbx.DBTX) users.Repository {
	return &sqlUsers{memUsers: m.u, db: db}
}

// newUsersTable prepares the single-connection sqlite database sqlUsers writes to.
func newUsersTable(t *testing.T) *sql.DB {
	t.Helper()
	db := newTxDB(t)
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE users (id TEXT PRIMARY KEY, email TEXT NOT NULL UNIQUE)`); err != nil {
		t.Fatalf("create users table: %v", err)
	}
	return db
}

func countUsers(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		t.Fatalf("count users: %v", err)
	}
	return n
}

type memRefresh struct {
	tokens    map[string]*models.RefreshToken
	createErr error
	delErr    error
}

func newMemRefresh() *memRefresh { return &memRefresh{tokens: map[string]*models.RefreshToken{}} }

func (m *memRefresh) Create(_ context.Context, userID, token string, validity time.Duration) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.tokens[token] = &models.RefreshToken{UserID: userID, Token: token, Expires: time.Now().Add(validity)}
	return nil
}

func (m *memRefresh) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	t, ok := m.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return t, nil
}

func (m *memRefresh) Delete(_ context.Context, token string) error {
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.tokens, token)
	return nil
}

func (m *memRefresh) DeleteForUser(_ context.Context, userID string) error {
	for k, t := range m.tokens {
		if t.UserID == userID {
			delete(m.tokens, k)
		}
	}
	return nil
}

// --- products ---

type memProducts struct {
	byID map[string]*models.Product
}

func newMemProducts(ps ...*models.Product) *memProducts {
	m := &memProducts{byID: map[string]*models.Product{}}
	for _, p := range ps {
		m.byID[p.ID] = p
	}
	return m
}

func (m *memProducts) Create(_ context.Context, p *models.Product) (*models.Product, error) {
	p.ID = nextID("p")
	p.CreatedAt = time.Now()
	cp := *p
	m.byID[p.ID] = &cp
	return p, nil
}

func (m *memProducts) GetByID(_ context.Context, id string) (*models.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) List(context.Context) ([]*models.Product, error) {
	out := []*models.Product{}
	for _, p := range m.byID {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memProducts) Update(_ context.Context, p *models.Product) (*models.Product, error) {
	if _, ok := m.byID[p.ID]; !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	m.byID[p.ID] = &cp
	return p, nil
}

func (m *memProducts) Delete(_ context.Context, id string) error {
	delete(m.byID, id)
	return nil
}

func (m *memProducts) DeleteAll(context.Context) (int64, error) {
	n := int64(len(m.byID))
	m.byID = map[string]*models.Product{}
	return n, nil
}

// --- carts ---

type memCarts struct {
	products *memProducts
	entries  []*models.CartEntry
	addErr   error
}

func (m *memCarts) find(userID, productID string) *models.CartEntry {
	for _, e := range m.entries {
		if e.UserID == userID && e.ProductID == productID {
			return e
		}
	}
	return nil
}

func (m *memCarts) Add(ctx context.Context, userID, productID string) (*models.CartEntry, bool, error) {
	if m.addErr != nil {
		return nil, false, m.addErr
	}
	created := false
	if m.find(userID, productID) == nil {
		m.entries = append(m.entries, &models.CartEntry{ID: nextID("c"), UserID: userID, ProductID: productID, CreatedAt: time.Now()})
		created = true
	}
	e, err := m.Get(ctx, userID, productID)
	return e, created, err
}

func (m *memCarts) Get(ctx context.Context, userID, productID string) (*models.CartEntry, error) {
	e := m.find(userID, productID)
	if e == nil {
		return nil, common.ErrorNotFound
	}
	cp := *e
	cp.Product, _ = m.products.GetByID(ctx, productID)
	return &cp, nil
}

func (m *memCarts) List(ctx context.Context, userID string) ([]*models.CartEntry, error) {
	out := []*models.CartEntry{}
	for _, e := range m.entries {
		if e.UserID == userID {
			got, _ := m.Get(ctx, userID, e.ProductID)
			out = append(out, got)
		}
	}
	return out, nil
}

func (m *memCarts) Count(_ context.Context, userID string) (int, error) {
	n := 0
	for _, e := range m.entries {
		if e.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *memCarts) Remove(_ context.Context, userID, productID string) error {
	kept := m.entries[:0]
	for _, e := range m.entries {
		if !(e.UserID == userID && e.ProductID == productID) {
			kept = append(kept, e)
		}
	}
	m.entries = kept
	return nil
}

func (m *memCarts) Clear(_ context.Context, userID string) error {
	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.UserID != userID {
			kept = append(kept, e)
		}
	}
	m.entries = kept
	return nil
}

// --- orders ---

type memOrders struct {
	products  *memProducts
	byID      map[string]*models.Order
	order     []string
	createErr error
}

func newMemOrders(p *memProducts) *memOrders {
	return &memOrders{products: p, byID: map[string]*models.Order{}}
}

func (m *memOrders) Create(_ context.Context, o *models.Order) (*models.Order, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	o.ID = nextID("o")
	o.CreatedAt = time.Now()
	cp := *o
	m.byID[o.ID] = &cp
	m.order = append([]string{o.ID}, m.order...)
	return o, nil
}

func (m *memOrders) load(ctx context.Context, o *models.Order) *models.Order {
	cp := *o
	if cp.ProductID != nil {
		cp.Product, _ = m.products.GetByID(ctx, *cp.ProductID)
	}
	return &cp
}

func (m *memOrders) GetByID(ctx context.Context, id string) (*models.Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return m.load(ctx, o), nil
}

func (m *memOrders) GetByPaymentSession(ctx context.Context, sessionID string) (*models.Order, error) {
	for _, o := range m.byID {
		if o.PaymentSessionID != "" && o.PaymentSessionID == sessionID {
			return m.load(ctx, o), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memOrders) ListForUser(ctx context.Context, userID string) ([]*models.Order, error) {
	out := []*models.Order{}
	for _, id := range m.order {
		if o, ok := m.byID[id]; ok && o.UserID == userID {
			out = append(out, m.load(ctx, o))
		}
	}
	return out, nil
}

func (m *memOrders) ListAll(ctx context.Context) ([]*models.Order, error) {
	out := []*models.Order{}
	for _, id := range m.order {
		if o, ok := m.byID[id]; ok {
			out = append(out, m.load(ctx, o))
		}
	}
	return out, nil
}

func (m *memOrders) UpdateStatus(_ context.Context, id string, status models.OrderStatus) error {
	o, ok := m.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	o.Status = status
	return nil
}

func (m *memOrders) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memOrders) DeleteAll(context.Context) (int64, error) {
	n := int64(len(m.byID))
	m.byID = map[string]*models.Order{}
	return n, nil
}

// --- manager ---

type fakeRepoManager struct {
	u *memUsers
	r *memRefresh
	p *memProducts
	c *memCarts
	o *memOrders
}

func newFakeRepoManager() *fakeRepoManager {
	p := newMemProducts()
	return &fakeRepoManager{
		u: newMemUsers(),
		r: newMemRefresh(),
		p: p,
		c: &memCarts{products: p},
		o: newMemOrders(p),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return m.r }
func (m *fakeRepoManager) Products(dbx.DBTX) products.Repository           { return m.p }
func (m *fakeRepoManager) Carts(dbx.DBTX) carts.Repository                 { return m.c }
func (m *fakeRepoManager) Orders(dbx.DBTX) orders.Repository               { return m.o }

// --- collaborators ---

type fakeImages struct {
	calls   []string
	err     error
	counter int
}

func (f *fakeImages) Upload(_ context.Context, folder string, img *models.ImageUpload) (string, error) {
	f.calls = append(f.calls, folder)
	if f.err != nil {
		return "", f.err
	}
	f.counter++
	return fmt.Sprintf("http://s3/%s/%d-%s", folder, f.counter, img.Filename), nil
}

type fakeGateway struct {
	created   []payments.CheckoutRequest
	createErr error
	sessions  map[string]*payments.Session
	getErr    error
	event     *payments.Event
	parseErr  error
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req payments.CheckoutRequest) (*payments.Session, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.created = append(g.created, req)
	id := nextID("cs_")
	s := &payments.Session{ID: id, URL: "https://checkout.example/" + id}
	if g.sessions == nil {
		g.sessions = map[string]*payments.Session{}
	}
	g.sessions[id] = s
	return s, nil
}

func (g *fakeGateway) GetSession(_ context.Context, id string) (*payments.Session, error) {
	if g.getErr != nil {
		return nil, g.getErr
	}
	s, ok := g.sessions[id]
	if !ok {
		return nil, fmt.Errorf("no such session %s", id)
	}
	return s, nil
}

func (g *fakeGateway) ParseEvent([]byte, string) (*payments.Event, error) {
	if g.parseErr != nil {
		return nil, g.parseErr
	}
	return g.event, nil
}

type recordingNotifier struct {
	placed  []*models.Order
	changed []*models.Order
}

func (n *recordingNotifier) OrderPlaced(_ context.Context, _ *models.User, o *models.Order) error {
	n.placed = append(n.placed, o)
	return nil
}

func (n *recordingNotifier) OrderStatusChanged(_ context.Context, _ *models.User, o *models.Order) error {
	n.changed = append(n.changed, o)
	return nil
}

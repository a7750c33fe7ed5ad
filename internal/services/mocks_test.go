package services

import (
	"bytes"
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/baharkarakas/dragonpay-gateway/internal/config"
	"github.com/baharkarakas/dragonpay-gateway/internal/dragonpay"
	"github.com/baharkarakas/dragonpay-gateway/internal/gateway"
	"github.com/baharkarakas/dragonpay-gateway/internal/models"
	repo "github.com/baharkarakas/dragonpay-gateway/internal/repository"
)

func testConfig() config.Dragonpay {
	return config.Dragonpay{SaveData: true, SecretKey: "secret", DigestMode: "sha1", DefaultCurrency: "PHP"}
}

// logBuffer captures Info and above for assertions on log lines.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) count(substr string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Count(b.buf.String(), substr)
}

func newLogger() (*slog.Logger, *logBuffer) {
	b := &logBuffer{}
	return slog.New(slog.NewTextHandler(b, &slog.HandlerOptions{Level: slog.LevelInfo})), b
}

// memTransactions is an in-memory repo.Transactions.
type memTransactions struct {
	mu   sync.Mutex
	rows map[string]models.Transaction
	// listFn overrides List when set.
	listFn func(f models.TransactionFilter) ([]models.Transaction, error)
	// beforeUpdate runs under the lock ahead of the status check, standing in
	// for another instance writing the row first.
	beforeUpdate func(rows map[string]models.Transaction)
}

func newMemTransactions(rows ...models.Transaction) *memTransactions {
	m := &memTransactions{rows: map[string]models.Transaction{}}
	for _, r := range rows {
		m.rows[r.ID] = r
	}
	return m
}

func (m *memTransactions) Create(_ context.Context, tx models.Transaction) (models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx.CreatedAt = time.Now()
	m.rows[tx.ID] = tx
	return tx, nil
}

func (m *memTransactions) GetByID(_ context.Context, id string) (models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.rows[id]
	if !ok {
		return models.Transaction{}, repo.ErrNotFound
	}
	return tx, nil
}

func (m *memTransactions) List(_ context.Context, f models.TransactionFilter) ([]models.Transaction, error) {
	if m.listFn != nil {
		return m.listFn(f)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Transaction
	for _, tx := range m.rows {
		if f.Incomplete && tx.IsCompleted() {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

func (m *memTransactions) UpdateStatus(_ context.Context, id string, from, to dragonpay.Status, at time.Time) (models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.rows[id]
	if !ok {
		return models.Transaction{}, repo.ErrNotFound
	}
	if m.beforeUpdate != nil {
		m.beforeUpdate(m.rows)
		tx = m.rows[id]
	}
	if tx.Status != from {
		return models.Transaction{}, repo.ErrStaleStatus
	}
	tx.Status = to
	tx.ModifiedAt = &at
	m.rows[id] = tx
	return tx, nil
}

// memPayouts is an in-memory repo.Payouts.
type memPayouts struct {
	mu      sync.Mutex
	rows    map[string]models.Payout
	seq     int
	batches int
	// beforeUpdate mirrors memTransactions.beforeUpdate.
	beforeUpdate func(rows map[string]models.Payout)
}

func newMemPayouts(rows ...models.Payout) *memPayouts {
	m := &memPayouts{rows: map[string]models.Payout{}}
	for _, r := range rows {
		m.rows[r.ID] = r
	}
	return m
}

func (m *memPayouts) insert(p models.Payout) models.Payout {
	m.seq++
	p.ID = "po-" + strconv.Itoa(m.seq)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.ModifiedAt = p.CreatedAt
	m.rows[p.ID] = p
	return p
}

func (m *memPayouts) Create(_ context.Context, p models.Payout) (models.Payout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insert(p), nil
}

func (m *memPayouts) CreateBatch(_ context.Context, ps []models.Payout) ([]models.Payout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches++
	out := make([]models.Payout, 0, len(ps))
	for _, p := range ps {
		out = append(out, m.insert(p))
	}
	return out, nil
}

func (m *memPayouts) GetByID(_ context.Context, id string) (models.Payout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return models.Payout{}, repo.ErrNotFound
	}
	return p, nil
}

func (m *memPayouts) List(_ context.Context, f models.PayoutFilter) ([]models.Payout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Payout
	for _, p := range m.rows {
		if f.Completed != nil && p.IsCompleted() != *f.Completed {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *memPayouts) UpdateStatus(_ context.Context, id string, from, to dragonpay.Status) (models.Payout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return models.Payout{}, repo.ErrNotFound
	}
	if m.beforeUpdate != nil {
		m.beforeUpdate(m.rows)
		p = m.rows[id]
	}
	if p.Status != from {
		return models.Payout{}, repo.ErrStaleStatus
	}
	p.Status = to
	p.ModifiedAt = time.Now()
	m.rows[id] = p
	return p, nil
}

type memUsers struct {
	rows map[string]models.PayoutUser
}

func (m *memUsers) Create(_ context.Context, u models.PayoutUser) (models.PayoutUser, error) {
	if m.rows == nil {
		m.rows = map[string]models.PayoutUser{}
	}
	m.rows[u.ID] = u
	return u, nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (models.PayoutUser, error) {
	u, ok := m.rows[id]
	if !ok {
		return models.PayoutUser{}, repo.ErrNotFound
	}
	return u, nil
}

type memChanges struct {
	mu   sync.Mutex
	rows []models.StatusChange
}

func (m *memChanges) Create(_ context.Context, c models.StatusChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, c)
	return nil
}

func (m *memChanges) ListByEntity(_ context.Context, entity models.EntityType, id string) ([]models.StatusChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.StatusChange
	for _, c := range m.rows {
		if c.EntityType == entity && c.EntityID == id {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memChanges) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type mockGateway struct {
	txnStatusFn    func(ctx context.Context, txnID string) (dragonpay.Status, error)
	payoutStatusFn func(ctx context.Context, txnID string) (dragonpay.Status, error)
	paymentURLFn   func(req gateway.PaymentRequest) (string, error)
}

func (m *mockGateway) GetTransactionStatus(ctx context.Context, txnID string) (dragonpay.Status, error) {
	return m.txnStatusFn(ctx, txnID)
}

func (m *mockGateway) GetPayoutStatus(ctx context.Context, txnID string) (dragonpay.Status, error) {
	return m.payoutStatusFn(ctx, txnID)
}

func (m *mockGateway) PaymentURL(req gateway.PaymentRequest) (string, error) {
	return m.paymentURLFn(req)
}

type mockPublisher struct {
	mu   sync.Mutex
	sent []models.StatusChange
	err  error
}

func (m *mockPublisher) StatusChanged(_ context.Context, c models.StatusChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, c)
	return m.err
}

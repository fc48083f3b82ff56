package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appsettlement "github.com/retailos/backoffice/internal/application/settlement"
	"github.com/retailos/backoffice/internal/domain/ledger"
	"github.com/retailos/backoffice/internal/domain/settlement"
	"github.com/retailos/backoffice/internal/domain/shared"
	"github.com/retailos/backoffice/internal/domain/shared/valueobject"
	"github.com/retailos/backoffice/internal/interfaces/http/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockObligationRepository implements settlement.ObligationRepository for testing
type MockObligationRepository struct {
	mock.Mock
}

func (m *MockObligationRepository) Save(ctx context.Context, obligation *settlement.Obligation) error {
	args := m.Called(ctx, obligation)
	return args.Error(0)
}

func (m *MockObligationRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.Obligation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Obligation), args.Error(1)
}

func (m *MockObligationRepository) LockOutstandingForPayer(ctx context.Context, payerID uuid.UUID, kind settlement.Kind) ([]*settlement.Obligation, error) {
	args := m.Called(ctx, payerID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*settlement.Obligation), args.Error(1)
}

func (m *MockObligationRepository) LockByID(ctx context.Context, id uuid.UUID) (*settlement.Obligation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Obligation), args.Error(1)
}

func (m *MockObligationRepository) ApplyAllocation(ctx context.Context, id uuid.UUID, amount valueobject.Money) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func (m *MockObligationRepository) ListOutstandingForPayer(ctx context.Context, payerID uuid.UUID, kind settlement.Kind) ([]*settlement.Obligation, error) {
	args := m.Called(ctx, payerID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*settlement.Obligation), args.Error(1)
}

func (m *MockObligationRepository) FindByPayer(ctx context.Context, payerID uuid.UUID, kind settlement.Kind, filter shared.Filter) (shared.Paginated[*settlement.Obligation], error) {
	args := m.Called(ctx, payerID, kind, filter)
	return args.Get(0).(shared.Paginated[*settlement.Obligation]), args.Error(1)
}

func (m *MockObligationRepository) SumOutstandingForPayer(ctx context.Context, payerID uuid.UUID, kind settlement.Kind) (valueobject.Money, error) {
	args := m.Called(ctx, payerID, kind)
	return args.Get(0).(valueobject.Money), args.Error(1)
}

var _ settlement.ObligationRepository = (*MockObligationRepository)(nil)

// MockLedgerPoster implements settlement.LedgerPoster for testing
type MockLedgerPoster struct {
	mock.Mock
}

func (m *MockLedgerPoster) Post(ctx context.Context, entry *ledger.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

var _ settlement.LedgerPoster = (*MockLedgerPoster)(nil)

// stubTxManager hands the test's mock repositories to the unit of work
type stubTxManager struct {
	repos *settlement.TxRepositories
}

func (m *stubTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos *settlement.TxRepositories) error) error {
	return fn(ctx, m.repos)
}

type settlementFixture struct {
	obligations *MockObligationRepository
	ledger      *MockLedgerPoster
	engine      *gin.Engine
}

func setupSettlementTestRouter() *settlementFixture {
	obligations := &MockObligationRepository{}
	poster := &MockLedgerPoster{}
	txManager := &stubTxManager{repos: &settlement.TxRepositories{
		Obligations: obligations,
		Ledger:      poster,
	}}

	allocator := appsettlement.NewAllocationService(txManager)
	customers := appsettlement.NewCustomerPaymentService(allocator, obligations)
	suppliers := appsettlement.NewSupplierPaymentService(allocator, obligations)
	h := NewSettlementHandler(customers, suppliers)

	engine := gin.New()
	api := engine.Group("/api/v1")
	api.POST("/settlements/customer-payments", h.ReceiveCustomerPayment)
	api.POST("/settlements/supplier-payments", h.MakeSupplierPayment)
	api.POST("/settlements/obligations/:id/pay", h.PayObligation)
	api.POST("/obligations", h.CreateObligation)
	api.GET("/payers/:id/obligations", h.ListObligations)
	api.GET("/payers/:id/obligations/summary", h.ObligationSummary)

	return &settlementFixture{obligations: obligations, ledger: poster, engine: engine}
}

func postJSON(t *testing.T, engine *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func newOpenObligation(t *testing.T, kind settlement.Kind, payerID uuid.UUID, total int64, incurredAt time.Time) *settlement.Obligation {
	t.Helper()
	o, err := settlement.NewObligation(kind, payerID, fmt.Sprintf("REF-%d", total), valueobject.NewMoney(total), incurredAt)
	require.NoError(t, err)
	return o
}

func TestSettlementHandler_ReceiveCustomerPayment(t *testing.T) {
	payerID := uuid.New()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("allocates oldest first and returns outcomes", func(t *testing.T) {
		f := setupSettlementTestRouter()
		older := newOpenObligation(t, settlement.KindReceivable, payerID, 1000, base)
		newer := newOpenObligation(t, settlement.KindReceivable, payerID, 500, base.Add(24*time.Hour))

		f.obligations.On("LockOutstandingForPayer", mock.Anything, payerID, settlement.KindReceivable).
			Return([]*settlement.Obligation{older, newer}, nil)
		f.obligations.On("ApplyAllocation", mock.Anything, older.ID, valueobject.NewMoney(1000)).Return(nil)
		f.obligations.On("ApplyAllocation", mock.Anything, newer.ID, valueobject.NewMoney(200)).Return(nil)
		f.ledger.On("Post", mock.Anything, mock.Anything).Return(nil)
		f.obligations.On("SumOutstandingForPayer", mock.Anything, payerID, settlement.KindReceivable).
			Return(valueobject.NewMoney(300), nil)

		w := postJSON(t, f.engine, "/api/v1/settlements/customer-payments", gin.H{
			"payer_id": payerID.String(),
			"amount":   1200,
		})

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)

		data := resp.Data.(map[string]any)
		assert.Equal(t, float64(1200), data["total_allocated"])
		assert.Equal(t, float64(0), data["excess_payment"])
		assert.Len(t, data["outcomes"], 2)
		f.obligations.AssertExpectations(t)
		f.ledger.AssertExpectations(t)
	})

	t.Run("no outstanding obligations yields 422", func(t *testing.T) {
		f := setupSettlementTestRouter()
		f.obligations.On("LockOutstandingForPayer", mock.Anything, payerID, settlement.KindReceivable).
			Return([]*settlement.Obligation{}, nil)

		w := postJSON(t, f.engine, "/api/v1/settlements/customer-payments", gin.H{
			"payer_id": payerID.String(),
			"amount":   1200,
		})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		resp := decodeResponse(t, w)
		assert.False(t, resp.Success)
		assert.Equal(t, settlement.CodeNoOutstanding, resp.Error.Code)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		f := setupSettlementTestRouter()

		w := postJSON(t, f.engine, "/api/v1/settlements/customer-payments", gin.H{
			"payer_id": payerID.String(),
			"amount":   0,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		f.obligations.AssertNotCalled(t, "LockOutstandingForPayer", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects malformed payer id", func(t *testing.T) {
		f := setupSettlementTestRouter()

		w := postJSON(t, f.engine, "/api/v1/settlements/customer-payments", gin.H{
			"payer_id": "not-a-uuid",
			"amount":   1200,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSettlementHandler_MakeSupplierPayment(t *testing.T) {
	payerID := uuid.New()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("locks payables not receivables", func(t *testing.T) {
		f := setupSettlementTestRouter()
		payable := newOpenObligation(t, settlement.KindPayable, payerID, 800, base)

		f.obligations.On("LockOutstandingForPayer", mock.Anything, payerID, settlement.KindPayable).
			Return([]*settlement.Obligation{payable}, nil)
		f.obligations.On("ApplyAllocation", mock.Anything, payable.ID, valueobject.NewMoney(800)).Return(nil)
		f.ledger.On("Post", mock.Anything, mock.MatchedBy(func(entry *ledger.Entry) bool {
			return entry.IsBalanced() && entry.Lines[0].AccountCode == ledger.AccountAccountsPayable
		})).Return(nil)
		f.obligations.On("SumOutstandingForPayer", mock.Anything, payerID, settlement.KindPayable).
			Return(valueobject.Zero(), nil)

		w := postJSON(t, f.engine, "/api/v1/settlements/supplier-payments", gin.H{
			"payer_id": payerID.String(),
			"amount":   800,
		})

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "PAYABLE", data["kind"])
		f.obligations.AssertExpectations(t)
		f.ledger.AssertExpectations(t)
	})
}

func TestSettlementHandler_PayObligation(t *testing.T) {
	payerID := uuid.New()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("zero amount settles full remainder", func(t *testing.T) {
		f := setupSettlementTestRouter()
		obligation := newOpenObligation(t, settlement.KindReceivable, payerID, 900, base)

		f.obligations.On("LockByID", mock.Anything, obligation.ID).Return(obligation, nil)
		f.obligations.On("ApplyAllocation", mock.Anything, obligation.ID, valueobject.NewMoney(900)).Return(nil)
		f.ledger.On("Post", mock.Anything, mock.Anything).Return(nil)
		f.obligations.On("SumOutstandingForPayer", mock.Anything, payerID, settlement.KindReceivable).
			Return(valueobject.Zero(), nil)

		w := postJSON(t, f.engine, "/api/v1/settlements/obligations/"+obligation.ID.String()+"/pay", gin.H{})

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]any)
		assert.Equal(t, float64(900), data["total_allocated"])
		f.obligations.AssertExpectations(t)
	})

	t.Run("unknown obligation yields 404", func(t *testing.T) {
		f := setupSettlementTestRouter()
		missingID := uuid.New()
		f.obligations.On("LockByID", mock.Anything, missingID).Return(nil, nil)

		w := postJSON(t, f.engine, "/api/v1/settlements/obligations/"+missingID.String()+"/pay", gin.H{"amount": 100})

		assert.Equal(t, http.StatusNotFound, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, settlement.CodeObligationNotFound, resp.Error.Code)
	})

	t.Run("amount above remainder yields 409", func(t *testing.T) {
		f := setupSettlementTestRouter()
		obligation := newOpenObligation(t, settlement.KindReceivable, payerID, 500, base)
		f.obligations.On("LockByID", mock.Anything, obligation.ID).Return(obligation, nil)

		w := postJSON(t, f.engine, "/api/v1/settlements/obligations/"+obligation.ID.String()+"/pay", gin.H{"amount": 600})

		assert.Equal(t, http.StatusConflict, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, settlement.CodeOverAllocation, resp.Error.Code)
	})

	t.Run("malformed id yields 400", func(t *testing.T) {
		f := setupSettlementTestRouter()

		w := postJSON(t, f.engine, "/api/v1/settlements/obligations/nope/pay", gin.H{"amount": 100})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSettlementHandler_CreateObligation(t *testing.T) {
	payerID := uuid.New()

	t.Run("creates receivable", func(t *testing.T) {
		f := setupSettlementTestRouter()
		f.obligations.On("Save", mock.Anything, mock.MatchedBy(func(o *settlement.Obligation) bool {
			return o.Kind == settlement.KindReceivable && o.TotalAmount.Cents() == 2500
		})).Return(nil)

		w := postJSON(t, f.engine, "/api/v1/obligations", gin.H{
			"kind":      "RECEIVABLE",
			"payer_id":  payerID.String(),
			"reference": "SO-1001",
			"amount":    2500,
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "SO-1001", data["reference"])
		assert.Equal(t, "UNPAID", data["status"])
		f.obligations.AssertExpectations(t)
	})

	t.Run("creates payable", func(t *testing.T) {
		f := setupSettlementTestRouter()
		f.obligations.On("Save", mock.Anything, mock.MatchedBy(func(o *settlement.Obligation) bool {
			return o.Kind == settlement.KindPayable
		})).Return(nil)

		w := postJSON(t, f.engine, "/api/v1/obligations", gin.H{
			"kind":     "PAYABLE",
			"payer_id": payerID.String(),
			"amount":   400,
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		f.obligations.AssertExpectations(t)
	})

	t.Run("rejects unknown kind", func(t *testing.T) {
		f := setupSettlementTestRouter()

		w := postJSON(t, f.engine, "/api/v1/obligations", gin.H{
			"kind":     "LOAN",
			"payer_id": payerID.String(),
			"amount":   400,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		f.obligations.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestSettlementHandler_ListObligations(t *testing.T) {
	payerID := uuid.New()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("defaults to receivables, first page", func(t *testing.T) {
		f := setupSettlementTestRouter()
		open := newOpenObligation(t, settlement.KindReceivable, payerID, 1300, base)
		defaultFilter := shared.DefaultFilter()
		defaultFilter.OrderBy = "incurred_at"
		f.obligations.On("FindByPayer", mock.Anything, payerID, settlement.KindReceivable, defaultFilter).
			Return(shared.NewPaginated([]*settlement.Obligation{open}, 1, defaultFilter.Page, defaultFilter.PageSize), nil)

		req := httptest.NewRequest("GET", "/api/v1/payers/"+payerID.String()+"/obligations", nil)
		w := httptest.NewRecorder()
		f.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]any)
		assert.Equal(t, float64(1), data["total"])
		assert.Equal(t, float64(1), data["page"])
		items := data["items"].([]any)
		require.Len(t, items, 1)
		item := items[0].(map[string]any)
		assert.Equal(t, float64(1300), item["outstanding"])
	})

	t.Run("kind query selects payables", func(t *testing.T) {
		f := setupSettlementTestRouter()
		f.obligations.On("FindByPayer", mock.Anything, payerID, settlement.KindPayable, mock.Anything).
			Return(shared.NewPaginated([]*settlement.Obligation{}, 0, 1, 20), nil)

		req := httptest.NewRequest("GET", "/api/v1/payers/"+payerID.String()+"/obligations?kind=PAYABLE", nil)
		w := httptest.NewRecorder()
		f.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		f.obligations.AssertExpectations(t)
	})

	t.Run("page and page_size reach the repository", func(t *testing.T) {
		f := setupSettlementTestRouter()
		wantFilter := shared.Filter{Page: 3, PageSize: 5, OrderBy: "incurred_at", OrderDir: "asc"}
		f.obligations.On("FindByPayer", mock.Anything, payerID, settlement.KindReceivable, wantFilter).
			Return(shared.NewPaginated([]*settlement.Obligation{}, 11, 3, 5), nil)

		req := httptest.NewRequest("GET", "/api/v1/payers/"+payerID.String()+"/obligations?page=3&page_size=5", nil)
		w := httptest.NewRecorder()
		f.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]any)
		assert.Equal(t, float64(11), data["total"])
		assert.Equal(t, float64(3), data["total_pages"])
		f.obligations.AssertExpectations(t)
	})

	t.Run("rejects out-of-range page size", func(t *testing.T) {
		f := setupSettlementTestRouter()

		req := httptest.NewRequest("GET", "/api/v1/payers/"+payerID.String()+"/obligations?page_size=500", nil)
		w := httptest.NewRecorder()
		f.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects unknown kind", func(t *testing.T) {
		f := setupSettlementTestRouter()

		req := httptest.NewRequest("GET", "/api/v1/payers/"+payerID.String()+"/obligations?kind=LOAN", nil)
		w := httptest.NewRecorder()
		f.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSettlementHandler_ObligationSummary(t *testing.T) {
	payerID := uuid.New()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	f := setupSettlementTestRouter()
	open := newOpenObligation(t, settlement.KindReceivable, payerID, 1300, base)
	f.obligations.On("ListOutstandingForPayer", mock.Anything, payerID, settlement.KindReceivable).
		Return([]*settlement.Obligation{open}, nil)
	f.obligations.On("SumOutstandingForPayer", mock.Anything, payerID, settlement.KindReceivable).
		Return(valueobject.NewMoney(1300), nil)

	req := httptest.NewRequest("GET", "/api/v1/payers/"+payerID.String()+"/obligations/summary", nil)
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(1), data["obligation_count"])
	assert.Equal(t, float64(1300), data["total_outstanding"])
}

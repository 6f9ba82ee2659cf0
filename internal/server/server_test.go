package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/famcart/receipt-analyzer/internal/common"
	"github.com/famcart/receipt-analyzer/internal/entity"
	"github.com/famcart/receipt-analyzer/internal/export"
)

type fakeQueue struct {
	enqueued []entity.AnalysisRequest
	err      error
}

func (f *fakeQueue) Enqueue(_ context.Context, req entity.AnalysisRequest) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, req)
	return nil
}

func (f *fakeQueue) Shutdown(_ context.Context) {}

type fakeReceipts struct {
	created   []*entity.ReceiptRecord
	createErr error
}

func (f *fakeReceipts) Create(_ context.Context, rec *entity.ReceiptRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	f.created = append(f.created, rec)
	return nil
}

func (f *fakeReceipts) ListUnprocessed(_ context.Context, _ string) ([]*entity.ReceiptRecord, error) {
	return nil, nil
}

func (f *fakeReceipts) ListProcessed(_ context.Context, _ string) ([]*entity.ReceiptRecord, error) {
	return nil, nil
}

func (f *fakeReceipts) MarkProcessed(_ context.Context, _ *entity.ReceiptRecord) error { return nil }

type fakeLists struct {
	list *entity.ShoppingList
}

func (f *fakeLists) Get(_ context.Context, familyID string) (*entity.ShoppingList, error) {
	if f.list == nil || f.list.ID != familyID {
		return nil, common.ErrNotFound
	}
	return f.list, nil
}

func (f *fakeLists) GetOrCreate(_ context.Context, familyID, _ string) (*entity.ShoppingList, error) {
	return f.Get(context.Background(), familyID)
}

func (f *fakeLists) Save(_ context.Context, _ *entity.ShoppingList) error { return nil }

func newTestServer(queue *fakeQueue, receipts *fakeReceipts, lists *fakeLists, health HealthChecker) *Server {
	logger := slog.New(slog.DiscardHandler)
	exporter := export.NewService(lists, receipts, logger)
	return NewServer(queue, receipts, lists, exporter, health, logger)
}

func TestCreateAnalysis(t *testing.T) {
	queue := &fakeQueue{}
	srv := newTestServer(queue, &fakeReceipts{}, &fakeLists{}, nil)

	body := `{"FamilyId": "fam-1", "UserEmail": "shopper@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/analyses", strings.NewReader(body))
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	require.Equal(t, http.StatusAccepted, rr.Code)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, "fam-1", queue.enqueued[0].FamilyID)
	assert.Equal(t, "shopper@example.com", queue.enqueued[0].UserEmail)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "queued", resp["status"])
}

func TestCreateAnalysisMissingFamilyID(t *testing.T) {
	queue := &fakeQueue{}
	srv := newTestServer(queue, &fakeReceipts{}, &fakeLists{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/analyses", strings.NewReader(`{"UserEmail": "x@y.z"}`))
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, queue.enqueued)
}

func TestCreateAnalysisBadBody(t *testing.T) {
	srv := newTestServer(&fakeQueue{}, &fakeReceipts{}, &fakeLists{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/analyses", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateReceipt(t *testing.T) {
	receipts := &fakeReceipts{}
	srv := newTestServer(&fakeQueue{}, receipts, &fakeLists{}, nil)

	body := `{"FamilyId": "fam-1", "UserEmail": "shopper@example.com", "OcrText": "KROGER\nMILK 3.49", "SourceRef": "upload/42"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/receipts", strings.NewReader(body))
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	require.Len(t, receipts.created, 1)
	rec := receipts.created[0]
	assert.Equal(t, "fam-1", rec.FamilyID)
	assert.Equal(t, "KROGER\nMILK 3.49", rec.OCRText)
	assert.Equal(t, "upload/42", rec.SourceRef)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, rec.ID.String(), resp["id"])
}

func TestCreateReceiptMissingText(t *testing.T) {
	receipts := &fakeReceipts{}
	srv := newTestServer(&fakeQueue{}, receipts, &fakeLists{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/receipts", strings.NewReader(`{"FamilyId": "fam-1"}`))
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, receipts.created)
}

func TestGetList(t *testing.T) {
	list := entity.NewShoppingList("fam-1", "shopper@example.com", time.Now().UTC())
	list.StoreItems["Kroger"] = []string{"Milk"}
	srv := newTestServer(&fakeQueue{}, &fakeReceipts{}, &fakeLists{list: list}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/lists/fam-1", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got entity.ShoppingList
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "fam-1", got.ID)
	assert.Equal(t, []string{"Milk"}, got.StoreItems["Kroger"])
}

func TestGetListNotFound(t *testing.T) {
	srv := newTestServer(&fakeQueue{}, &fakeReceipts{}, &fakeLists{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/lists/fam-unknown", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestExportList(t *testing.T) {
	list := entity.NewShoppingList("fam-1", "shopper@example.com", time.Now().UTC())
	list.StoreItems["Kroger"] = []string{"Milk"}
	srv := newTestServer(&fakeQueue{}, &fakeReceipts{}, &fakeLists{list: list}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/lists/fam-1/export", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "shopping-list-fam-1.xlsx")

	wb, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows("Shopping List")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Kroger", "Milk"}, rows[1])
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&fakeQueue{}, &fakeReceipts{}, &fakeLists{}, func(context.Context) error { return nil })

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHealthzUnhealthy(t *testing.T) {
	srv := newTestServer(&fakeQueue{}, &fakeReceipts{}, &fakeLists{}, func(context.Context) error {
		return errors.New("connection refused")
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

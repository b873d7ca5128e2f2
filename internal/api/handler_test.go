package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"reservation-service/internal/models"
	"reservation-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCart implements CartService with canned results
type stubCart struct {
	rows      []models.CartItemRow
	stock     int
	updateErr error
	updated   int
	deleted   int
}

func (s *stubCart) StartOrder(ctx context.Context, userID int64) (*models.Reservation, error) {
	return &models.Reservation{ID: 1, UserID: userID, Status: models.ReservationStatusPending}, nil
}

func (s *stubCart) ReadDetail(ctx context.Context, userID int64) ([]models.CartItemRow, error) {
	return s.rows, nil
}

func (s *stubCart) AddDetail(ctx context.Context, userID, productDetailID int64, quantity int) (*models.ReservationItem, error) {
	return &models.ReservationItem{ID: 9, ReservationID: 1, ProductDetailID: productDetailID, Quantity: quantity}, nil
}

func (s *stubCart) UpdateDetail(ctx context.Context, userID, itemID int64, quantity int) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updated++
	return nil
}

func (s *stubCart) DeleteDetail(ctx context.Context, userID, itemID int64) error {
	s.deleted++
	return nil
}

func (s *stubCart) GetExistencias(ctx context.Context, productID int64) (int, error) {
	return s.stock, nil
}

func (s *stubCart) FinishOrder(ctx context.Context, userID int64) (*models.Reservation, error) {
	return &models.Reservation{ID: 1, UserID: userID, Status: models.ReservationStatusFinished}, nil
}

// stubReservations implements ReservationService with canned results
type stubReservations struct {
	rows []models.ReservationRow
}

func (s *stubReservations) Create(ctx context.Context, userID int64, status string) (*models.Reservation, error) {
	return &models.Reservation{ID: 2, UserID: userID, Status: status}, nil
}

func (s *stubReservations) List(ctx context.Context) ([]models.ReservationRow, error) {
	return s.rows, nil
}

func (s *stubReservations) Get(ctx context.Context, id int64) (*models.ReservationRow, error) {
	return &s.rows[0], nil
}

func (s *stubReservations) Search(ctx context.Context, term string) ([]models.ReservationRow, error) {
	var out []models.ReservationRow
	for _, row := range s.rows {
		if strings.Contains(strings.ToLower(row.Username), strings.ToLower(term)) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *stubReservations) UpdateStatus(ctx context.Context, id int64, status string) error {
	return nil
}

func (s *stubReservations) GetItem(ctx context.Context, itemID int64) (*models.CartItemRow, error) {
	return nil, nil
}

func (s *stubReservations) GetItemForForm(ctx context.Context, itemID int64) (*models.ItemFormRow, error) {
	return nil, nil
}

func (s *stubReservations) GetItemDiscountDetail(ctx context.Context, itemID int64) (*models.ItemDiscountRow, error) {
	return nil, nil
}

func newTestRouter(cart CartService, reservations ReservationService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(cart, reservations).SetupRoutes(router)
	return router
}

func postCart(router *gin.Engine, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-User-ID", "7")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestCartActionReadDetail(t *testing.T) {
	cart := &stubCart{rows: []models.CartItemRow{
		{ID: 1, ProductID: 11, ProductName: "Collar", UnitPrice: decimal.RequireFromString("10.00"), Quantity: 2},
	}}
	router := newTestRouter(cart, &stubReservations{})

	w := postCart(router, url.Values{"action": {"readDetail"}})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Status)
	assert.Contains(t, w.Body.String(), `"nombre_producto":"Collar"`)
	assert.Contains(t, w.Body.String(), `"id_detalle_reserva":1`)
}

func TestCartActionGetExistencias(t *testing.T) {
	router := newTestRouter(&stubCart{stock: 4}, &stubReservations{})

	w := postCart(router, url.Values{
		"action":     {"getExistencias"},
		"idProducto": {"11"},
	})

	resp := decodeResponse(t, w)
	assert.True(t, resp.Status)
	assert.Contains(t, w.Body.String(), `"existencias":4`)
}

func TestCartActionUpdateDetailInsufficientStock(t *testing.T) {
	cart := &stubCart{updateErr: service.ErrInsufficientStock}
	router := newTestRouter(cart, &stubReservations{})

	w := postCart(router, url.Values{
		"action":    {"updateDetail"},
		"idDetalle": {"1"},
		"cantidad":  {"5"},
	})

	// failures travel in the body, the HTTP status stays 200
	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.Status)
	assert.NotEmpty(t, resp.Error)
	assert.Zero(t, cart.updated)
}

func TestCartActionUnknown(t *testing.T) {
	router := newTestRouter(&stubCart{}, &stubReservations{})

	w := postCart(router, url.Values{"action": {"teleport"}})

	resp := decodeResponse(t, w)
	assert.False(t, resp.Status)
	assert.Contains(t, resp.Error, "unknown action")
}

func TestCartActionMissingIdentity(t *testing.T) {
	router := newTestRouter(&stubCart{}, &stubReservations{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart",
		strings.NewReader(url.Values{"action": {"readDetail"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := decodeResponse(t, w)
	assert.False(t, resp.Status)
}

func TestSearchReservationsRoute(t *testing.T) {
	reservations := &stubReservations{rows: []models.ReservationRow{
		{ID: 1, Username: "Ana23"},
		{ID: 2, Username: "ivana"},
		{ID: 3, Username: "carlos"},
	}}
	router := newTestRouter(&stubCart{}, reservations)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations?q=ana", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ana23")
	assert.Contains(t, w.Body.String(), "ivana")
	assert.NotContains(t, w.Body.String(), "carlos")
}

func TestUpdateReservationStatusRoute(t *testing.T) {
	router := newTestRouter(&stubCart{}, &stubReservations{rows: []models.ReservationRow{{ID: 1}}})

	body := strings.NewReader(`{"status": "FINISHED"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/reservations/1/status", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Status)
}

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"reservation-service/internal/models"
	"reservation-service/internal/service"
	"reservation-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CartService is the surface the cart action endpoint dispatches to
type CartService interface {
	StartOrder(ctx context.Context, userID int64) (*models.Reservation, error)
	ReadDetail(ctx context.Context, userID int64) ([]models.CartItemRow, error)
	AddDetail(ctx context.Context, userID, productDetailID int64, quantity int) (*models.ReservationItem, error)
	UpdateDetail(ctx context.Context, userID, itemID int64, quantity int) error
	DeleteDetail(ctx context.Context, userID, itemID int64) error
	GetExistencias(ctx context.Context, productID int64) (int, error)
	FinishOrder(ctx context.Context, userID int64) (*models.Reservation, error)
}

// ReservationService is the surface behind the management routes
type ReservationService interface {
	Create(ctx context.Context, userID int64, status string) (*models.Reservation, error)
	List(ctx context.Context) ([]models.ReservationRow, error)
	Get(ctx context.Context, id int64) (*models.ReservationRow, error)
	Search(ctx context.Context, term string) ([]models.ReservationRow, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	GetItem(ctx context.Context, itemID int64) (*models.CartItemRow, error)
	GetItemForForm(ctx context.Context, itemID int64) (*models.ItemFormRow, error)
	GetItemDiscountDetail(ctx context.Context, itemID int64) (*models.ItemDiscountRow, error)
}

// Handler contains HTTP handlers
type Handler struct {
	cart         CartService
	reservations ReservationService
}

// NewHandler creates a new HTTP handler
func NewHandler(cart CartService, reservations ReservationService) *Handler {
	return &Handler{
		cart:         cart,
		reservations: reservations,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/cart", h.cartAction)

		v1.POST("/reservations", h.createReservation)
		v1.GET("/reservations", h.listReservations)
		v1.GET("/reservations/:id", h.getReservation)
		v1.PUT("/reservations/:id/status", h.updateReservationStatus)

		v1.GET("/items/:id", h.getItem)
		v1.GET("/items/:id/form", h.getItemForForm)
		v1.GET("/items/:id/discount", h.getItemDiscountDetail)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// cartAction dispatches the form-encoded cart actions. The endpoint
// always answers 200 with the uniform {status, message|error, data|dataset}
// contract; failures are carried in the body, not the HTTP status.
func (h *Handler) cartAction(c *gin.Context) {
	action := c.PostForm("action")
	util.CartActionsTotal.WithLabelValues(action).Inc()

	userID, err := callerID(c)
	if err != nil {
		c.JSON(http.StatusOK, Fail("missing or invalid user identity"))
		return
	}

	ctx := c.Request.Context()

	switch action {
	case "startOrder":
		res, err := h.cart.StartOrder(ctx, userID)
		if err != nil {
			h.cartError(c, action, err)
			return
		}
		c.JSON(http.StatusOK, OKData("Order started", res))

	case "readDetail":
		rows, err := h.cart.ReadDetail(ctx, userID)
		if err != nil {
			h.cartError(c, action, err)
			return
		}
		c.JSON(http.StatusOK, OKDataset("Cart detail", rows))

	case "addDetail":
		detailID, err1 := formInt64(c, "idDetalleProducto")
		quantity, err2 := formInt(c, "cantidad")
		if err1 != nil || err2 != nil {
			c.JSON(http.StatusOK, Fail("invalid product detail or quantity"))
			return
		}
		item, err := h.cart.AddDetail(ctx, userID, detailID, quantity)
		if err != nil {
			h.cartError(c, action, err)
			return
		}
		c.JSON(http.StatusOK, OKData("Product added to cart", item))

	case "updateDetail":
		itemID, err1 := formInt64(c, "idDetalle")
		quantity, err2 := formInt(c, "cantidad")
		if err1 != nil || err2 != nil {
			c.JSON(http.StatusOK, Fail("invalid item or quantity"))
			return
		}
		if err := h.cart.UpdateDetail(ctx, userID, itemID, quantity); err != nil {
			h.cartError(c, action, err)
			return
		}
		c.JSON(http.StatusOK, OK("Quantity updated"))

	case "deleteDetail":
		itemID, err := formInt64(c, "idDetalle")
		if err != nil {
			c.JSON(http.StatusOK, Fail("invalid item id"))
			return
		}
		if err := h.cart.DeleteDetail(ctx, userID, itemID); err != nil {
			h.cartError(c, action, err)
			return
		}
		c.JSON(http.StatusOK, OK("Product removed from cart"))

	case "getExistencias":
		productID, err := formInt64(c, "idProducto")
		if err != nil {
			c.JSON(http.StatusOK, Fail("invalid product id"))
			return
		}
		available, err := h.cart.GetExistencias(ctx, productID)
		if err != nil {
			h.cartError(c, action, err)
			return
		}
		c.JSON(http.StatusOK, OKData("Stock", gin.H{"existencias": available}))

	case "finishOrder":
		res, err := h.cart.FinishOrder(ctx, userID)
		if err != nil {
			h.cartError(c, action, err)
			return
		}
		c.JSON(http.StatusOK, OKData("Order finished", res))

	default:
		c.JSON(http.StatusOK, Fail("unknown action: "+action))
	}
}

// cartError maps service failures onto the uniform contract
func (h *Handler) cartError(c *gin.Context, action string, err error) {
	reason := "error"
	switch {
	case errors.Is(err, service.ErrInsufficientStock):
		reason = "insufficient_stock"
	case errors.Is(err, service.ErrNoOpenReservation):
		reason = "no_open_reservation"
	case errors.Is(err, service.ErrEmptyCart):
		reason = "empty_cart"
	case errors.Is(err, service.ErrForbidden):
		reason = "forbidden"
	}
	util.CartActionsFailedTotal.WithLabelValues(action, reason).Inc()
	c.JSON(http.StatusOK, Fail(err.Error()))
}

// createReservation handles reservation creation
func (h *Handler) createReservation(c *gin.Context) {
	var req struct {
		UserID int64  `json:"user_id" binding:"required"`
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Fail("invalid request body: "+err.Error()))
		return
	}
	if req.Status == "" {
		req.Status = models.ReservationStatusPending
	}

	res, err := h.reservations.Create(c.Request.Context(), req.UserID, req.Status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, OKData("Reservation created", res))
}

// listReservations lists all reservations, optionally filtered by the
// q parameter (username substring, case-insensitive)
func (h *Handler) listReservations(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		rows []models.ReservationRow
		err  error
	)
	if term, ok := c.GetQuery("q"); ok {
		rows, err = h.reservations.Search(ctx, term)
	} else {
		rows, err = h.reservations.List(ctx)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	c.JSON(http.StatusOK, OKDataset("Reservations", rows))
}

// getReservation returns one reservation by id
func (h *Handler) getReservation(c *gin.Context) {
	id, err := paramInt64(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, Fail("invalid reservation id"))
		return
	}

	row, err := h.reservations.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, Fail(err.Error()))
		return
	}
	c.JSON(http.StatusOK, OKData("Reservation", row))
}

// updateReservationStatus sets a reservation's status
func (h *Handler) updateReservationStatus(c *gin.Context) {
	id, err := paramInt64(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, Fail("invalid reservation id"))
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Fail("invalid request body: "+err.Error()))
		return
	}

	if err := h.reservations.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		c.JSON(http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	c.JSON(http.StatusOK, OK("Status updated"))
}

// getItem returns one line-item joined with product data
func (h *Handler) getItem(c *gin.Context) {
	id, err := paramInt64(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, Fail("invalid item id"))
		return
	}

	row, err := h.reservations.GetItem(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, Fail(err.Error()))
		return
	}
	c.JSON(http.StatusOK, OKData("Item", row))
}

// getItemForForm returns the joined row backing the item edit form
func (h *Handler) getItemForForm(c *gin.Context) {
	id, err := paramInt64(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, Fail("invalid item id"))
		return
	}

	row, err := h.reservations.GetItemForForm(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, Fail(err.Error()))
		return
	}
	c.JSON(http.StatusOK, OKData("Item form", row))
}

// getItemDiscountDetail returns the discount-detail view of a line-item
func (h *Handler) getItemDiscountDetail(c *gin.Context) {
	id, err := paramInt64(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, Fail("invalid item id"))
		return
	}

	row, err := h.reservations.GetItemDiscountDetail(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, Fail(err.Error()))
		return
	}
	c.JSON(http.StatusOK, OKData("Item discount detail", row))
}

// callerID extracts the authenticated user id. Authentication itself is
// external; the gateway forwards the identity in X-User-ID.
func callerID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.GetHeader("X-User-ID"), 10, 64)
}

func formInt64(c *gin.Context, field string) (int64, error) {
	return strconv.ParseInt(c.PostForm(field), 10, 64)
}

func formInt(c *gin.Context, field string) (int, error) {
	return strconv.Atoi(c.PostForm(field))
}

func paramInt64(c *gin.Context, field string) (int64, error) {
	return strconv.ParseInt(c.Param(field), 10, 64)
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}

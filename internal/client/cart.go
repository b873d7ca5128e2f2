package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"reservation-service/internal/models"

	"github.com/shopspring/decimal"
)

// Level classifies user feedback routed through the Notifier
type Level int

const (
	LevelSuccess Level = iota + 1
	LevelError
)

// Notifier is the single feedback primitive: every user-facing message,
// success or failure, goes through it.
type Notifier func(level Level, message string)

// Confirmer gates destructive actions. A false return cancels the
// action without any request being sent.
type Confirmer func(prompt string) bool

// LandingPage is where the cart navigates after a finished order
const LandingPage = "index.html"

var (
	// ErrDialogClosed is returned when submitting without an open dialog
	ErrDialogClosed = errors.New("quantity dialog is not open")
	// ErrDialogDisabled is returned when the dialog was disabled by a
	// zero-stock lookup
	ErrDialogDisabled = errors.New("quantity dialog is disabled")
	// ErrSubmitInFlight is returned when a submit is already running
	ErrSubmitInFlight = errors.New("submit already in flight")
)

// QuantityDialog holds the state of the quantity-edit dialog: the
// selected item snapshot, whether input is enabled, the inline error
// text, and an explicit in-flight flag guarding re-entrancy.
type QuantityDialog struct {
	Open      bool
	ItemID    int64
	ProductID int64
	Quantity  int
	Enabled   bool
	ErrorText string
	inFlight  bool
}

// CartClient drives the shopping cart against the action endpoint:
// loading and rendering line-items, editing quantities with stock
// validation, removing items and finishing the order.
type CartClient struct {
	baseURL string
	userID  int64
	http    *http.Client
	out     io.Writer
	notify  Notifier
	confirm Confirmer

	rows   []models.CartItemRow
	total  string
	Dialog QuantityDialog
}

// NewCartClient creates a cart client for one user session
func NewCartClient(baseURL string, userID int64, out io.Writer, notify Notifier, confirm Confirmer) *CartClient {
	return &CartClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		userID:  userID,
		http:    &http.Client{Timeout: 10 * time.Second},
		out:     out,
		notify:  notify,
		confirm: confirm,
	}
}

// Rows returns the currently loaded cart rows
func (cc *CartClient) Rows() []models.CartItemRow {
	return cc.rows
}

// Total returns the last rendered total, formatted with 2 decimals
func (cc *CartClient) Total() string {
	return cc.total
}

// Load fetches the cart detail and renders one row per item with its
// subtotal, accumulating the total.
func (cc *CartClient) Load(ctx context.Context) error {
	resp, err := cc.doAction(ctx, "readDetail", nil)
	if err != nil {
		cc.notify(LevelError, err.Error())
		return err
	}
	if !resp.Status {
		cc.notify(LevelError, resp.Error)
		return errors.New(resp.Error)
	}

	var rows []models.CartItemRow
	if len(resp.Dataset) > 0 {
		if err := json.Unmarshal(resp.Dataset, &rows); err != nil {
			return fmt.Errorf("failed to decode cart rows: %w", err)
		}
	}
	cc.rows = rows
	cc.total = models.FormatMoney(models.CartTotal(rows))

	return cc.render()
}

// render writes the cart table: product, unit price, quantity, subtotal
func (cc *CartClient) render() error {
	w := tabwriter.NewWriter(cc.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCTO\tPRECIO\tCANTIDAD\tSUBTOTAL")
	for _, row := range cc.rows {
		subtotal := row.UnitPrice.Mul(decimal.NewFromInt(int64(row.Quantity)))
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			row.ProductName,
			row.UnitPrice.String(),
			row.Quantity,
			models.FormatMoney(subtotal))
	}
	fmt.Fprintf(w, "TOTAL\t\t\t%s\n", cc.total)
	return w.Flush()
}

// OpenQuantityDialog opens the edit dialog for a loaded line-item and
// checks the product's stock: zero stock disables both the quantity
// field and the submit control and sets an inline error.
func (cc *CartClient) OpenQuantityDialog(ctx context.Context, itemID int64) error {
	var selected *models.CartItemRow
	for i := range cc.rows {
		if cc.rows[i].ID == itemID {
			selected = &cc.rows[i]
			break
		}
	}
	if selected == nil {
		return fmt.Errorf("item %d is not in the loaded cart", itemID)
	}

	cc.Dialog = QuantityDialog{
		Open:      true,
		ItemID:    selected.ID,
		ProductID: selected.ProductID,
		Quantity:  selected.Quantity,
	}

	available, err := cc.fetchStock(ctx, selected.ProductID)
	if err != nil {
		cc.notify(LevelError, err.Error())
		return err
	}

	if available == 0 {
		cc.Dialog.Enabled = false
		cc.Dialog.ErrorText = "No hay existencias disponibles."
	} else {
		cc.Dialog.Enabled = true
		cc.Dialog.ErrorText = ""
	}
	return nil
}

// SubmitQuantity re-validates the requested quantity against current
// stock and sends the update. Requests above stock are cancelled before
// anything is sent. The in-flight flag makes the submit single-shot
// until it completes.
func (cc *CartClient) SubmitQuantity(ctx context.Context, quantity int) error {
	if !cc.Dialog.Open {
		return ErrDialogClosed
	}
	if !cc.Dialog.Enabled {
		return ErrDialogDisabled
	}
	if cc.Dialog.inFlight {
		return ErrSubmitInFlight
	}
	cc.Dialog.inFlight = true
	defer func() { cc.Dialog.inFlight = false }()

	available, err := cc.fetchStock(ctx, cc.Dialog.ProductID)
	if err != nil {
		cc.notify(LevelError, err.Error())
		return err
	}
	if quantity > available {
		msg := "La cantidad ingresada es mayor que las existencias disponibles."
		cc.Dialog.ErrorText = msg
		cc.notify(LevelError, msg)
		return errors.New(msg)
	}

	form := url.Values{}
	form.Set("idDetalle", strconv.FormatInt(cc.Dialog.ItemID, 10))
	form.Set("cantidad", strconv.Itoa(quantity))

	resp, err := cc.doAction(ctx, "updateDetail", form)
	if err != nil {
		cc.notify(LevelError, err.Error())
		return err
	}
	if !resp.Status {
		cc.notify(LevelError, resp.Error)
		return errors.New(resp.Error)
	}

	cc.Dialog = QuantityDialog{}
	cc.notify(LevelSuccess, resp.Message)
	return cc.Load(ctx)
}

// DeleteItem removes a line-item after interactive confirmation. Without
// confirmation no request is sent. On success the cart is re-read.
func (cc *CartClient) DeleteItem(ctx context.Context, itemID int64) error {
	if !cc.confirm("¿Está seguro de remover el producto?") {
		return nil
	}

	form := url.Values{}
	form.Set("idDetalle", strconv.FormatInt(itemID, 10))

	resp, err := cc.doAction(ctx, "deleteDetail", form)
	if err != nil {
		cc.notify(LevelError, err.Error())
		return err
	}
	if !resp.Status {
		cc.notify(LevelError, resp.Error)
		return errors.New(resp.Error)
	}

	cc.notify(LevelSuccess, resp.Message)
	return cc.Load(ctx)
}

// FinishOrder finalizes the open reservation after confirmation and
// reports the landing destination on success
func (cc *CartClient) FinishOrder(ctx context.Context) (string, error) {
	if !cc.confirm("¿Está seguro de finalizar el pedido?") {
		return "", nil
	}

	resp, err := cc.doAction(ctx, "finishOrder", nil)
	if err != nil {
		cc.notify(LevelError, err.Error())
		return "", err
	}
	if !resp.Status {
		cc.notify(LevelError, resp.Error)
		return "", errors.New(resp.Error)
	}

	cc.notify(LevelSuccess, resp.Message)
	return LandingPage, nil
}

// fetchStock looks up a product's existencias via the action endpoint
func (cc *CartClient) fetchStock(ctx context.Context, productID int64) (int, error) {
	form := url.Values{}
	form.Set("idProducto", strconv.FormatInt(productID, 10))

	resp, err := cc.doAction(ctx, "getExistencias", form)
	if err != nil {
		return 0, err
	}
	if !resp.Status {
		return 0, errors.New(resp.Error)
	}

	var data struct {
		Existencias int `json:"existencias"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return 0, fmt.Errorf("failed to decode stock response: %w", err)
	}
	return data.Existencias, nil
}

// actionResponse mirrors the endpoint's uniform contract with payloads
// kept raw for per-action decoding
type actionResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
	Dataset json.RawMessage `json:"dataset"`
}

// doAction posts one form-encoded action to the cart endpoint
func (cc *CartClient) doAction(ctx context.Context, action string, form url.Values) (*actionResponse, error) {
	if form == nil {
		form = url.Values{}
	}
	form.Set("action", action)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		cc.baseURL+"/api/v1/cart", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-User-ID", strconv.FormatInt(cc.userID, 10))

	httpResp, err := cc.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cart request failed: %w", err)
	}
	defer httpResp.Body.Close()

	var resp actionResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode cart response: %w", err)
	}
	return &resp, nil
}

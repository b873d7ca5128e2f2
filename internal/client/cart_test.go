package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cartBackend is a scripted stand-in for the action endpoint. It serves
// a fixed dataset and stock level and counts the mutating requests it
// receives.
type cartBackend struct {
	mu       sync.Mutex
	stock    int
	updates  int
	deletes  int
	finishes int
	dataset  string
}

func (b *cartBackend) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()

		b.mu.Lock()
		defer b.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch r.PostFormValue("action") {
		case "readDetail":
			fmt.Fprintf(w, `{"status": true, "message": "Cart detail", "dataset": %s}`, b.dataset)
		case "getExistencias":
			fmt.Fprintf(w, `{"status": true, "data": {"existencias": %d}}`, b.stock)
		case "updateDetail":
			b.updates++
			fmt.Fprint(w, `{"status": true, "message": "Quantity updated"}`)
		case "deleteDetail":
			b.deletes++
			fmt.Fprint(w, `{"status": true, "message": "Product removed from cart"}`)
		case "finishOrder":
			b.finishes++
			fmt.Fprint(w, `{"status": true, "message": "Order finished"}`)
		default:
			fmt.Fprint(w, `{"status": false, "error": "unknown action"}`)
		}
	}
}

func (b *cartBackend) counts() (updates, deletes, finishes int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.updates, b.deletes, b.finishes
}

const twoItemDataset = `[
	{"id_detalle_reserva": 1, "id_producto": 11, "nombre_producto": "Collar", "precio_unitario": 10.00, "cantidad": 2},
	{"id_detalle_reserva": 2, "id_producto": 12, "nombre_producto": "Anillo", "precio_unitario": 5.50, "cantidad": 3}
]`

type notification struct {
	level   Level
	message string
}

func newTestClient(t *testing.T, backend *cartBackend, confirm bool) (*CartClient, *[]notification, *bytes.Buffer) {
	t.Helper()

	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	var notes []notification
	out := &bytes.Buffer{}
	cc := NewCartClient(srv.URL, 7, out,
		func(level Level, message string) {
			notes = append(notes, notification{level, message})
		},
		func(string) bool { return confirm },
	)
	return cc, &notes, out
}

func TestLoadRendersTotal(t *testing.T) {
	backend := &cartBackend{stock: 10, dataset: twoItemDataset}
	cc, _, out := newTestClient(t, backend, true)

	require.NoError(t, cc.Load(context.Background()))

	// [{10.00 x 2}, {5.50 x 3}] = 36.50, exactly two decimals
	assert.Equal(t, "36.50", cc.Total())
	assert.Contains(t, out.String(), "36.50")
	assert.Contains(t, out.String(), "Collar")
	assert.Len(t, cc.Rows(), 2)
}

func TestOpenDialogZeroStockDisables(t *testing.T) {
	backend := &cartBackend{stock: 0, dataset: twoItemDataset}
	cc, _, _ := newTestClient(t, backend, true)

	require.NoError(t, cc.Load(context.Background()))
	require.NoError(t, cc.OpenQuantityDialog(context.Background(), 1))

	assert.False(t, cc.Dialog.Enabled)
	assert.NotEmpty(t, cc.Dialog.ErrorText)

	err := cc.SubmitQuantity(context.Background(), 1)
	assert.ErrorIs(t, err, ErrDialogDisabled)

	updates, _, _ := backend.counts()
	assert.Zero(t, updates)
}

func TestOpenDialogWithStockEnables(t *testing.T) {
	backend := &cartBackend{stock: 5, dataset: twoItemDataset}
	cc, _, _ := newTestClient(t, backend, true)

	require.NoError(t, cc.Load(context.Background()))
	require.NoError(t, cc.OpenQuantityDialog(context.Background(), 1))

	assert.True(t, cc.Dialog.Enabled)
	assert.Empty(t, cc.Dialog.ErrorText)
	assert.Equal(t, int64(1), cc.Dialog.ItemID)
	assert.Equal(t, 2, cc.Dialog.Quantity)
}

func TestSubmitQuantityExceedingStockIsCancelled(t *testing.T) {
	backend := &cartBackend{stock: 3, dataset: twoItemDataset}
	cc, notes, _ := newTestClient(t, backend, true)

	require.NoError(t, cc.Load(context.Background()))
	require.NoError(t, cc.OpenQuantityDialog(context.Background(), 1))

	err := cc.SubmitQuantity(context.Background(), 5)
	assert.Error(t, err)

	updates, _, _ := backend.counts()
	assert.Zero(t, updates, "no update request may be sent when quantity exceeds stock")
	require.NotEmpty(t, *notes)
	assert.Equal(t, LevelError, (*notes)[len(*notes)-1].level)
}

func TestSubmitQuantityEqualToStockProceeds(t *testing.T) {
	backend := &cartBackend{stock: 3, dataset: twoItemDataset}
	cc, _, _ := newTestClient(t, backend, true)

	require.NoError(t, cc.Load(context.Background()))
	require.NoError(t, cc.OpenQuantityDialog(context.Background(), 1))

	require.NoError(t, cc.SubmitQuantity(context.Background(), 3))

	updates, _, _ := backend.counts()
	assert.Equal(t, 1, updates)
	assert.False(t, cc.Dialog.Open, "dialog closes after a successful submit")
}

func TestSubmitWithoutOpenDialog(t *testing.T) {
	backend := &cartBackend{stock: 3, dataset: twoItemDataset}
	cc, _, _ := newTestClient(t, backend, true)

	err := cc.SubmitQuantity(context.Background(), 1)
	assert.ErrorIs(t, err, ErrDialogClosed)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	backend := &cartBackend{stock: 3, dataset: twoItemDataset}
	cc, _, _ := newTestClient(t, backend, false)

	require.NoError(t, cc.Load(context.Background()))
	require.NoError(t, cc.DeleteItem(context.Background(), 1))

	_, deletes, _ := backend.counts()
	assert.Zero(t, deletes, "declining the confirmation must not send a request")
}

func TestDeleteConfirmedSendsOneRequestAndReloads(t *testing.T) {
	backend := &cartBackend{stock: 3, dataset: twoItemDataset}
	cc, notes, _ := newTestClient(t, backend, true)

	require.NoError(t, cc.Load(context.Background()))
	require.NoError(t, cc.DeleteItem(context.Background(), 1))

	_, deletes, _ := backend.counts()
	assert.Equal(t, 1, deletes)
	require.NotEmpty(t, *notes)
	assert.Equal(t, LevelSuccess, (*notes)[0].level)
	// reload happened: rows are populated from the re-read
	assert.Len(t, cc.Rows(), 2)
}

func TestFinishOrderRequiresConfirmation(t *testing.T) {
	backend := &cartBackend{stock: 3, dataset: twoItemDataset}
	cc, _, _ := newTestClient(t, backend, false)

	dest, err := cc.FinishOrder(context.Background())
	require.NoError(t, err)
	assert.Empty(t, dest)

	_, _, finishes := backend.counts()
	assert.Zero(t, finishes)
}

func TestFinishOrderConfirmed(t *testing.T) {
	backend := &cartBackend{stock: 3, dataset: twoItemDataset}
	cc, _, _ := newTestClient(t, backend, true)

	dest, err := cc.FinishOrder(context.Background())
	require.NoError(t, err)
	assert.Equal(t, LandingPage, dest)

	_, _, finishes := backend.counts()
	assert.Equal(t, 1, finishes)
}

func TestLoadSurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": false,
			"error":  "no open reservation for user",
		})
	}))
	defer srv.Close()

	var notes []notification
	cc := NewCartClient(srv.URL, 7, &bytes.Buffer{},
		func(level Level, message string) {
			notes = append(notes, notification{level, message})
		},
		func(string) bool { return true },
	)

	err := cc.Load(context.Background())
	assert.Error(t, err)
	require.NotEmpty(t, notes)
	assert.Equal(t, LevelError, notes[0].level)
	assert.Equal(t, "no open reservation for user", notes[0].message)
}

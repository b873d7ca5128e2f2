package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog
type Product struct {
	ID           int64           `db:"id" json:"id"`
	Name         string          `db:"name" json:"nombre_producto"`
	Image        string          `db:"image" json:"imagen"`
	InternalCode string          `db:"internal_code" json:"codigo_interno"`
	SupplierRef  string          `db:"supplier_ref" json:"referencia_proveedor"`
	Price        decimal.Decimal `db:"price" json:"precio"`
	BrandID      *int64          `db:"brand_id" json:"brand_id,omitempty"`
	DiscountID   *int64          `db:"discount_id" json:"discount_id,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// Brand represents a product brand
type Brand struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"marca"`
}

// Discount represents a percentage discount applicable to a product
type Discount struct {
	ID    int64           `db:"id" json:"id"`
	Name  string          `db:"name" json:"nombre_descuento"`
	Value decimal.Decimal `db:"value" json:"valor"`
}

// User represents a registered customer
type User struct {
	ID       int64  `db:"id" json:"id"`
	Username string `db:"username" json:"usuario"`
	Name     string `db:"name" json:"nombre"`
	Email    string `db:"email" json:"correo"`
	Address  string `db:"address" json:"direccion"`
}

// Inventory represents product stock
type Inventory struct {
	ProductID int64     `db:"product_id" json:"product_id"`
	Available int       `db:"available" json:"existencias"`
	Reserved  int       `db:"reserved" json:"reserved"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Reservation represents a customer cart/order record
type Reservation struct {
	ID        int64     `db:"id" json:"id_reserva"`
	UserID    int64     `db:"user_id" json:"id_usuario"`
	Status    string    `db:"status" json:"estado_reserva"`
	CreatedAt time.Time `db:"created_at" json:"fecha_registro"`
}

// ReservationRow is a reservation joined with its owning user, as listed
// on the management views (ordered by username)
type ReservationRow struct {
	ID        int64     `db:"id" json:"id_reserva"`
	UserID    int64     `db:"user_id" json:"id_usuario"`
	Username  string    `db:"username" json:"usuario"`
	UserName  string    `db:"user_name" json:"nombre_usuario"`
	Status    string    `db:"status" json:"estado_reserva"`
	CreatedAt time.Time `db:"created_at" json:"fecha_registro"`
}

// ReservationItem represents one product entry within a reservation.
// UnitPrice is a snapshot taken when the product was added, never
// re-derived from the current catalog price.
type ReservationItem struct {
	ID              int64           `db:"id" json:"id_detalle_reserva"`
	ReservationID   int64           `db:"reservation_id" json:"id_reserva"`
	ProductDetailID int64           `db:"product_detail_id" json:"id_detalle_producto"`
	Quantity        int             `db:"quantity" json:"cantidad"`
	UnitPrice       decimal.Decimal `db:"unit_price" json:"precio_unitario"`
}

// CartItemRow is a reservation item joined with product display data.
// The json tags are the wire names the storefront consumes.
type CartItemRow struct {
	ID          int64           `db:"id" json:"id_detalle_reserva"`
	ProductID   int64           `db:"product_id" json:"id_producto"`
	ProductName string          `db:"product_name" json:"nombre_producto"`
	Image       string          `db:"image" json:"imagen"`
	Quantity    int             `db:"quantity" json:"cantidad"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"precio_unitario"`
	CreatedAt   time.Time       `db:"created_at" json:"fecha_registro"`
}

// ItemFormRow is a single item joined across product, brand, discount and
// user for the item form. DiscountedPrice carries the exact value of
// price * (1 - value/100) without rounding.
type ItemFormRow struct {
	Username        string              `db:"username" json:"usuario"`
	ProductName     string              `db:"product_name" json:"nombre_producto"`
	InternalCode    string              `db:"internal_code" json:"codigo_interno"`
	SupplierRef     string              `db:"supplier_ref" json:"referencia_proveedor"`
	Brand           *string             `db:"brand" json:"marca"`
	Quantity        int                 `db:"quantity" json:"cantidad"`
	UnitPrice       decimal.Decimal     `db:"unit_price" json:"precio_unitario"`
	DiscountValue   decimal.NullDecimal `db:"discount_value" json:"valor"`
	DiscountedPrice decimal.NullDecimal `db:"discounted_price" json:"precio_descuento"`
	Address         string              `db:"address" json:"direccion"`
}

// ItemDiscountRow is a single item joined for the discount-detail view.
// DiscountValue and DiscountedPrice are rounded to 2 decimals by the
// query; DiscountedPrice falls back to the plain unit price when the
// product has no discount.
type ItemDiscountRow struct {
	Quantity        int                 `db:"quantity" json:"cantidad"`
	UnitPrice       decimal.Decimal     `db:"unit_price" json:"precio_unitario"`
	Brand           string              `db:"brand" json:"nombre_marca"`
	UserName        string              `db:"user_name" json:"nombre_usuario"`
	UserEmail       string              `db:"user_email" json:"correo_usuario"`
	UserAddress     string              `db:"user_address" json:"direccion_usuario"`
	ProductName     string              `db:"product_name" json:"nombre_producto"`
	DiscountName    *string             `db:"discount_name" json:"nombre_descuento"`
	DiscountValue   decimal.NullDecimal `db:"discount_value" json:"valor_descuento"`
	DiscountedPrice decimal.Decimal     `db:"discounted_price" json:"precio_con_descuento"`
}

// Reservation statuses
const (
	ReservationStatusPending   = "PENDING"
	ReservationStatusFinished  = "FINISHED"
	ReservationStatusCancelled = "CANCELLED"
)

// ProcessedEvent for idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}

// Package handler serves the catalog over HTTP. Every response is wrapped in
// the {code, message, data} envelope.
package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/catalog/internal/domain/catalog"
	"github.com/xenking/catalog/pkg/envelope"
)

// Catalog is the part of *catalog.Service used by the handlers.
type Catalog interface {
	GetProduct(ctx context.Context, id uint64) (*catalog.Product, error)
	GetProductSkus(ctx context.Context, id uint64) ([]catalog.Sku, error)
	ListProducerProducts(ctx context.Context, producerID uint64) ([]*catalog.Product, error)
	ListTenantProducts(ctx context.Context, tenantID uint64) ([]*catalog.Product, error)
	ListSaleProducts(ctx context.Context, shopID uint64) ([]catalog.SaleProductInfo, error)
	GetSaleProductData(ctx context.Context, id uint64) (catalog.SaleProductData, error)
	ImportSelfProduct(ctx context.Context, tenantID uint64, p catalog.ProductImport) error
	ImportProducerProduct(ctx context.Context, producerID uint64, p catalog.ProductImport) error
}

var _ Catalog = (*catalog.Service)(nil)

// Handler exposes a Catalog over HTTP.
type Handler struct {
	catalog Catalog
}

// NewHandler creates a Handler.
func NewHandler(c Catalog) *Handler {
	return &Handler{catalog: c}
}

// Register adds the catalog routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)
	mux.HandleFunc("GET /api/products/{id}/skus", h.GetProductSkus)
	mux.HandleFunc("GET /api/producers/{id}/products", h.ListProducerProducts)
	mux.HandleFunc("POST /api/producers/{id}/products", h.ImportProducerProduct)
	mux.HandleFunc("GET /api/tenants/{id}/products", h.ListTenantProducts)
	mux.HandleFunc("POST /api/tenants/{id}/products", h.ImportTenantProduct)
	mux.HandleFunc("GET /api/shops/{id}/sale-products", h.ListSaleProducts)
	mux.HandleFunc("GET /api/sale-products/{id}", h.GetSaleProductData)
}

func pathID(r *http.Request) (uint64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// writeData encodes the payload produced by enc inside a successful envelope.
func writeData(w http.ResponseWriter, status int, enc func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	enc(e)
	envelope.Write(w, status, envelope.OK(e.Bytes()))
}

// writeError maps catalog errors to HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		qerr *catalog.QueryError
		ierr *catalog.ImportError
	)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		envelope.Error(w, http.StatusNotFound, catalog.ErrNotFound.Error())
	case errors.As(err, &qerr):
		zctx.From(r.Context()).Warn("Store unavailable", zap.Error(err))
		envelope.Error(w, http.StatusServiceUnavailable, "store unavailable")
	case errors.As(err, &ierr):
		envelope.Error(w, http.StatusUnprocessableEntity, ierr.Error())
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads the response.
		envelope.Error(w, http.StatusServiceUnavailable, "request canceled")
	default:
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		envelope.Error(w, http.StatusInternalServerError, "internal error")
	}
}

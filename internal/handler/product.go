package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/catalog/internal/domain/catalog"
	"github.com/xenking/catalog/pkg/envelope"
)

// GetProduct serves GET /api/products/{id}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		envelope.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, func(e *jx.Encoder) { encodeProduct(e, p) })
}

// GetProductSkus serves GET /api/products/{id}/skus.
func (h *Handler) GetProductSkus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		envelope.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	skus, err := h.catalog.GetProductSkus(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, func(e *jx.Encoder) { encodeSkus(e, skus) })
}

// ListProducerProducts serves GET /api/producers/{id}/products.
func (h *Handler) ListProducerProducts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		envelope.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	products, err := h.catalog.ListProducerProducts(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, func(e *jx.Encoder) { encodeProducts(e, products) })
}

// ListTenantProducts serves GET /api/tenants/{id}/products.
func (h *Handler) ListTenantProducts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		envelope.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	products, err := h.catalog.ListTenantProducts(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, func(e *jx.Encoder) { encodeProducts(e, products) })
}

// ImportTenantProduct serves POST /api/tenants/{id}/products.
func (h *Handler) ImportTenantProduct(w http.ResponseWriter, r *http.Request) {
	h.importProduct(w, r, h.catalog.ImportSelfProduct)
}

// ImportProducerProduct serves POST /api/producers/{id}/products.
func (h *Handler) ImportProducerProduct(w http.ResponseWriter, r *http.Request) {
	h.importProduct(w, r, h.catalog.ImportProducerProduct)
}

type importFunc func(ctx context.Context, ownerID uint64, p catalog.ProductImport) error

func (h *Handler) importProduct(w http.ResponseWriter, r *http.Request, do importFunc) {
	ownerID, err := pathID(r)
	if err != nil {
		envelope.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImportBody)
	p, err := DecodeProductImport(jx.Decode(r.Body, 4096))
	if err != nil {
		envelope.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := do(r.Context(), ownerID, p); err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("product_id")
		e.UInt64(p.ProductID)
		e.FieldStart("skus")
		e.Int(len(p.Skus))
		e.ObjEnd()
	})
}

package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/catalog/pkg/envelope"
)

// ListSaleProducts serves GET /api/shops/{id}/sale-products.
func (h *Handler) ListSaleProducts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		envelope.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	sales, err := h.catalog.ListSaleProducts(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, s := range sales {
			encodeSaleProduct(e, s)
		}
		e.ArrEnd()
	})
}

// GetSaleProductData serves GET /api/sale-products/{id}.
func (h *Handler) GetSaleProductData(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		envelope.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	data, err := h.catalog.GetSaleProductData(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, func(e *jx.Encoder) { encodeSaleProductData(e, data) })
}

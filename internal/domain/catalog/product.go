// Package catalog holds the product catalog domain: products with their SKU
// sets, shop sale listings, and the read-through service that caches them.
package catalog

import (
	"maps"
	"slices"

	"github.com/shopspring/decimal"
)

// ProductInfo is the header of a catalog product.
type ProductInfo struct {
	ProductID      uint64
	ProductName    string
	DetailDesc     string
	MainURL        string
	VerifiedStatus int32
	SaleStatus     int32
	LevelID        int32
	PrdtTypeID     int32
	BrandID        int32
}

// Equal reports whether both headers describe the same product.
func (i ProductInfo) Equal(other ProductInfo) bool {
	return i.ProductID == other.ProductID
}

// Sku is a sellable variant of a product.
type Sku struct {
	ID          uint64
	ProductID   uint64
	Sku         string
	Detail      string
	CustomPrice decimal.Decimal
}

// Equal reports whether both values describe the same SKU.
func (s Sku) Equal(other Sku) bool {
	return s.ID == other.ID
}

// Product is the aggregate of a product header and its SKUs keyed by SKU id.
type Product struct {
	info ProductInfo
	skus map[uint64]Sku
}

// NewProduct builds a product from its header and SKUs. Every SKU is
// attached to the product, so its ProductID always matches info.ProductID.
func NewProduct(info ProductInfo, skus ...Sku) *Product {
	p := &Product{
		info: info,
		skus: make(map[uint64]Sku, len(skus)),
	}
	for _, s := range skus {
		s.ProductID = info.ProductID
		p.skus[s.ID] = s
	}
	return p
}

// ID returns the product identifier.
func (p *Product) ID() uint64 {
	return p.info.ProductID
}

// Info returns a copy of the product header.
func (p *Product) Info() ProductInfo {
	return p.info
}

// Skus returns a snapshot of the SKU set ordered by ascending SKU id.
func (p *Product) Skus() []Sku {
	ids := slices.Sorted(maps.Keys(p.skus))
	out := make([]Sku, 0, len(ids))
	for _, id := range ids {
		out = append(out, p.skus[id])
	}
	return out
}

// UpdateSku overwrites the detail and price of the SKU with the same id, or
// adds the SKU when the product does not have it yet.
func (p *Product) UpdateSku(s Sku) {
	if p.skus == nil {
		p.skus = make(map[uint64]Sku)
	}
	cur, ok := p.skus[s.ID]
	if !ok {
		p.skus[s.ID] = s
		return
	}
	cur.Detail = s.Detail
	cur.CustomPrice = s.CustomPrice
	p.skus[s.ID] = cur
}

// SetSkus replaces the whole SKU set. When the input repeats an id, the last
// occurrence wins.
func (p *Product) SetSkus(skus []Sku) {
	p.skus = make(map[uint64]Sku, len(skus))
	for _, s := range skus {
		p.skus[s.ID] = s
	}
}

// Equal reports whether both aggregates have the same product id.
func (p *Product) Equal(other *Product) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.ID() == other.ID()
}

// Clone returns a copy that shares no mutable state with p.
func (p *Product) Clone() *Product {
	return &Product{
		info: p.info,
		skus: maps.Clone(p.skus),
	}
}

package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

// OwnerKind tells which foreign key of the product header an import fills.
type OwnerKind uint8

const (
	// OwnerTenant marks a tenant's own product (tent_id).
	OwnerTenant OwnerKind = iota + 1
	// OwnerProducer marks a product supplied by a producer (sources_id).
	OwnerProducer
)

func (k OwnerKind) String() string {
	switch k {
	case OwnerTenant:
		return "tenant"
	case OwnerProducer:
		return "producer"
	default:
		return "unknown"
	}
}

// Owner identifies who an imported product belongs to.
type Owner struct {
	Kind OwnerKind
	ID   uint64
}

// ImportSku is one SKU row of an import.
type ImportSku struct {
	Sku         string
	Detail      string
	CustomPrice decimal.Decimal
}

// ProductImport is a product header and its SKUs as supplied by an importer.
type ProductImport struct {
	ProductID uint64
	Name      string
	Desc      string
	URL       string
	Skus      []ImportSku
}

// ImportRequest is a ProductImport bound to its owner, written in a single
// transaction.
type ImportRequest struct {
	Owner Owner
	ProductImport
}

// Repository is the relational store behind the catalog. Lookups return
// ErrNotFound for missing rows and *QueryError when the store fails.
type Repository interface {
	LoadHeader(ctx context.Context, id uint64) (ProductInfo, error)
	LoadSkus(ctx context.Context, id uint64) ([]Sku, error)
	ListByProducer(ctx context.Context, producerID uint64) ([]*Product, error)
	ListByTenant(ctx context.Context, tenantID uint64) ([]*Product, error)
	ListShopProductIDs(ctx context.Context, shopID uint64) ([]uint64, error)
	LoadSaleListing(ctx context.Context, id uint64) (SaleProductInfo, error)
	ImportProduct(ctx context.Context, req ImportRequest) error
}

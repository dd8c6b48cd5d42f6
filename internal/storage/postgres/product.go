package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/catalog/internal/domain/catalog"
)

const (
	loadHeaderSQL = `SELECT product_name, detail_title, main_url, verified_status, level_id, prdt_type_id, brand_id
		FROM product_info_old WHERE product_id = $1`

	listByProducerSQL = `SELECT product_id, product_name, detail_title, main_url, verified_status, level_id, prdt_type_id, brand_id
		FROM product_info_old WHERE sources_id = $1 ORDER BY product_id`

	listByTenantSQL = `SELECT product_id, product_name, detail_title, main_url, verified_status, level_id, prdt_type_id, brand_id
		FROM product_info_old WHERE tent_id = $1 ORDER BY product_id`

	loadSkusSQL = `SELECT id, sku_id, custom_price, detail
		FROM product_sku WHERE product_id = $1 ORDER BY id`

	loadSkusBatchSQL = `SELECT id, product_id, sku_id, custom_price, detail
		FROM product_sku WHERE product_id = ANY($1) ORDER BY product_id, id`
)

var _ catalog.Repository = (*ProductRepository)(nil)

// ProductRepository implements catalog.Repository backed by PostgreSQL.
type ProductRepository struct {
	db DB
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(db DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// LoadHeader returns the header of a product. NULL text columns become empty
// strings. It returns catalog.ErrNotFound when no row matches.
func (r *ProductRepository) LoadHeader(ctx context.Context, id uint64) (catalog.ProductInfo, error) {
	var (
		name, desc, url pgtype.Text
		info            = catalog.ProductInfo{ProductID: id}
	)
	err := r.db.QueryRow(ctx, loadHeaderSQL, int64(id)).Scan(
		&name, &desc, &url,
		&info.VerifiedStatus, &info.LevelID, &info.PrdtTypeID, &info.BrandID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.ProductInfo{}, catalog.ErrNotFound
		}
		return catalog.ProductInfo{}, &catalog.QueryError{Op: "load product header", Err: err}
	}

	info.ProductName = name.String
	info.DetailDesc = desc.String
	info.MainURL = url.String
	return info, nil
}

// LoadSkus returns every SKU of a product ordered by SKU id. A product
// without SKUs yields an empty slice.
func (r *ProductRepository) LoadSkus(ctx context.Context, id uint64) ([]catalog.Sku, error) {
	rows, err := r.db.Query(ctx, loadSkusSQL, int64(id))
	if err != nil {
		return nil, &catalog.QueryError{Op: "load product skus", Err: err}
	}
	defer rows.Close()

	skus := make([]catalog.Sku, 0)
	for rows.Next() {
		var (
			skuID        int64
			code, detail pgtype.Text
			price        decimal.Decimal
		)
		if err := rows.Scan(&skuID, &code, &price, &detail); err != nil {
			return nil, &catalog.QueryError{Op: "scan product sku", Err: err}
		}
		skus = append(skus, catalog.Sku{
			ID:          uint64(skuID),
			ProductID:   id,
			Sku:         code.String,
			Detail:      detail.String,
			CustomPrice: price,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &catalog.QueryError{Op: "load product skus", Err: err}
	}

	zctx.From(ctx).Debug("Loaded product skus",
		zap.Uint64("product_id", id),
		zap.Int("count", len(skus)),
	)
	return skus, nil
}

// ListByProducer returns every product supplied by a producer together with
// its SKUs.
func (r *ProductRepository) ListByProducer(ctx context.Context, producerID uint64) ([]*catalog.Product, error) {
	return r.listProducts(ctx, "producer", listByProducerSQL, producerID)
}

// ListByTenant returns every product owned by a tenant together with its
// SKUs.
func (r *ProductRepository) ListByTenant(ctx context.Context, tenantID uint64) ([]*catalog.Product, error) {
	return r.listProducts(ctx, "tenant", listByTenantSQL, tenantID)
}

func (r *ProductRepository) listProducts(ctx context.Context, owner, query string, ownerID uint64) ([]*catalog.Product, error) {
	rows, err := r.db.Query(ctx, query, int64(ownerID))
	if err != nil {
		return nil, &catalog.QueryError{Op: "list " + owner + " products", Err: err}
	}
	headers, err := pgx.CollectRows(rows, scanHeader)
	if err != nil {
		return nil, &catalog.QueryError{Op: "list " + owner + " products", Err: err}
	}

	ids := make([]int64, len(headers))
	for i, h := range headers {
		ids[i] = int64(h.ProductID)
	}
	skus, err := r.loadSkusFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	products := make([]*catalog.Product, len(headers))
	for i, h := range headers {
		products[i] = catalog.NewProduct(h, skus[h.ProductID]...)
	}

	zctx.From(ctx).Debug("Listed products",
		zap.String("owner", owner),
		zap.Uint64("owner_id", ownerID),
		zap.Int("count", len(products)),
	)
	return products, nil
}

// loadSkusFor loads the SKUs of several products in one round-trip, grouped
// by product id.
func (r *ProductRepository) loadSkusFor(ctx context.Context, productIDs []int64) (map[uint64][]catalog.Sku, error) {
	out := make(map[uint64][]catalog.Sku, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	rows, err := r.db.Query(ctx, loadSkusBatchSQL, productIDs)
	if err != nil {
		return nil, &catalog.QueryError{Op: "load skus", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var (
			skuID, productID int64
			code, detail     pgtype.Text
			price            decimal.Decimal
		)
		if err := rows.Scan(&skuID, &productID, &code, &price, &detail); err != nil {
			return nil, &catalog.QueryError{Op: "scan sku", Err: err}
		}
		pid := uint64(productID)
		out[pid] = append(out[pid], catalog.Sku{
			ID:          uint64(skuID),
			ProductID:   pid,
			Sku:         code.String,
			Detail:      detail.String,
			CustomPrice: price,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &catalog.QueryError{Op: "load skus", Err: err}
	}
	return out, nil
}

func scanHeader(row pgx.CollectableRow) (catalog.ProductInfo, error) {
	var (
		info            catalog.ProductInfo
		productID       int64
		name, desc, url pgtype.Text
	)
	err := row.Scan(
		&productID, &name, &desc, &url,
		&info.VerifiedStatus, &info.LevelID, &info.PrdtTypeID, &info.BrandID,
	)
	info.ProductID = uint64(productID)
	info.ProductName = name.String
	info.DetailDesc = desc.String
	info.MainURL = url.String
	return info, err
}

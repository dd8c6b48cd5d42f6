package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/xenking/catalog/internal/domain/catalog"
)

const (
	listShopProductsSQL = `SELECT product_id FROM product_store_prod WHERE store_id = $1 ORDER BY product_id`

	saleListedSQL = `SELECT EXISTS (SELECT 1 FROM product_store_prod WHERE product_id = $1)`
)

// ListShopProductIDs returns the ids of the products listed in a shop.
func (r *ProductRepository) ListShopProductIDs(ctx context.Context, shopID uint64) ([]uint64, error) {
	rows, err := r.db.Query(ctx, listShopProductsSQL, int64(shopID))
	if err != nil {
		return nil, &catalog.QueryError{Op: "list shop products", Err: err}
	}
	ids, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (uint64, error) {
		var id int64
		err := row.Scan(&id)
		return uint64(id), err
	})
	if err != nil {
		return nil, &catalog.QueryError{Op: "list shop products", Err: err}
	}
	return ids, nil
}

// LoadSaleListing returns the sale statistics of a product listed in at least
// one shop. Statistics are not persisted yet, so a listed product always
// starts from zero. Unlisted products yield catalog.ErrNotFound.
func (r *ProductRepository) LoadSaleListing(ctx context.Context, id uint64) (catalog.SaleProductInfo, error) {
	var listed bool
	if err := r.db.QueryRow(ctx, saleListedSQL, int64(id)).Scan(&listed); err != nil {
		return catalog.SaleProductInfo{}, &catalog.QueryError{Op: "load sale listing", Err: err}
	}
	if !listed {
		return catalog.SaleProductInfo{}, catalog.ErrNotFound
	}
	return catalog.SaleProductInfo{ProductID: id}, nil
}

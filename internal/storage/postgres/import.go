package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/catalog/internal/domain/catalog"
)

const (
	insertHeaderSQL = `INSERT INTO product_info_old
		(tent_id, sources_id, product_id, product_name, detail_title, main_url, created_time)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())`

	insertSkuSQL = `INSERT INTO product_sku (product_id, sku_id, detail, custom_price)
		VALUES ($1, $2, $3, $4)`
)

// ImportProduct writes the product header and every SKU of req in one
// transaction. The first failing statement rolls the whole import back and
// is reported as *catalog.ImportError.
func (r *ProductRepository) ImportProduct(ctx context.Context, req catalog.ImportRequest) error {
	var tenantID, producerID int64
	switch req.Owner.Kind {
	case catalog.OwnerTenant:
		tenantID = int64(req.Owner.ID)
	case catalog.OwnerProducer:
		producerID = int64(req.Owner.ID)
	default:
		return errors.Errorf("import product %d: unknown owner kind %d", req.ProductID, req.Owner.Kind)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return &catalog.ImportError{ProductID: req.ProductID, Step: "begin", Err: err}
	}

	fail := func(step string, err error) error {
		// Roll back even when ctx is already done.
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			zctx.From(ctx).Error("Rollback failed",
				zap.Uint64("product_id", req.ProductID),
				zap.String("step", step),
				zap.Error(rbErr),
			)
		}
		return &catalog.ImportError{ProductID: req.ProductID, Step: step, Err: err}
	}

	if _, err := tx.Exec(ctx, insertHeaderSQL,
		tenantID, producerID, int64(req.ProductID), req.Name, req.Desc, req.URL,
	); err != nil {
		return fail("insert header", err)
	}

	for _, sku := range req.Skus {
		if _, err := tx.Exec(ctx, insertSkuSQL,
			int64(req.ProductID), sku.Sku, sku.Detail, sku.CustomPrice,
		); err != nil {
			return fail("insert sku "+sku.Sku, err)
		}
	}

	// A failed commit closes the transaction on its own.
	if err := tx.Commit(ctx); err != nil {
		return &catalog.ImportError{ProductID: req.ProductID, Step: "commit", Err: err}
	}

	zctx.From(ctx).Debug("Import committed",
		zap.Uint64("product_id", req.ProductID),
		zap.Int("skus", len(req.Skus)),
	)
	return nil
}

package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const instrumentationName = "github.com/xenking/catalog/internal/domain/catalog"

// Options configures telemetry of a Service. Nil providers fall back to
// no-op implementations.
type Options struct {
	MeterProvider  metric.MeterProvider
	TracerProvider trace.TracerProvider
}

func (o *Options) setDefaults() {
	if o.MeterProvider == nil {
		o.MeterProvider = metricnoop.NewMeterProvider()
	}
	if o.TracerProvider == nil {
		o.TracerProvider = tracenoop.NewTracerProvider()
	}
}

// Service answers product and sale-listing lookups through two read-through
// caches and forwards imports to the Repository.
//
// Producer and tenant listings are never cached here: those result sets are
// owned by the calling dashboard.
type Service struct {
	repo     Repository
	products *store[*Product]
	sales    *store[SaleProductInfo]

	tracer trace.Tracer
	hits   metric.Int64Counter
	misses metric.Int64Counter
	loads  metric.Int64Counter
}

// NewService creates a Service backed by repo with empty caches.
func NewService(repo Repository, opts Options) (*Service, error) {
	opts.setDefaults()
	meter := opts.MeterProvider.Meter(instrumentationName)

	s := &Service{
		repo:     repo,
		products: newStore[*Product]("product"),
		sales:    newStore[SaleProductInfo]("sale_listing"),
		tracer:   opts.TracerProvider.Tracer(instrumentationName),
	}

	var err error
	if s.hits, err = meter.Int64Counter("catalog.cache.hits",
		metric.WithDescription("Lookups answered from the in-process cache"),
	); err != nil {
		return nil, errors.Wrap(err, "cache hits counter")
	}
	if s.misses, err = meter.Int64Counter("catalog.cache.misses",
		metric.WithDescription("Lookups that had to wait for a store load"),
	); err != nil {
		return nil, errors.Wrap(err, "cache misses counter")
	}
	if s.loads, err = meter.Int64Counter("catalog.store.loads",
		metric.WithDescription("Loads issued against the relational store"),
	); err != nil {
		return nil, errors.Wrap(err, "store loads counter")
	}

	return s, nil
}

// GetProduct returns the product with its SKUs, loading it into the cache on
// first access. The returned value is a copy owned by the caller.
func (s *Service) GetProduct(ctx context.Context, id uint64) (_ *Product, rerr error) {
	ctx, span := s.startSpan(ctx, "catalog.GetProduct", id)
	defer func() { endSpan(span, rerr) }()

	p, hit, err := s.products.getOrLoad(ctx, id, s.loadProduct)
	s.observe(ctx, s.products.name, hit)
	if err != nil {
		return nil, errors.Wrapf(err, "get product %d", id)
	}
	return p.Clone(), nil
}

func (s *Service) loadProduct(ctx context.Context, id uint64) (*Product, error) {
	s.loads.Add(ctx, 1, metric.WithAttributes(attribute.String("store", s.products.name)))

	info, err := s.repo.LoadHeader(ctx, id)
	if err != nil {
		return nil, err
	}
	skus, err := s.repo.LoadSkus(ctx, id)
	if err != nil {
		return nil, err
	}

	zctx.From(ctx).Debug("Cached product",
		zap.Uint64("product_id", id),
		zap.Int("skus", len(skus)),
	)
	return NewProduct(info, skus...), nil
}

// GetProductInfo returns the header of a product.
func (s *Service) GetProductInfo(ctx context.Context, id uint64) (ProductInfo, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return ProductInfo{}, err
	}
	return p.Info(), nil
}

// GetProductSkus returns the SKUs of a product ordered by SKU id.
func (s *Service) GetProductSkus(ctx context.Context, id uint64) ([]Sku, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.Skus(), nil
}

// ListProducerProducts returns every product supplied by a producer. The
// result always comes from the store and is not cached.
func (s *Service) ListProducerProducts(ctx context.Context, producerID uint64) (_ []*Product, rerr error) {
	ctx, span := s.startSpan(ctx, "catalog.ListProducerProducts", producerID)
	defer func() { endSpan(span, rerr) }()

	products, err := s.repo.ListByProducer(ctx, producerID)
	if err != nil {
		return nil, errors.Wrapf(err, "list producer %d products", producerID)
	}
	return products, nil
}

// ListTenantProducts returns every product owned by a tenant. The result
// always comes from the store and is not cached.
func (s *Service) ListTenantProducts(ctx context.Context, tenantID uint64) (_ []*Product, rerr error) {
	ctx, span := s.startSpan(ctx, "catalog.ListTenantProducts", tenantID)
	defer func() { endSpan(span, rerr) }()

	products, err := s.repo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, errors.Wrapf(err, "list tenant %d products", tenantID)
	}
	return products, nil
}

// GetSaleProduct returns the sale statistics of a listed product, loading
// them into the cache on first access.
func (s *Service) GetSaleProduct(ctx context.Context, id uint64) (_ SaleProductInfo, rerr error) {
	ctx, span := s.startSpan(ctx, "catalog.GetSaleProduct", id)
	defer func() { endSpan(span, rerr) }()

	info, hit, err := s.sales.getOrLoad(ctx, id, s.loadSaleListing)
	s.observe(ctx, s.sales.name, hit)
	if err != nil {
		return SaleProductInfo{}, errors.Wrapf(err, "get sale product %d", id)
	}
	return info, nil
}

func (s *Service) loadSaleListing(ctx context.Context, id uint64) (SaleProductInfo, error) {
	s.loads.Add(ctx, 1, metric.WithAttributes(attribute.String("store", s.sales.name)))
	return s.repo.LoadSaleListing(ctx, id)
}

// ListSaleProducts returns the sale listings of a shop in store order.
// Products not cached yet enter the cache with zero statistics; cached
// entries are kept as they are.
func (s *Service) ListSaleProducts(ctx context.Context, shopID uint64) (_ []SaleProductInfo, rerr error) {
	ctx, span := s.startSpan(ctx, "catalog.ListSaleProducts", shopID)
	defer func() { endSpan(span, rerr) }()

	ids, err := s.repo.ListShopProductIDs(ctx, shopID)
	if err != nil {
		return nil, errors.Wrapf(err, "list shop %d products", shopID)
	}

	out := make([]SaleProductInfo, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.sales.putIfAbsent(id, SaleProductInfo{ProductID: id}))
	}
	return out, nil
}

// GetSaleProductData combines the header and the sale statistics of a
// listed product.
func (s *Service) GetSaleProductData(ctx context.Context, id uint64) (SaleProductData, error) {
	var (
		info ProductInfo
		sale SaleProductInfo
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		info, err = s.GetProductInfo(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		sale, err = s.GetSaleProduct(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return SaleProductData{}, err
	}
	return NewSaleProductData(info, sale), nil
}

// ImportSelfProduct writes a tenant-owned product and its SKUs atomically.
// A nil error means the header and every SKU were committed.
func (s *Service) ImportSelfProduct(ctx context.Context, tenantID uint64, p ProductImport) error {
	return s.importProduct(ctx, ImportRequest{
		Owner:         Owner{Kind: OwnerTenant, ID: tenantID},
		ProductImport: p,
	})
}

// ImportProducerProduct writes a producer-supplied product and its SKUs
// atomically. A nil error means the header and every SKU were committed.
func (s *Service) ImportProducerProduct(ctx context.Context, producerID uint64, p ProductImport) error {
	return s.importProduct(ctx, ImportRequest{
		Owner:         Owner{Kind: OwnerProducer, ID: producerID},
		ProductImport: p,
	})
}

func (s *Service) importProduct(ctx context.Context, req ImportRequest) (rerr error) {
	ctx, span := s.startSpan(ctx, "catalog.ImportProduct", req.ProductID)
	span.SetAttributes(
		attribute.String("catalog.owner_kind", req.Owner.Kind.String()),
		attribute.Int("catalog.skus", len(req.Skus)),
	)
	defer func() { endSpan(span, rerr) }()

	lg := zctx.From(ctx).With(
		zap.Uint64("product_id", req.ProductID),
		zap.Stringer("owner_kind", req.Owner.Kind),
		zap.Uint64("owner_id", req.Owner.ID),
	)
	if err := s.repo.ImportProduct(ctx, req); err != nil {
		lg.Warn("Product import rolled back", zap.Error(err))
		return err
	}
	lg.Info("Product imported", zap.Int("skus", len(req.Skus)))
	return nil
}

func (s *Service) startSpan(ctx context.Context, name string, id uint64) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.Int64("catalog.id", int64(id)),
	))
}

func (s *Service) observe(ctx context.Context, store string, hit bool) {
	attrs := metric.WithAttributes(attribute.String("store", store))
	if hit {
		s.hits.Add(ctx, 1, attrs)
		return
	}
	s.misses.Add(ctx, 1, attrs)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

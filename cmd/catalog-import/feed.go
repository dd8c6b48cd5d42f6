package main

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/url"
	"os"
	"strings"
	"sync/atomic"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	pgzip "github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/catalog/internal/domain/catalog"
	"github.com/xenking/catalog/internal/handler"
)

const maxLine = 1 << 20

// Importer writes one product import. *catalog.Service implements it.
type Importer interface {
	ImportSelfProduct(ctx context.Context, tenantID uint64, p catalog.ProductImport) error
	ImportProducerProduct(ctx context.Context, producerID uint64, p catalog.ProductImport) error
}

var _ Importer = (*catalog.Service)(nil)

// Opener fetches a remote feed.
type Opener interface {
	Open(ctx context.Context, url string) (io.ReadCloser, error)
}

type record struct {
	line    int
	owner   catalog.Owner
	product catalog.ProductImport
}

// Stats counts processed feed lines.
type Stats struct {
	Imported int64
	Failed   int64
}

func parseOwnerKind(s string) (catalog.OwnerKind, error) {
	switch s {
	case "tenant", "self":
		return catalog.OwnerTenant, nil
	case "producer", "source":
		return catalog.OwnerProducer, nil
	default:
		return 0, errors.Errorf("unknown owner kind %q", s)
	}
}

// decodeRecord parses one feed line:
//
//	{"owner": "tenant", "owner_id": 7, "product": {...}}
//
// owner and owner_id fall back to def.
func decodeRecord(line []byte, def catalog.Owner) (catalog.Owner, catalog.ProductImport, error) {
	var (
		owner   = def
		product catalog.ProductImport
		seen    bool
	)
	err := jx.DecodeBytes(line).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "owner":
			var s string
			if s, err = d.Str(); err == nil {
				owner.Kind, err = parseOwnerKind(s)
			}
		case "owner_id":
			owner.ID, err = d.UInt64()
		case "product":
			product, err = handler.DecodeProductImport(d)
			seen = true
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	if err != nil {
		return catalog.Owner{}, catalog.ProductImport{}, err
	}
	if !seen {
		return catalog.Owner{}, catalog.ProductImport{}, errors.New("product is required")
	}
	if owner.ID == 0 {
		return catalog.Owner{}, catalog.ProductImport{}, errors.New("owner_id is required")
	}
	return owner, product, nil
}

// importFeed reads feed lines from r and imports them with workers
// concurrent transactions. Lines that fail to decode or import are logged
// and counted; only read errors and cancellation abort the run.
func importFeed(ctx context.Context, imp Importer, r io.Reader, workers int, def catalog.Owner) (Stats, error) {
	var (
		imported, failed atomic.Int64
		records          = make(chan record, workers)
		lg               = zctx.From(ctx)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(records)

		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64<<10), maxLine)
		n := 0
		for sc.Scan() {
			if err := gctx.Err(); err != nil {
				return err
			}
			n++
			line := sc.Bytes()
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			owner, product, err := decodeRecord(line, def)
			if err != nil {
				failed.Add(1)
				lg.Warn("Skipping malformed line", zap.Int("line", n), zap.Error(err))
				continue
			}
			select {
			case records <- record{line: n, owner: owner, product: product}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		if err := sc.Err(); err != nil {
			return errors.Wrap(err, "read feed")
		}
		return nil
	})

	for range workers {
		g.Go(func() error {
			for rec := range records {
				if err := importRecord(gctx, imp, rec); err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					failed.Add(1)
					lg.Warn("Product import failed",
						zap.Int("line", rec.line),
						zap.Uint64("product_id", rec.product.ProductID),
						zap.Error(err),
					)
					continue
				}
				imported.Add(1)
			}
			return nil
		})
	}

	err := g.Wait()
	return Stats{Imported: imported.Load(), Failed: failed.Load()}, err
}

func importRecord(ctx context.Context, imp Importer, rec record) error {
	switch rec.owner.Kind {
	case catalog.OwnerTenant:
		return imp.ImportSelfProduct(ctx, rec.owner.ID, rec.product)
	case catalog.OwnerProducer:
		return imp.ImportProducerProduct(ctx, rec.owner.ID, rec.product)
	default:
		return errors.Errorf("unknown owner kind %d", rec.owner.Kind)
	}
}

type gzipSource struct {
	*pgzip.Reader
	under io.Closer
}

func (s gzipSource) Close() error {
	err := s.Reader.Close()
	if cerr := s.under.Close(); err == nil {
		err = cerr
	}
	return err
}

// openSource opens a local file or an http(s) URL. Sources whose path ends
// in .gz are decompressed with pgzip.
func openSource(ctx context.Context, o Opener, src string) (io.ReadCloser, error) {
	var (
		rc   io.ReadCloser
		path = src
		err  error
	)
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		u, perr := url.Parse(src)
		if perr != nil {
			return nil, errors.Wrap(perr, "parse source url")
		}
		path = u.Path
		rc, err = o.Open(ctx, src)
	} else {
		rc, err = os.Open(src)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", src)
	}

	if !strings.HasSuffix(path, ".gz") {
		return rc, nil
	}
	gz, err := pgzip.NewReader(rc)
	if err != nil {
		_ = rc.Close()
		return nil, errors.Wrapf(err, "create gzip reader for %s", src)
	}
	return gzipSource{Reader: gz, under: rc}, nil
}

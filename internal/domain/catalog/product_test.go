package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSku(id uint64, detail string, price int64) Sku {
	return Sku{
		ID:          id,
		ProductID:   7,
		Sku:         "S-" + detail,
		Detail:      detail,
		CustomPrice: decimal.NewFromInt(price),
	}
}

func skuIDs(skus []Sku) []uint64 {
	ids := make([]uint64, len(skus))
	for i, s := range skus {
		ids[i] = s.ID
	}
	return ids
}

func TestEqualityIsIdentityOnly(t *testing.T) {
	a := ProductInfo{ProductID: 1, ProductName: "a", BrandID: 3}
	b := ProductInfo{ProductID: 1, ProductName: "b", LevelID: 9}
	c := ProductInfo{ProductID: 2, ProductName: "a", BrandID: 3}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))

	assert.True(t, testSku(5, "red", 1).Equal(testSku(5, "blue", 2)))
	assert.False(t, testSku(5, "red", 1).Equal(testSku(6, "red", 1)))

	p1 := NewProduct(a, testSku(1, "x", 1))
	p2 := NewProduct(b)
	p3 := NewProduct(c, testSku(1, "x", 1))
	assert.True(t, p1.Equal(p2))
	assert.False(t, p1.Equal(p3))
	assert.False(t, p1.Equal(nil))
}

func TestNewProduct_AttachesSkus(t *testing.T) {
	p := NewProduct(ProductInfo{ProductID: 42},
		Sku{ID: 2, ProductID: 999, Sku: "B"},
		Sku{ID: 1, Sku: "A"},
	)

	assert.Equal(t, uint64(42), p.ID())
	skus := p.Skus()
	require.Len(t, skus, 2)
	for _, s := range skus {
		assert.Equal(t, uint64(42), s.ProductID)
	}
}

func TestProduct_UpdateSku(t *testing.T) {
	p := NewProduct(ProductInfo{ProductID: 7}, testSku(1, "red", 10))

	// Existing id: only detail and price change.
	p.UpdateSku(Sku{ID: 1, ProductID: 100, Sku: "OTHER", Detail: "blue", CustomPrice: decimal.NewFromInt(20)})
	skus := p.Skus()
	require.Len(t, skus, 1)
	assert.Equal(t, "blue", skus[0].Detail)
	assert.True(t, decimal.NewFromInt(20).Equal(skus[0].CustomPrice))
	assert.Equal(t, uint64(7), skus[0].ProductID)
	assert.Equal(t, "S-red", skus[0].Sku)

	// New id: inserted.
	p.UpdateSku(testSku(3, "green", 5))
	assert.Equal(t, []uint64{1, 3}, skuIDs(p.Skus()))
}

func TestProduct_UpdateSkuIdempotent(t *testing.T) {
	p := NewProduct(ProductInfo{ProductID: 7}, testSku(1, "red", 10))
	s := testSku(2, "green", 30)

	p.UpdateSku(s)
	first := p.Skus()
	p.UpdateSku(s)

	assert.Equal(t, first, p.Skus())
}

func TestProduct_SetSkus(t *testing.T) {
	p := NewProduct(ProductInfo{ProductID: 7}, testSku(1, "a", 1), testSku(2, "b", 2))

	p.SetSkus([]Sku{
		testSku(9, "first", 1),
		testSku(4, "d", 4),
		testSku(9, "last", 9),
	})

	skus := p.Skus()
	assert.Equal(t, []uint64{4, 9}, skuIDs(skus))
	assert.Equal(t, "last", skus[1].Detail)

	p.SetSkus(nil)
	assert.Empty(t, p.Skus())
}

func TestProduct_SkusIsSnapshot(t *testing.T) {
	p := NewProduct(ProductInfo{ProductID: 7}, testSku(1, "red", 10))

	skus := p.Skus()
	skus[0].Detail = "changed"

	assert.Equal(t, "red", p.Skus()[0].Detail)
}

func TestProduct_Clone(t *testing.T) {
	p := NewProduct(ProductInfo{ProductID: 7, ProductName: "Widget"}, testSku(1, "red", 10))

	c := p.Clone()
	c.UpdateSku(testSku(1, "blue", 11))
	c.UpdateSku(testSku(2, "new", 1))

	assert.Equal(t, []uint64{1}, skuIDs(p.Skus()))
	assert.Equal(t, "red", p.Skus()[0].Detail)
	assert.Equal(t, "Widget", c.Info().ProductName)
}

func TestProduct_ZeroValueUpdate(t *testing.T) {
	var p Product
	p.UpdateSku(testSku(1, "red", 1))
	assert.Len(t, p.Skus(), 1)
}

package handler

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/catalog/internal/domain/catalog"
)

const maxImportBody = 1 << 20

func encodeInfo(e *jx.Encoder, i catalog.ProductInfo) {
	e.FieldStart("product_id")
	e.UInt64(i.ProductID)
	e.FieldStart("product_name")
	e.Str(i.ProductName)
	e.FieldStart("detail_desc")
	e.Str(i.DetailDesc)
	e.FieldStart("main_url")
	e.Str(i.MainURL)
	e.FieldStart("verified_status")
	e.Int32(i.VerifiedStatus)
	e.FieldStart("sale_status")
	e.Int32(i.SaleStatus)
	e.FieldStart("level_id")
	e.Int32(i.LevelID)
	e.FieldStart("prdt_type_id")
	e.Int32(i.PrdtTypeID)
	e.FieldStart("brand_id")
	e.Int32(i.BrandID)
}

func encodeSkus(e *jx.Encoder, skus []catalog.Sku) {
	e.ArrStart()
	for _, s := range skus {
		e.ObjStart()
		e.FieldStart("id")
		e.UInt64(s.ID)
		e.FieldStart("product_id")
		e.UInt64(s.ProductID)
		e.FieldStart("sku")
		e.Str(s.Sku)
		e.FieldStart("detail")
		e.Str(s.Detail)
		// Prices stay strings so no precision is lost in JS clients.
		e.FieldStart("custom_price")
		e.Str(s.CustomPrice.String())
		e.ObjEnd()
	}
	e.ArrEnd()
}

func encodeProduct(e *jx.Encoder, p *catalog.Product) {
	e.ObjStart()
	encodeInfo(e, p.Info())
	e.FieldStart("skus")
	encodeSkus(e, p.Skus())
	e.ObjEnd()
}

func encodeProducts(e *jx.Encoder, products []*catalog.Product) {
	e.ArrStart()
	for _, p := range products {
		encodeProduct(e, p)
	}
	e.ArrEnd()
}

func encodeStats(e *jx.Encoder, income, charge, sales, selection, stock int32) {
	e.FieldStart("month_before_income")
	e.Int32(income)
	e.FieldStart("month_before_charge")
	e.Int32(charge)
	e.FieldStart("sale_count")
	e.Int32(sales)
	e.FieldStart("selection_type")
	e.Int32(selection)
	e.FieldStart("stock_total")
	e.Int32(stock)
}

func encodeSaleProduct(e *jx.Encoder, s catalog.SaleProductInfo) {
	e.ObjStart()
	e.FieldStart("product_id")
	e.UInt64(s.ProductID)
	encodeStats(e, s.MonthBeforeIncome, s.MonthBeforeCharge, s.SaleCount, s.SelectionType, s.StockTotal)
	e.ObjEnd()
}

func encodeSaleProductData(e *jx.Encoder, d catalog.SaleProductData) {
	e.ObjStart()
	e.FieldStart("product")
	e.ObjStart()
	encodeInfo(e, d.Product)
	e.ObjEnd()
	encodeStats(e, d.MonthBeforeIncome, d.MonthBeforeCharge, d.SaleCount, d.SelectionType, d.StockTotal)
	e.ObjEnd()
}

// DecodeProductImport reads one product import object:
//
//	{"product_id": 42, "name": "Widget", "desc": "", "url": "",
//	 "skus": [{"sku": "W-1", "detail": "", "custom_price": "100.00"}]}
//
// custom_price may be a JSON number or a string. product_id is required.
func DecodeProductImport(d *jx.Decoder) (catalog.ProductImport, error) {
	var p catalog.ProductImport
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "product_id":
			p.ProductID, err = d.UInt64()
		case "name":
			p.Name, err = d.Str()
		case "desc":
			p.Desc, err = d.Str()
		case "url":
			p.URL, err = d.Str()
		case "skus":
			err = d.Arr(func(d *jx.Decoder) error {
				sku, err := decodeImportSku(d)
				if err != nil {
					return err
				}
				p.Skus = append(p.Skus, sku)
				return nil
			})
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	if err != nil {
		return catalog.ProductImport{}, errors.Wrap(err, "decode product")
	}
	if p.ProductID == 0 {
		return catalog.ProductImport{}, errors.New("decode product: product_id is required")
	}
	return p, nil
}

func decodeImportSku(d *jx.Decoder) (catalog.ImportSku, error) {
	var s catalog.ImportSku
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "sku":
			s.Sku, err = d.Str()
		case "detail":
			s.Detail, err = d.Str()
		case "custom_price":
			var raw jx.Raw
			if raw, err = d.Raw(); err == nil {
				err = s.CustomPrice.UnmarshalJSON(raw)
			}
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	return s, err
}

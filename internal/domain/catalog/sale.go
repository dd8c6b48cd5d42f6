package catalog

// SaleProductInfo holds the sale statistics of a product listed in a shop.
// Two values are equal (==) only when every field matches.
type SaleProductInfo struct {
	ProductID         uint64
	MonthBeforeIncome int32
	MonthBeforeCharge int32
	SaleCount         int32
	SelectionType     int32
	StockTotal        int32
}

// Update copies the statistics of other into s. Both values must describe the
// same product; otherwise s is left untouched and an
// *IdentityMismatchError is returned.
func (s *SaleProductInfo) Update(other SaleProductInfo) error {
	if s.ProductID != other.ProductID {
		return &IdentityMismatchError{Want: s.ProductID, Got: other.ProductID}
	}
	s.MonthBeforeIncome = other.MonthBeforeIncome
	s.MonthBeforeCharge = other.MonthBeforeCharge
	s.SaleCount = other.SaleCount
	s.SelectionType = other.SelectionType
	s.StockTotal = other.StockTotal
	return nil
}

// SaleProductData is a product header combined with its sale statistics,
// used for presentation only.
type SaleProductData struct {
	Product           ProductInfo
	MonthBeforeIncome int32
	MonthBeforeCharge int32
	SaleCount         int32
	SelectionType     int32
	StockTotal        int32
}

// NewSaleProductData combines a product header with sale statistics.
func NewSaleProductData(info ProductInfo, sale SaleProductInfo) SaleProductData {
	return SaleProductData{
		Product:           info,
		MonthBeforeIncome: sale.MonthBeforeIncome,
		MonthBeforeCharge: sale.MonthBeforeCharge,
		SaleCount:         sale.SaleCount,
		SelectionType:     sale.SelectionType,
		StockTotal:        sale.StockTotal,
	}
}

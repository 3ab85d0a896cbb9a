// Package export writes profile data to spreadsheets.
package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/property-profile/internal/model"
)

const dateLayout = "2006-01-02"

var transactionHeader = []string{
	"id", "date", "match", "street_number", "street_name", "property_type",
	"price", "surface_m2", "price_per_m2", "source",
}

// WriteMarketXLSX writes the market section of p as a workbook with a
// "summary" sheet and a "transactions" sheet, newest sale first.
func WriteMarketXLSX(w io.Writer, p *model.PropertyProfile) error {
	if p == nil {
		return eris.New("export: nil profile")
	}
	m := p.Market

	file := xlsx.NewFile()

	summary, err := file.AddSheet("summary")
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}
	addPair(summary, "address", p.Location.Label)
	addPair(summary, "commune_code", p.Location.CommuneCode)
	addPair(summary, "status", string(m.Status))
	addPair(summary, "scope", m.Scope)
	addPair(summary, "section_id", m.SectionID)
	addNumber(summary, "count", float64(m.Count))
	addNumber(summary, "excluded", float64(m.Excluded))
	addNumber(summary, "average_price_per_m2", m.AveragePricePerArea)
	addNumber(summary, "exact_matches", float64(len(m.ExactMatches)))
	if m.LastSale != nil {
		addPair(summary, "last_sale_id", m.LastSale.ID)
		addPair(summary, "last_sale_date", m.LastSale.Date.Format(dateLayout))
		addNumber(summary, "last_sale_price", m.LastSale.Price)
		addPair(summary, "last_sale_match", string(m.LastSale.Match))
	}

	sheet, err := file.AddSheet("transactions")
	if err != nil {
		return eris.Wrap(err, "export: add transactions sheet")
	}
	header := sheet.AddRow()
	for _, h := range transactionHeader {
		header.AddCell().SetString(h)
	}
	for _, t := range m.Transactions {
		row := sheet.AddRow()
		row.AddCell().SetString(t.ID)
		row.AddCell().SetString(t.Date.Format(dateLayout))
		row.AddCell().SetString(string(t.Match))
		row.AddCell().SetString(t.StreetNumber)
		row.AddCell().SetString(t.StreetName)
		row.AddCell().SetString(t.PropertyType)
		row.AddCell().SetFloat(t.Price)
		row.AddCell().SetFloat(t.Surface)
		row.AddCell().SetFloat(t.PricePerArea)
		row.AddCell().SetString(t.Source)
	}

	if err := file.Write(w); err != nil {
		return eris.Wrap(err, "export: write xlsx")
	}
	return nil
}

func addPair(sheet *xlsx.Sheet, key, value string) {
	row := sheet.AddRow()
	row.AddCell().SetString(key)
	row.AddCell().SetString(value)
}

func addNumber(sheet *xlsx.Sheet, key string, value float64) {
	row := sheet.AddRow()
	row.AddCell().SetString(key)
	row.AddCell().SetFloat(value)
}

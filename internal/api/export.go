package api

import (
	"fmt"
	"net/http"

	"collectibles-vault/internal/currency"
	"collectibles-vault/internal/models"
	"collectibles-vault/internal/snapshot"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	pricesSheet     = "Prices"
)

var priceColumns = []string{"Date", "Source", "Samples", "Avg", "Median", "Min", "Max", "Currency", "Median (display)"}

// ExportPriceHistory: GET /api/v1/catalog/:id/prices/export?source=&since=
func (h *APIHandler) ExportPriceHistory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	entry, err := h.catalog.Entry(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	rows, err := h.snapshots.History(c.Request.Context(), id, snapshot.HistoryFilter{
		Source: c.Query("source"),
		Since:  c.Query("since"),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	f, err := PriceWorkbook(entry, rows)
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="catalog-%d-prices.xlsx"`, id))
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		h.log.Error("write workbook", "catalog_entry_id", id, "error", err.Error())
	}
}

// PriceWorkbook renders an entry's snapshot rows as a single-sheet workbook.
func PriceWorkbook(entry *models.CatalogEntry, rows []models.PriceSnapshot) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", pricesSheet); err != nil {
		return nil, err
	}
	title := fmt.Sprintf("%s (%s)", entry.CanonicalName, entry.CatalogKey)
	if err := f.SetCellValue(pricesSheet, "A1", title); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(pricesSheet, "A2", &priceColumns); err != nil {
		return nil, err
	}
	for i, r := range rows {
		display := ""
		if r.Median != nil {
			display = currency.Format(*r.Median, r.Currency)
		}
		values := []interface{}{r.RefDate, r.Source, r.SamplesCount, cell(r.Avg), cell(r.Median), cell(r.Min), cell(r.Max), r.Currency, display}
		addr, err := excelize.CoordinatesToCellName(1, i+3)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(pricesSheet, addr, &values); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func cell(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// Spreadsheet export. One sheet per collection, the column headers in
// schema order, every cell rendered through the value codec's display form.

package server

import (
	"fmt"
	"net/http"

	"github.com/xuri/excelize/v2"

	"github.com/gridbase/gridbase/internal/collection"
	"github.com/gridbase/gridbase/internal/server/dto"
)

// ExportXLSX is a raw handler streaming a collection as an xlsx workbook.
func (s *Server) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, items, err := s.store.GetCollection(ctx, r.PathValue("id"))
	if err != nil {
		writeError(ctx, w, storeError("collection", err))
		return
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Sheet1"
	for col, column := range c.Columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			writeError(ctx, w, dto.InternalWithError("failed to build sheet", err))
			return
		}
		if err := f.SetCellValue(sheet, cell, column.Name); err != nil {
			writeError(ctx, w, dto.InternalWithError("failed to build sheet", err))
			return
		}
	}
	for row, it := range items {
		for col, column := range c.Columns {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				writeError(ctx, w, dto.InternalWithError("failed to build sheet", err))
				return
			}
			display := collection.FormatValue(column.Type, it.Data[column.ID])
			if err := f.SetCellValue(sheet, cell, display); err != nil {
				writeError(ctx, w, dto.InternalWithError("failed to build sheet", err))
				return
			}
		}
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", c.Title+".xlsx"))
	if err := f.Write(w); err != nil {
		// Headers are already out; all that is left is logging.
		writeError(ctx, w, dto.InternalWithError("failed to write workbook", err))
	}
}

// internal/app/features/admin/export.go
package admin

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dalemusser/bloodlink/internal/app/system/export"
	"github.com/dalemusser/bloodlink/internal/app/system/timeouts"
	"github.com/dalemusser/bloodlink/internal/domain/models"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ServeInventoryExport handles GET /admin/inventory.xlsx.
func (h *Handler) ServeInventoryExport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	banks, err := h.Banks.List(ctx)
	if err != nil {
		h.ErrLog.Render(w, r, "list banks for export", err)
		return
	}

	data, err := export.InventoryWorkbook(banks)
	if err != nil {
		h.ErrLog.Render(w, r, "build inventory workbook", err)
		return
	}

	filename := fmt.Sprintf("inventory-%s.xlsx", models.FormatDate(h.Now()))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		h.Log.Warn("write inventory export", zap.Error(err))
	}
}

package news

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/bloodlink/internal/app/features/errors"
	"github.com/dalemusser/bloodlink/internal/app/system/news"
	"github.com/dalemusser/bloodlink/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler proxies health news so the upstream key never reaches the browser.
type Handler struct {
	News news.Fetcher
	Log  *zap.Logger
}

func NewHandler(f news.Fetcher, logger *zap.Logger) *Handler {
	return &Handler{News: f, Log: logger}
}

type newsResponse struct {
	Articles []news.Article `json:"articles"`
}

// ServeNews handles GET /api/news. Upstream failures return 502.
func (h *Handler) ServeNews(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Notify())
	defer cancel()

	articles, err := h.News.FetchHealthNews(ctx)
	if err != nil {
		h.Log.Warn("news fetch failed", zap.Error(err))
		uierrors.Write(w, http.StatusBadGateway, "Could not load news at this time.")
		return
	}
	if articles == nil {
		articles = []news.Article{}
	}
	uierrors.JSON(w, http.StatusOK, newsResponse{Articles: articles})
}

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jwebster45206/route-tycoon/pkg/state"
)

type CatalogResponse struct {
	Catalog *state.Catalog `json:"catalog"`
	Rules   state.Rules    `json:"rules"`
}

// CatalogHandler serves GET /v1/catalog.
type CatalogHandler struct {
	catalog *state.Catalog
	logger  *slog.Logger
}

func NewCatalogHandler(catalog *state.Catalog, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

func (h *CatalogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, CatalogResponse{
		Catalog: h.catalog.Clone(),
		Rules:   state.DefaultRules(),
	})
}

package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"modelgallery/internal/domain"
)

type productList struct {
	Count   int                    `json:"count"`
	Query   string                 `json:"query,omitempty"`
	Results []domain.ProductRecord `json:"results"`
}

func (h *handlers) listProducts(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	products, err := h.deps.Catalog.List(c.Request.Context(), query)
	if err != nil {
		h.logger.Printf("httpserver: list products q=%q err=%v", query, err)
		writeError(c, http.StatusInternalServerError, "failed to list products")
		return
	}
	if products == nil {
		products = []domain.ProductRecord{}
	}
	c.JSON(http.StatusOK, productList{Count: len(products), Query: query, Results: products})
}

func (h *handlers) getProduct(c *gin.Context) {
	id, ok := productIDParam(c.Param("id"))
	if !ok {
		writeError(c, http.StatusBadRequest, "product id must be a positive integer")
		return
	}
	p, err := h.deps.Catalog.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(c, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Printf("httpserver: get product id=%d err=%v", id, err)
		writeError(c, http.StatusInternalServerError, "failed to load product")
		return
	}
	c.JSON(http.StatusOK, p)
}

func productIDParam(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *handlers) listCategories(c *gin.Context) {
	cats, err := h.deps.Categories.List(c.Request.Context())
	if err != nil {
		h.logger.Printf("httpserver: list categories err=%v", err)
		writeError(c, http.StatusInternalServerError, "failed to list categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(cats), "results": cats})
}

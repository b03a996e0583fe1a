package handler

import (
	"bytes"
	"image/png"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/ean"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/shelf_api/internal/service"
	"github.com/GTDGit/shelf_api/internal/utils"
)

const (
	barcodeScale  = 3
	barcodeHeight = 120
	maxBarcodeLen = 64
)

// ProductHandler exposes barcode resolution and barcode rendering.
type ProductHandler struct {
	resolver *service.ResolverService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(resolver *service.ResolverService) *ProductHandler {
	return &ProductHandler{resolver: resolver}
}

// Lookup handles GET /v1/products/lookup/:barcode?session=
// A miss is still a 200 with source "notfound" so the client falls back to manual entry.
func (h *ProductHandler) Lookup(c *gin.Context) {
	code := strings.TrimSpace(c.Param("barcode"))
	if code == "" || len(code) > maxBarcodeLen {
		utils.Error(c, 400, "INVALID_BARCODE", "Barcode is required")
		return
	}

	res := h.resolver.Resolve(c.Request.Context(), c.Query("session"), code)
	utils.Success(c, 200, "Barcode resolved", res)
}

// BarcodeImage handles GET /v1/products/:barcode/barcode.png for printing shelf labels.
func (h *ProductHandler) BarcodeImage(c *gin.Context) {
	code := strings.TrimSpace(c.Param("barcode"))
	if code == "" || len(code) > maxBarcodeLen {
		utils.Error(c, 400, "INVALID_BARCODE", "Barcode is required")
		return
	}

	bc, err := renderBarcode(code)
	if err != nil {
		utils.Error(c, 400, "INVALID_BARCODE", "Barcode cannot be rendered")
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, bc); err != nil {
		log.Error().Err(err).Str("barcode", code).Msg("failed to encode barcode image")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to render barcode")
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(200, "image/png", buf.Bytes())
}

// renderBarcode draws EAN-8/EAN-13 (UPC-A as 0-prefixed EAN-13) and falls back to Code 128.
func renderBarcode(code string) (barcode.Barcode, error) {
	var (
		bc  barcode.Barcode
		err error
	)
	if isDigits(code) {
		switch len(code) {
		case 8, 13:
			bc, err = ean.Encode(code)
		case 12:
			bc, err = ean.Encode("0" + code)
		}
	}
	if bc == nil || err != nil {
		bc, err = code128.Encode(code)
		if err != nil {
			return nil, err
		}
	}
	return barcode.Scale(bc, bc.Bounds().Dx()*barcodeScale, barcodeHeight)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

package handler

import (
	"errors"
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/shelf_api/internal/middleware"
	"github.com/GTDGit/shelf_api/internal/scanner"
	"github.com/GTDGit/shelf_api/internal/utils"
)

const maxFrameBytes = 8 << 20

// ScanHandler drives camera scan sessions. The client uploads frames and
// polls the session until it reports a detection.
type ScanHandler struct {
	manager *scanner.Manager
}

// NewScanHandler creates a new ScanHandler.
func NewScanHandler(manager *scanner.Manager) *ScanHandler {
	return &ScanHandler{manager: manager}
}

// Start handles POST /v1/scan/sessions.
func (h *ScanHandler) Start(c *gin.Context) {
	status, err := h.manager.Start(middleware.GetUserID(c))
	if err != nil {
		scanError(c, err)
		return
	}
	utils.Success(c, 201, "Scan session started", status)
}

// PushFrame handles POST /v1/scan/sessions/:id/frames. The frame is either the
// raw JPEG/PNG body or a multipart field named "frame".
func (h *ScanHandler) PushFrame(c *gin.Context) {
	raw, err := readFrame(c)
	if err != nil || len(raw) == 0 {
		utils.Error(c, 400, "INVALID_FRAME", "Frame image is required")
		return
	}

	status, err := h.manager.PushFrame(middleware.GetUserID(c), c.Param("id"), raw)
	if err != nil {
		scanError(c, err)
		return
	}
	utils.Success(c, 202, "Frame accepted", status)
}

// Status handles GET /v1/scan/sessions/:id.
func (h *ScanHandler) Status(c *gin.Context) {
	status, err := h.manager.Status(middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		scanError(c, err)
		return
	}
	utils.Success(c, 200, "Scan session retrieved", status)
}

// Stop handles DELETE /v1/scan/sessions/:id.
func (h *ScanHandler) Stop(c *gin.Context) {
	status, err := h.manager.Stop(middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		scanError(c, err)
		return
	}
	utils.Success(c, 200, "Scan session stopped", status)
}

func readFrame(c *gin.Context) ([]byte, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("frame")
		if err != nil {
			return nil, err
		}
		if fh.Size > maxFrameBytes {
			return nil, errors.New("frame too large")
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	return io.ReadAll(io.LimitReader(c.Request.Body, maxFrameBytes))
}

func scanError(c *gin.Context, err error) {
	if errors.Is(err, scanner.ErrSourceUnavailable) {
		utils.Error(c, 503, "SCANNER_UNAVAILABLE", "Camera source is unavailable")
		return
	}
	utils.ErrorFrom(c, err, "Scan session error")
}

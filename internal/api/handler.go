package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hotelscout/internal/folders"
	"hotelscout/internal/service"
	"hotelscout/pkg/models"
)

type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func RegisterRoutes(r *gin.Engine, h *Handler, staticDir string) {
	api := r.Group("/api")
	{
		api.GET("/portfolio", h.Portfolio)
		api.GET("/metadata", h.Metadata)
		api.GET("/sources/:source", h.SourceResults)

		api.POST("/refresh", h.Refresh)
		api.GET("/refresh/status", h.RefreshStatus)

		api.GET("/hotels/search", h.SearchHotels)

		api.GET("/folders", h.ListFolders)
		api.POST("/folders", h.CreateFolder)
		api.DELETE("/folders/:id", h.DeleteFolder)
		api.POST("/folders/:id/hotels", h.AddHotel)
		api.DELETE("/folders/:id/hotels/:placeID", h.RemoveHotel)
		api.POST("/folders/:id/hotels/:placeID/refresh", h.RefreshHotel)
		api.POST("/folders/:id/hotels/:placeID/enrich", h.EnrichHotel)
	}

	if staticDir != "" {
		r.Static("/static", staticDir)
		r.StaticFile("/", staticDir+"/index.html")
	}
}

// Portfolio: GET /api/portfolio
// Returns the merged portfolio file verbatim; 404 until a merge has run.
func (h *Handler) Portfolio(c *gin.Context) {
	h.serveFile(c, h.svc.Portfolio)
}

// Metadata: GET /api/metadata
func (h *Handler) Metadata(c *gin.Context) {
	h.serveFile(c, h.svc.Metadata)
}

// SourceResults: GET /api/sources/:source
func (h *Handler) SourceResults(c *gin.Context) {
	src := c.Param("source")
	h.serveFile(c, func() ([]byte, bool, error) {
		return h.svc.SourceResults(src)
	})
}

func (h *Handler) serveFile(c *gin.Context, read func() ([]byte, bool, error)) {
	b, ok, err := read()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no data available yet"})
		return
	}
	c.Data(http.StatusOK, "application/json", b)
}

// Refresh: POST /api/refresh
// Starts a background batch run and returns an acknowledgement, not a
// completion signal; poll /api/refresh/status to learn when it finished.
func (h *Handler) Refresh(c *gin.Context) {
	job, started := h.svc.StartRefresh()
	if !started {
		c.JSON(http.StatusConflict, gin.H{"error": "refresh already running", "job": job})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job": job})
}

// RefreshStatus: GET /api/refresh/status
func (h *Handler) RefreshStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"job": h.svc.RefreshStatus()})
}

// SearchHotels: GET /api/hotels/search?q=...&limit=5
func (h *Handler) SearchHotels(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing q parameter"})
		return
	}
	lim := parseLimit(c.DefaultQuery("limit", "5"))
	res, err := h.svc.SearchHotels(c.Request.Context(), q, lim)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"meta": gin.H{"query": q, "count": len(res)},
		"data": res,
	})
}

// ListFolders: GET /api/folders
func (h *Handler) ListFolders(c *gin.Context) {
	doc, err := h.svc.Folders().List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, doc)
}

// CreateFolder: POST /api/folders {"name": "..."}
func (h *Handler) CreateFolder(c *gin.Context) {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	if body.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing folder name"})
		return
	}
	folder, err := h.svc.Folders().CreateFolder(c.Request.Context(), body.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, folder)
}

// DeleteFolder: DELETE /api/folders/:id
func (h *Handler) DeleteFolder(c *gin.Context) {
	err := h.svc.Folders().DeleteFolder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.folderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddHotel: POST /api/folders/:id/hotels
func (h *Handler) AddHotel(c *gin.Context) {
	var hotel models.SavedHotel
	if err := c.BindJSON(&hotel); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	if hotel.PlaceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing placeId"})
		return
	}
	saved, err := h.svc.Folders().AddHotel(c.Request.Context(), c.Param("id"), hotel)
	if err != nil {
		h.folderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// RemoveHotel: DELETE /api/folders/:id/hotels/:placeID
func (h *Handler) RemoveHotel(c *gin.Context) {
	err := h.svc.Folders().RemoveHotel(c.Request.Context(), c.Param("id"), c.Param("placeID"))
	if err != nil {
		h.folderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RefreshHotel: POST /api/folders/:id/hotels/:placeID/refresh
func (h *Handler) RefreshHotel(c *gin.Context) {
	hotel, err := h.svc.Folders().RefreshHotel(c.Request.Context(), c.Param("id"), c.Param("placeID"))
	if err != nil {
		h.folderError(c, err)
		return
	}
	c.JSON(http.StatusOK, hotel)
}

// EnrichHotel: POST /api/folders/:id/hotels/:placeID/enrich
func (h *Handler) EnrichHotel(c *gin.Context) {
	hotel, err := h.svc.Folders().EnrichHotel(c.Request.Context(), c.Param("id"), c.Param("placeID"))
	if err != nil {
		h.folderError(c, err)
		return
	}
	c.JSON(http.StatusOK, hotel)
}

// folderError maps folder-service sentinel errors to status codes.
func (h *Handler) folderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, folders.ErrFolderNotFound), errors.Is(err, folders.ErrHotelNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, folders.ErrDuplicateHotel):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, folders.ErrEnrichmentDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// parseLimit ensures a sane integer limit, with bounds
func parseLimit(s string) int {
	l, err := strconv.Atoi(s)
	if err != nil || l <= 0 {
		return 5
	}
	if l > 20 {
		return 20
	}
	return l
}

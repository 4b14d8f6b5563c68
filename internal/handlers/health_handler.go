package handlers

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	registry *tenant.Registry
	dbPing   func() error
	driver   string
}

// NewHealthHandler reports database status through dbPing; a nil dbPing
// reports the database as not configured.
func NewHealthHandler(registry *tenant.Registry, dbPing func() error, docstoreDriver string) *HealthHandler {
	return &HealthHandler{registry: registry, dbPing: dbPing, driver: docstoreDriver}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "not configured"
	if h.dbPing != nil {
		dbStatus = "ok"
		if err := h.dbPing(); err != nil {
			dbStatus = "unhealthy: " + err.Error()
		}
	}

	return c.JSON(dto.HealthResponse{
		Status:      "ok",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		DB:          dbStatus,
		Docstore:    h.driver,
		TenantCount: len(h.registry.All()),
	})
}

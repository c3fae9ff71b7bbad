package sync

import (
	"bytes"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"fleet-sync/core/logger"
	"fleet-sync/core/reconcile"
	"fleet-sync/feature/vehicle"
)

// Handler exposes the synchronization pipeline over HTTP.
type Handler struct {
	service *Service
	loader  *vehicle.Loader
	archive *Archive
	log     *zap.Logger
}

// NewHandler creates the HTTP handler. archive may be nil; the report
// download endpoint then responds 404.
func NewHandler(service *Service, loader *vehicle.Loader, archive *Archive, log *zap.Logger) *Handler {
	return &Handler{
		service: service,
		loader:  loader,
		archive: archive,
		log:     log,
	}
}

// Register mounts the routes on the app.
func (h *Handler) Register(app *fiber.App) {
	app.Post("/sync", h.handleSync)
	app.Get("/reports/:id", h.handleReport)
}

// handleSync accepts a multipart CSV feed upload and runs a synchronization
// run. Form fields close_missing, update_prices and dry_run toggle the run
// options. The response is the full run report.
func (h *Handler) handleSync(c *fiber.Ctx) error {
	log := logger.WithRayID(h.log, c)

	fileHeader, err := c.FormFile("feed")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "multipart field 'feed' is required",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "cannot open uploaded feed",
		})
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(file); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "cannot read uploaded feed",
		})
	}

	records, rowErrs, err := h.loader.Load(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	report, err := h.service.Run(c.Context(), RunInput{
		Records:     records,
		ParseErrors: rowErrs,
		Feed:        buf.Bytes(),
		Options: reconcile.Options{
			CloseMissing: formBool(c, "close_missing"),
			UpdatePrices: formBool(c, "update_prices"),
		},
		DryRun: formBool(c, "dry_run"),
	})
	if err != nil {
		log.Error("synchronization run failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(report)
}

// handleReport streams an archived run report.
func (h *Handler) handleReport(c *fiber.Ctx) error {
	if h.archive == nil {
		return c.SendStatus(fiber.StatusNotFound)
	}

	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "report id must be a run id",
		})
	}

	rc, err := h.archive.FetchReport(c.Context(), id)
	if err != nil {
		logger.WithRayID(h.log, c).Warn("report fetch failed",
			zap.String("run_id", id), zap.Error(err))
		return c.SendStatus(fiber.StatusNotFound)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.SendStream(rc)
}

func formBool(c *fiber.Ctx, field string) bool {
	v, err := strconv.ParseBool(c.FormValue(field))
	return err == nil && v
}

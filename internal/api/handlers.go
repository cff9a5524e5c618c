package api

import (
	"bytes"
	"context"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gonum.org/v1/plot/vg"

	"crossing-simulator/internal/analysis"
	"crossing-simulator/internal/chart"
	"crossing-simulator/internal/cycle"
	"crossing-simulator/internal/db"
	"crossing-simulator/internal/signal"
)

// Reports is the read side served by the API.
type Reports interface {
	Latest(id string) (analysis.Entry, bool)
	Recompute(ctx context.Context, id string) (*cycle.Report, bool, error)
	Junctions() []string
}

// Recorder accepts edits from the recording and editing front ends.
type Recorder interface {
	RecordTransitions(ctx context.Context, junctionID string, ts []signal.Transition) error
	UpdateCycle(ctx context.Context, junctionID string, c signal.Cycle) error
	UpdateJourneys(ctx context.Context, junctionID, text string) error
}

// Handler contains all HTTP handlers
type Handler struct {
	reports  Reports
	recorder Recorder
}

func NewHandler(reports Reports, recorder Recorder) *Handler {
	return &Handler{reports: reports, recorder: recorder}
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"service":   "crossing-simulator",
		"junctions": len(h.reports.Junctions()),
	})
}

func (h *Handler) ListJunctions(c *fiber.Ctx) error {
	ids := h.reports.Junctions()
	return c.JSON(fiber.Map{
		"success": true,
		"data":    ids,
		"count":   len(ids),
	})
}

// report returns the latest report, computing it on demand the first time.
func (h *Handler) report(c *fiber.Ctx) (*cycle.Report, error) {
	id := c.Params("id")
	if e, ok := h.reports.Latest(id); ok {
		return e.Report, nil
	}
	r, _, err := h.reports.Recompute(c.UserContext(), id)
	if err != nil {
		return nil, toFiberError(err)
	}
	return r, nil
}

func (h *Handler) GetReport(c *fiber.Ctx) error {
	r, err := h.report(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": r})
}

func (h *Handler) GetSuggestions(c *fiber.Ctx) error {
	r, err := h.report(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    r.Suggestions,
		"count":   len(r.Suggestions),
	})
}

// GetSegments returns a crossing's canonical timeline, or the display
// projection with ?projected=true. data is null when the crossing lacks data.
func (h *Handler) GetSegments(c *fiber.Ctx) error {
	r, err := h.report(c)
	if err != nil {
		return err
	}
	id := signal.CrossingID(c.Params("crossing"))
	for _, cr := range r.Crossings {
		if cr.ID != id {
			continue
		}
		segs := cr.Segments
		if c.QueryBool("projected", false) {
			segs = cr.Projected
		}
		return c.JSON(fiber.Map{"success": true, "data": segs, "cycle": r.Cycle})
	}
	return fiber.NewError(fiber.StatusNotFound, "Unknown crossing")
}

func (h *Handler) GetJourneys(c *fiber.Ctx) error {
	r, err := h.report(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    r.Journeys,
		"errors":  r.JourneyErrors,
	})
}

func (h *Handler) GetChart(c *fiber.Ctx) error {
	r, err := h.report(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := chart.RenderHTML(&buf, r); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to render chart")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}

func (h *Handler) GetChartPNG(c *fiber.Ctx) error {
	r, err := h.report(c)
	if err != nil {
		return err
	}
	width := c.QueryInt("width", 10)
	height := c.QueryInt("height", 5)
	if width < 2 || width > 40 || height < 2 || height > 40 {
		return fiber.NewError(fiber.StatusBadRequest, "width and height must be between 2 and 40 inches")
	}
	var buf bytes.Buffer
	if err := chart.RenderPNG(&buf, r, vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch); err != nil {
		log.Printf("render png for %s: %v", r.JunctionID, err)
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to render chart")
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(buf.Bytes())
}

// PostTransitions appends recorded transitions and recomputes the report.
func (h *Handler) PostTransitions(c *fiber.Ctx) error {
	var ts []signal.Transition
	if err := c.BodyParser(&ts); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	for _, t := range ts {
		if t.Crossing == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Transition without crossing")
		}
		if _, err := signal.ParseColor(string(t.Color)); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}
	if err := h.recorder.RecordTransitions(c.UserContext(), c.Params("id"), ts); err != nil {
		return toFiberError(err)
	}
	return h.recomputed(c, fiber.StatusCreated)
}

func (h *Handler) PutCycle(c *fiber.Ctx) error {
	var cy signal.Cycle
	if err := c.BodyParser(&cy); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := cy.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := h.recorder.UpdateCycle(c.UserContext(), c.Params("id"), cy); err != nil {
		return toFiberError(err)
	}
	return h.recomputed(c, fiber.StatusOK)
}

// PutJourneys replaces the journey text. Invalid lines are kept in storage
// and reported back, never simulated.
func (h *Handler) PutJourneys(c *fiber.Ctx) error {
	if err := h.recorder.UpdateJourneys(c.UserContext(), c.Params("id"), string(c.Body())); err != nil {
		return toFiberError(err)
	}
	return h.recomputed(c, fiber.StatusOK)
}

func (h *Handler) recomputed(c *fiber.Ctx, status int) error {
	r, _, err := h.reports.Recompute(c.UserContext(), c.Params("id"))
	if err != nil {
		return toFiberError(err)
	}
	return c.Status(status).JSON(fiber.Map{"success": true, "data": r})
}

func toFiberError(err error) error {
	if errors.Is(err, db.ErrUnknownJunction) {
		return fiber.NewError(fiber.StatusNotFound, "Unknown junction")
	}
	log.Printf("api error: %v", err)
	return fiber.NewError(fiber.StatusInternalServerError, "Failed to compute report")
}

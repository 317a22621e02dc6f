package http

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/comatrix-1/interviewready/internal/domain"
	"github.com/comatrix-1/interviewready/internal/usecase"
)

type Handler struct {
	processor *usecase.Processor
	repo      usecase.RunsRepo
	log       *slog.Logger
}

func NewHandler(p *usecase.Processor, r usecase.RunsRepo, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{processor: p, repo: r, log: log}
}

// Register mounts the API routes on app.
func (h *Handler) Register(app fiber.Router) {
	app.Get("/pipeline", h.PipelineInfo)
	app.Post("/runs", h.StartRun)
	app.Post("/runs/sync", h.RunSync)
	app.Get("/runs/:id", h.GetRun)
	app.Delete("/runs/:id", h.CancelRun)
	app.Get("/runs/:id/report.pdf", h.ReportPDF)
	app.Get("/runs/:id/report.html", h.ReportHTML)
	app.Get("/users/:userId/runs", h.ListRuns)
}

type startReq struct {
	UserID string                 `json:"userId"`
	Input  map[string]interface{} `json:"input"`
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func (h *Handler) newRun(c *fiber.Ctx) (*domain.OptimizationRun, error) {
	var req startReq
	if err := c.BodyParser(&req); err != nil {
		return nil, badRequest(c, "invalid payload")
	}
	uid, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, badRequest(c, "invalid userId")
	}
	if req.Input == nil {
		return nil, badRequest(c, "input is required")
	}
	return domain.NewRun(uid, req.Input), nil
}

func (h *Handler) StartRun(c *fiber.Ctx) error {
	run, err := h.newRun(c)
	if run == nil {
		return err
	}
	if err := h.processor.Start(c.UserContext(), run); err != nil {
		h.log.Error("http: start run failed", "run_id", run.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "unable to start run"})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"runId": run.ID.String(), "status": string(domain.StatusPending)})
}

// RunSync processes a run within the request and answers with the
// pipeline result: 200 on success, 422 when a stage failed.
func (h *Handler) RunSync(c *fiber.Ctx) error {
	run, err := h.newRun(c)
	if run == nil {
		return err
	}
	res, err := h.processor.Process(c.UserContext(), run)
	if err != nil {
		h.log.Error("http: sync run not persisted", "run_id", run.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "unable to store run"})
	}
	c.Set(fiber.HeaderLocation, "/runs/"+run.ID.String())
	if !res.Success {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(res)
	}
	return c.JSON(res)
}

func parseID(c *fiber.Ctx, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(param))
	return id, err == nil
}

// lookupError maps repository and processor errors onto responses.
func (h *Handler) lookupError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrRunNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "run not found"})
	case errors.Is(err, usecase.ErrNotCompleted):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, usecase.ErrNoRenderer):
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"error": err.Error()})
	default:
		h.log.Error("http: request failed", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}

func (h *Handler) GetRun(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid run id")
	}
	run, err := h.repo.Get(c.UserContext(), id)
	if err != nil {
		return h.lookupError(c, err)
	}
	return c.JSON(run)
}

func (h *Handler) ListRuns(c *fiber.Ctx) error {
	uid, ok := parseID(c, "userId")
	if !ok {
		return badRequest(c, "invalid userId")
	}
	runs, err := h.repo.ListForUser(c.UserContext(), uid)
	if err != nil {
		return h.lookupError(c, err)
	}
	if runs == nil {
		runs = []*domain.OptimizationRun{}
	}
	return c.JSON(fiber.Map{"runs": runs})
}

func (h *Handler) CancelRun(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid run id")
	}
	if h.processor.Cancel(id) {
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"runId": id.String(), "status": "cancelling"})
	}
	run, err := h.repo.Get(c.UserContext(), id)
	if err != nil {
		return h.lookupError(c, err)
	}
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{"runId": id.String(), "status": string(run.Status), "error": "run is not in progress"})
}

func (h *Handler) ReportPDF(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid run id")
	}
	pdf, err := h.processor.ReportPDF(c.UserContext(), id)
	if err != nil {
		return h.lookupError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+id.String()+`.pdf"`)
	return c.Send(pdf)
}

func (h *Handler) ReportHTML(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid run id")
	}
	html, err := h.processor.ReportHTML(c.UserContext(), id)
	if err != nil {
		return h.lookupError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(html)
}

func (h *Handler) PipelineInfo(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"pipeline": h.processor.Info(), "activeRuns": h.processor.Active()})
}

package portfolio

import (
	"errors"
	"io"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/dto"
	"github.com/ahmetcoskunkizilkaya/portfolio-creator/internal/identity"
	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type PortfolioHandler struct {
	service *Service
}

func NewPortfolioHandler(service *Service) *PortfolioHandler {
	return &PortfolioHandler{service: service}
}

// respondError maps service error kinds to HTTP statuses. Anything without a
// kind is an internal failure and is not shown to the caller.
func respondError(c *fiber.Ctx, err error) error {
	status, code := fiber.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, ErrUnauthorized):
		status, code = fiber.StatusUnauthorized, "unauthorized"
	case errors.Is(err, ErrNotFound):
		status, code = fiber.StatusNotFound, "not_found"
	case errors.Is(err, ErrBadRequest):
		status, code = fiber.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrPaymentRequired):
		status, code = fiber.StatusPaymentRequired, "payment_required"
	}

	message := "Internal server error"
	var e *Error
	if status != fiber.StatusInternalServerError && errors.As(err, &e) {
		message = e.Message
	}
	if status == fiber.StatusInternalServerError {
		slog.Error("portfolio request failed", "method", c.Method(), "path", c.Path(), "error", err)
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		} else {
			sentry.CaptureException(err)
		}
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message, Code: code})
}

func badInput(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: message, Code: "bad_request",
	})
}

func pathID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

func (h *PortfolioHandler) List(c *fiber.Ctx) error {
	projects, err := h.service.ListProjects(c.UserContext(), identity.FromCtx(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ProjectListResponse{Projects: projects, Total: len(projects)})
}

func (h *PortfolioHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.service.Summary(c.UserContext(), identity.FromCtx(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

func (h *PortfolioHandler) Create(c *fiber.Ctx) error {
	var req CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return badInput(c, "Invalid request body")
	}
	project, err := h.service.CreateProject(c.UserContext(), identity.FromCtx(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(project)
}

func (h *PortfolioHandler) Get(c *fiber.Ctx) error {
	projectID, ok := pathID(c, "id")
	if !ok {
		return badInput(c, "Invalid portfolio ID")
	}
	project, err := h.service.GetProject(c.UserContext(), identity.FromCtx(c), projectID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(project)
}

func (h *PortfolioHandler) Update(c *fiber.Ctx) error {
	projectID, ok := pathID(c, "id")
	if !ok {
		return badInput(c, "Invalid portfolio ID")
	}
	var req UpdateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return badInput(c, "Invalid request body")
	}
	project, err := h.service.UpdateProject(c.UserContext(), identity.FromCtx(c), projectID, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(project)
}

func (h *PortfolioHandler) Delete(c *fiber.Ctx) error {
	projectID, ok := pathID(c, "id")
	if !ok {
		return badInput(c, "Invalid portfolio ID")
	}
	if err := h.service.DeleteProject(c.UserContext(), identity.FromCtx(c), projectID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(DeleteResponse{Message: "Portfolio deleted"})
}

func (h *PortfolioHandler) Publish(c *fiber.Ctx) error {
	projectID, ok := pathID(c, "id")
	if !ok {
		return badInput(c, "Invalid portfolio ID")
	}
	var req PublishRequest
	if err := c.BodyParser(&req); err != nil {
		return badInput(c, "Invalid request body")
	}
	project, err := h.service.SetPublish(c.UserContext(), identity.FromCtx(c), projectID, req.IsPublished)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(project)
}

func (h *PortfolioHandler) SetVisibility(c *fiber.Ctx) error {
	projectID, ok := pathID(c, "id")
	if !ok {
		return badInput(c, "Invalid portfolio ID")
	}
	var req VisibilityRequest
	if err := c.BodyParser(&req); err != nil {
		return badInput(c, "Invalid request body")
	}
	project, err := h.service.SetVisibility(c.UserContext(), identity.FromCtx(c), projectID, req.Visibility)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(project)
}

func (h *PortfolioHandler) Preview(c *fiber.Ctx) error {
	projectID, ok := pathID(c, "id")
	if !ok {
		return badInput(c, "Invalid portfolio ID")
	}
	doc, err := h.service.Preview(c.UserContext(), identity.FromCtx(c), projectID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(doc)
}

func (h *PortfolioHandler) ReorderSections(c *fiber.Ctx) error {
	projectID, ok := pathID(c, "id")
	if !ok {
		return badInput(c, "Invalid portfolio ID")
	}
	var req ReorderRequest
	if err := c.BodyParser(&req); err != nil {
		return badInput(c, "Invalid request body")
	}
	project, err := h.service.ReorderSections(c.UserContext(), identity.FromCtx(c), projectID, req.IDs)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(project)
}

func (h *PortfolioHandler) ToggleSection(c *fiber.Ctx) error {
	sectionID, ok := pathID(c, "sectionId")
	if !ok {
		return badInput(c, "Invalid section ID")
	}
	var req ToggleSectionRequest
	if err := c.BodyParser(&req); err != nil || req.IsEnabled == nil {
		return badInput(c, "is_enabled is required")
	}
	section, err := h.service.ToggleSection(c.UserContext(), identity.FromCtx(c), sectionID, *req.IsEnabled)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(section)
}

func (h *PortfolioHandler) CreateItem(c *fiber.Ctx) error {
	sectionID, ok := pathID(c, "sectionId")
	if !ok {
		return badInput(c, "Invalid section ID")
	}
	var req ItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badInput(c, "Invalid request body")
	}
	item, err := h.service.CreateItem(c.UserContext(), identity.FromCtx(c), sectionID, req.Data)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

func (h *PortfolioHandler) UpdateItem(c *fiber.Ctx) error {
	sectionID, ok := pathID(c, "sectionId")
	if !ok {
		return badInput(c, "Invalid section ID")
	}
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return badInput(c, "Invalid item ID")
	}
	var req ItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badInput(c, "Invalid request body")
	}
	item, err := h.service.UpdateItem(c.UserContext(), identity.FromCtx(c), sectionID, itemID, req.Data)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

func (h *PortfolioHandler) DeleteItem(c *fiber.Ctx) error {
	sectionID, ok := pathID(c, "sectionId")
	if !ok {
		return badInput(c, "Invalid section ID")
	}
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return badInput(c, "Invalid item ID")
	}
	if err := h.service.DeleteItem(c.UserContext(), identity.FromCtx(c), sectionID, itemID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(DeleteResponse{Message: "Item deleted"})
}

func (h *PortfolioHandler) ReorderItems(c *fiber.Ctx) error {
	sectionID, ok := pathID(c, "sectionId")
	if !ok {
		return badInput(c, "Invalid section ID")
	}
	var req ReorderRequest
	if err := c.BodyParser(&req); err != nil {
		return badInput(c, "Invalid request body")
	}
	items, err := h.service.ReorderItems(c.UserContext(), identity.FromCtx(c), sectionID, req.IDs)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ItemListResponse{Items: items})
}

func (h *PortfolioHandler) UploadPhoto(c *fiber.Ctx) error {
	projectID, ok := pathID(c, "id")
	if !ok {
		return badInput(c, "Invalid portfolio ID")
	}
	file, err := c.FormFile("photo")
	if err != nil {
		return badInput(c, "photo file is required")
	}
	if file.Size > MaxPhotoBytes {
		return badInput(c, "Photo must be 5 MB or smaller")
	}
	f, err := file.Open()
	if err != nil {
		return badInput(c, "Photo could not be read")
	}
	defer f.Close()
	upload, err := io.ReadAll(io.LimitReader(f, MaxPhotoBytes+1))
	if err != nil {
		return badInput(c, "Photo could not be read")
	}

	project, err := h.service.SetProfilePhoto(c.UserContext(), identity.FromCtx(c), projectID, upload)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(project)
}

func (h *PortfolioHandler) DeletePhoto(c *fiber.Ctx) error {
	projectID, ok := pathID(c, "id")
	if !ok {
		return badInput(c, "Invalid portfolio ID")
	}
	project, err := h.service.ClearProfilePhoto(c.UserContext(), identity.FromCtx(c), projectID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(project)
}

// Public serves the published document for a slug without authentication.
func (h *PortfolioHandler) Public(c *fiber.Ctx) error {
	data, err := h.service.PublicDocument(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	c.Set(fiber.HeaderCacheControl, "public, max-age=60")
	return c.Send(data)
}

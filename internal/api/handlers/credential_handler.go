package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/omni-publisher/internal/service"
	"github.com/maheshrc27/omni-publisher/internal/transfer"
)

type CredentialHandler struct {
	s service.CredentialService
}

func NewCredentialHandler(service service.CredentialService) *CredentialHandler {
	return &CredentialHandler{s: service}
}

func credentialErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrUnknownPlatform):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrMissingCredentials):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrRemoteRejected), errors.Is(err, service.ErrTokenRefresh):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

func (h *CredentialHandler) SaveCredentials(c *fiber.Ctx) error {
	clientID := GetClientID(c)

	var in transfer.CredentialInput
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}

	if err := h.s.Save(c.Context(), clientID, c.Params("platform"), &in); err != nil {
		return c.Status(credentialErrorStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CredentialHandler) ListPages(c *fiber.Ctx) error {
	pages, active, err := h.s.ListPages(c.Context(), GetClientID(c))
	if err != nil {
		return c.Status(credentialErrorStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"pages":          pages,
		"active_page_id": active,
	})
}

func (h *CredentialHandler) SelectPage(c *fiber.Ctx) error {
	var in struct {
		PageID string `json:"page_id" validate:"required"`
	}
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}

	if err := h.s.SelectPage(c.Context(), GetClientID(c), in.PageID); err != nil {
		status := credentialErrorStatus(err)
		if status == fiber.StatusInternalServerError {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CredentialHandler) PublishPhotos(c *fiber.Ctx) error {
	var in transfer.PhotoPost
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}

	publishID, err := h.s.PublishPhotos(c.Context(), GetClientID(c), &in)
	if err != nil {
		return c.Status(credentialErrorStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"publish_id": publishID,
	})
}

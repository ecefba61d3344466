package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/omni-publisher/internal/models"
	"github.com/maheshrc27/omni-publisher/internal/queue"
	"github.com/maheshrc27/omni-publisher/internal/service"
	"github.com/maheshrc27/omni-publisher/internal/transfer"
)

type PostHandler struct {
	s        service.PostService
	enqueuer queue.Enqueuer
}

func NewPostHandler(service service.PostService, enqueuer queue.Enqueuer) *PostHandler {
	return &PostHandler{s: service, enqueuer: enqueuer}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	clientID := GetClientID(c)

	var pc transfer.PostCreation
	if ok, err := bindJSON(c, &pc); !ok {
		return err
	}

	postID, delay, err := h.s.CreatePost(c.Context(), clientID, &pc)
	if err != nil {
		status := fiber.StatusInternalServerError
		switch {
		case errors.Is(err, service.ErrUnknownPlatform):
			status = fiber.StatusBadRequest
		case errors.Is(err, service.ErrForeignMedia):
			status = fiber.StatusForbidden
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	// The sweep still picks the post up if the task cannot be queued.
	if err := queue.EnqueuePost(h.enqueuer, queue.PublishPostPayload{PostID: postID}, delay); err != nil {
		slog.Info("Error scheduling post", "post_id", postID, "error", err)
	}

	return c.Status(fiber.StatusCreated).JSON(transfer.PostCreated{
		ID:            postID,
		ScheduledTime: pc.ScheduledTime.UTC(),
		Status:        string(models.PostStatusPending),
	})
}

func (h *PostHandler) ListPending(c *fiber.Ctx) error {
	posts, err := h.s.ListPending(c.Context(), GetClientID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list pending posts",
		})
	}
	if posts == nil {
		posts = []*models.Post{}
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) PostInfo(c *fiber.Ctx) error {
	clientID := GetClientID(c)
	postID, err := c.ParamsInt("id")
	if err != nil || postID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}

	post, err := h.s.PostInfo(c.Context(), int64(postID), clientID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to load post",
		})
	}
	if post == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Post not found",
		})
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) UploadMedia(c *fiber.Ctx) error {
	clientID := GetClientID(c)

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file selected",
		})
	}

	uploaded, err := h.s.UploadMedia(c.Context(), clientID, file)
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(uploaded)
}

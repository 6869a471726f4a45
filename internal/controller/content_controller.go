package controller

import (
	"content-editor-be/internal/dto"
	"content-editor-be/internal/pkg/serverutils"
	"content-editor-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IContentController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type contentController struct {
	contentService service.IContentService
}

func NewContentController(contentService service.IContentService) IContentController {
	return &contentController{
		contentService: contentService,
	}
}

func (c *contentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/content/v1")
	h.Post(":entity", c.Create)
	h.Get(":entity", c.List)
	h.Get(":entity/:id", c.Show)
	h.Put(":entity/:id", c.Update)
	h.Delete(":entity/:id", c.Delete)
}

func (c *contentController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateContentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	req.Entity = ctx.Params("entity")

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.contentService.Create(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create content", res))
}

func (c *contentController) List(ctx *fiber.Ctx) error {
	var req dto.ListContentRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	req.Entity = ctx.Params("entity")

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.contentService.List(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list content", res))
}

func (c *contentController) Show(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid content id")
	}

	res, err := c.contentService.Show(ctx.UserContext(), ctx.Params("entity"), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show content", res))
}

func (c *contentController) Update(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid content id")
	}

	var req dto.UpdateContentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	req.Id = id
	req.Entity = ctx.Params("entity")

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.contentService.Update(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update content", res))
}

func (c *contentController) Delete(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid content id")
	}

	if err := c.contentService.Delete(ctx.UserContext(), ctx.Params("entity"), id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete content", nil))
}

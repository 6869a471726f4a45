package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware renders errors returned further down the chain as
// BaseResponse envelopes. Errors that are neither *fiber.Error nor
// *ValidationError become a 500.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var verr *ValidationError
		if errors.As(err, &verr) {
			res := ErrorResponse(fiber.StatusBadRequest, "Validation failed")
			res.Errors = verr.Errors
			return ctx.Status(fiber.StatusBadRequest).JSON(res)
		}

		code := fiber.StatusInternalServerError
		var ferr *fiber.Error
		if errors.As(err, &ferr) {
			code = ferr.Code
		}
		return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
	}
}

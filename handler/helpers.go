package handler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"alerta_social/service"
	"alerta_social/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const emitTimeout = 10 * time.Second

// emitContext outlives the request: emitters run after the commit and must
// finish their own writes even when the client has already gone away.
func emitContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(c.Request.Context()), emitTimeout)
}

// respondServiceError maps service sentinels onto JSON error responses.
func respondServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		utils.NotFound(c, "recurso não encontrado")
	case errors.Is(err, service.ErrForbidden):
		utils.Forbidden(c, "operação não permitida")
	case errors.Is(err, service.ErrInvalidInput):
		utils.BadRequest(c, "dados inválidos")
	case errors.Is(err, service.ErrSelfAction):
		utils.BadRequest(c, "operação sobre si mesmo não permitida")
	case errors.Is(err, service.ErrAlreadyExists):
		utils.Conflict(c, "solicitação já existe")
	case errors.Is(err, service.ErrInvalidTransition):
		utils.Conflict(c, "solicitação já respondida")
	default:
		utils.WithModule("http").Error(fallback, zap.String("path", c.FullPath()), zap.Error(err))
		utils.InternalServerError(c, fallback)
	}
}

// parseIDParam reads a positive numeric path parameter.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.BadRequest(c, "id inválido")
		return 0, false
	}
	return uint(id), true
}

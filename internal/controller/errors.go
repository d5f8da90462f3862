package controller

import (
	"errors"
	"istas_backend/internal/repository"
	"istas_backend/internal/session"
	"istas_backend/internal/util"
	"istas_backend/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps service errors onto the response envelope. Unknown
// errors are logged and answered with fallback.
func respondError(ctx *gin.Context, err error, fallback string) {
	var incomplete *session.IncompleteSubmissionError
	switch {
	case errors.As(err, &incomplete):
		util.ErrorWithData(ctx, http.StatusUnprocessableEntity, incomplete.Error(), incomplete)
	case errors.Is(err, repository.ErrVersionConflict):
		util.Conflict(ctx, "Evaluation was changed by someone else, reload it before saving")
	case errors.Is(err, session.ErrInvalidTransition):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrNotFound), repository.IsNotFound(err):
		util.NotFound(ctx)
	case errors.Is(err, session.ErrNotInHistory):
		util.Error(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrUnknownQuestion),
		errors.Is(err, session.ErrUnknownSection),
		errors.Is(err, session.ErrUnknownOption),
		errors.Is(err, session.ErrSectionOutOfRange),
		errors.Is(err, session.ErrMissingEmployee),
		errors.Is(err, session.ErrNoForm),
		errors.Is(err, session.ErrEmptyForm),
		errors.Is(err, util.ErrInvalidCatalog):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrInvalidCredentials), errors.Is(err, util.ErrUserDisabled):
		util.Error(ctx, http.StatusUnauthorized, err.Error())
	default:
		logger.Log.Error("Request failed",
			zap.String("path", ctx.FullPath()),
			zap.Error(err),
		)
		if fallback == "" {
			util.InternalServerError(ctx)
			return
		}
		util.Error(ctx, http.StatusInternalServerError, fallback)
	}
}

func sessionContext(ctx *gin.Context) (session.Context, bool) {
	sc, ok := util.SessionContext(ctx)
	if !ok {
		util.Unauthorized(ctx)
	}
	return sc, ok
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	id, err := util.ParseID(ctx.Param(name))
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return 0, false
	}
	return id, true
}

package v1

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chatroom/presence-api/internal/api/handler/v1/response"
)

// UserHeader carries the name of the participant making the request.
const UserHeader = "User"

func requester(ctx *gin.Context) string {
	return strings.TrimSpace(ctx.GetHeader(UserHeader))
}

// renderBindErr answers 422 for well-formed JSON carrying a field of the
// wrong type and 400 for anything that is not JSON at all.
func renderBindErr(ctx *gin.Context, err error) {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		response.RenderErr(ctx, response.ErrValidation(err))
		return
	}

	response.RenderErr(ctx, response.ErrBadRequest(err))
}

// HandleHealthcheck godoc
// @Summary      Healthcheck
// @Tags         health
// @Produce      json
// @Success      200
// @Router       / [get]
func HandleHealthcheck(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

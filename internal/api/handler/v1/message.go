package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chatroom/presence-api/internal/api/handler/v1/request"
	"github.com/chatroom/presence-api/internal/api/handler/v1/response"
	"github.com/chatroom/presence-api/internal/domain"
	"github.com/chatroom/presence-api/internal/service"
)

type MessageService interface {
	EnsureRegistered(ctx context.Context, user string) error
	PostMessage(ctx context.Context, message domain.Message) (domain.Message, error)
	GetMessages(ctx context.Context, user string, limit *int) ([]domain.Message, error)
}

type MessageHandler struct {
	svc MessageService
}

func NewMessageHandler(svc MessageService) *MessageHandler {
	return &MessageHandler{
		svc: svc,
	}
}

// HandlePostMessage godoc
// @Summary      Send a public or private message
// @Tags         messages
// @Accept       json
// @Produce      json
// @Param        User     header    string                      true  "sender name"
// @Param        request  body      request.PostMessageRequest  true  "request body"
// @Success      201      {object}  domain.Message
// @Failure      400      {object}  response.Err
// @Failure      422      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /messages [post]
func (h *MessageHandler) HandlePostMessage(ctx *gin.Context) {
	var req request.PostMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		renderBindErr(ctx, err)
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrValidation(err))
		return
	}

	saved, err := h.svc.PostMessage(ctx.Request.Context(), domain.Message{
		From: requester(ctx),
		To:   req.To,
		Text: req.Text,
		Type: domain.MessageType(req.Type),
	})
	if err != nil {
		renderMessageErr(ctx, fmt.Errorf("v1.HandlePostMessage -> h.svc.PostMessage -> %w", err))
		return
	}

	ctx.JSON(http.StatusCreated, saved)
}

// HandleGetMessages godoc
// @Summary      Read the messages visible to the requester
// @Description  Public messages, broadcast notices and private messages to or from the requester, oldest first.
// @Tags         messages
// @Produce      json
// @Param        User   header    string  true   "requester name"
// @Param        limit  query     int     false  "only the most recent N messages"
// @Success      200    {array}   domain.Message
// @Failure      422    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /messages [get]
func (h *MessageHandler) HandleGetMessages(ctx *gin.Context) {
	limit, err := request.ParseLimit(ctx.GetQuery("limit"))
	if err != nil {
		response.RenderErr(ctx, response.ErrValidation(err))
		return
	}

	messages, err := h.svc.GetMessages(ctx.Request.Context(), requester(ctx), limit)
	if err != nil {
		renderMessageErr(ctx, fmt.Errorf("v1.HandleGetMessages -> h.svc.GetMessages -> %w", err))
		return
	}

	ctx.JSON(http.StatusOK, messages)
}

func renderMessageErr(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownParticipant):
		response.RenderErr(ctx, response.ErrValidation(service.ErrUnknownParticipant))
	case errors.Is(err, service.ErrInvalidLimit):
		response.RenderErr(ctx, response.ErrValidation(service.ErrInvalidLimit))
	default:
		response.RenderErr(ctx, response.ErrInternalServerError(err))
	}
}

package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chatroom/presence-api/internal/api/handler/v1/request"
	"github.com/chatroom/presence-api/internal/api/handler/v1/response"
	"github.com/chatroom/presence-api/internal/config"
	"github.com/chatroom/presence-api/internal/domain"
	"github.com/chatroom/presence-api/internal/service"
)

type ParticipantService interface {
	Register(ctx context.Context, name string) (domain.Participant, error)
	GetParticipants(ctx context.Context) ([]domain.Participant, error)
	Heartbeat(ctx context.Context, name string) error
}

type ParticipantHandler struct {
	chat *config.ChatConfig
	svc  ParticipantService
}

func NewParticipantHandler(chat *config.ChatConfig, svc ParticipantService) *ParticipantHandler {
	return &ParticipantHandler{
		chat: chat,
		svc:  svc,
	}
}

// HandleRegister godoc
// @Summary      Join the chat room
// @Tags         participants
// @Accept       json
// @Produce      json
// @Param        request  body      request.CreateParticipantRequest  true  "request body"
// @Success      201      {object}  domain.Participant
// @Failure      400      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      422      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /participants [post]
func (h *ParticipantHandler) HandleRegister(ctx *gin.Context) {
	var req request.CreateParticipantRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		renderBindErr(ctx, err)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if err := req.Validate(h.chat); err != nil {
		response.RenderErr(ctx, response.ErrValidation(err))
		return
	}

	participant, err := h.svc.Register(ctx.Request.Context(), req.Name)
	if err != nil {
		if errors.Is(err, service.ErrParticipantExists) {
			response.RenderErr(ctx, response.ErrConflict(service.ErrParticipantExists))
			return
		}

		err = fmt.Errorf("v1.HandleRegister -> h.svc.Register -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, participant)
}

// HandleGetParticipants godoc
// @Summary      List participants currently in the room
// @Tags         participants
// @Produce      json
// @Success      200  {array}   domain.Participant
// @Failure      500  {object}  response.Err
// @Router       /participants [get]
func (h *ParticipantHandler) HandleGetParticipants(ctx *gin.Context) {
	participants, err := h.svc.GetParticipants(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleGetParticipants -> h.svc.GetParticipants -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, participants)
}

// HandleHeartbeat godoc
// @Summary      Refresh presence
// @Description  Keeps the participant named in the User header from being evicted.
// @Tags         participants
// @Param        User  header  string  true  "participant name"
// @Success      200
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /status [post]
func (h *ParticipantHandler) HandleHeartbeat(ctx *gin.Context) {
	user := requester(ctx)

	if err := h.svc.Heartbeat(ctx.Request.Context(), user); err != nil {
		if errors.Is(err, service.ErrParticipantNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("participant", "name", user))
			return
		}

		err = fmt.Errorf("v1.HandleHeartbeat -> h.svc.Heartbeat -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Status(http.StatusOK)
}

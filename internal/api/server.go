package api

import (
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/chatroom/presence-api/docs"
	v1 "github.com/chatroom/presence-api/internal/api/handler/v1"
	"github.com/chatroom/presence-api/internal/api/middleware"
	"github.com/chatroom/presence-api/internal/config"
	"github.com/chatroom/presence-api/internal/domain"
	"github.com/chatroom/presence-api/internal/service"
	"github.com/chatroom/presence-api/internal/stream"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
}

// NewServer wires the handlers onto the given stores. messages should be the
// hub's publishing store so that stream subscribers see every append.
func NewServer(
	conf *config.AppConfig,
	participants service.ParticipantRepository,
	messages service.MessageRepository,
	hub *stream.Hub,
	clock domain.Clock,
) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	messageSvc := service.NewMessageService(messages, participants, clock, conf.Chat)
	participantHandler := v1.NewParticipantHandler(conf.Chat,
		service.NewParticipantService(participants, messages, clock, conf.Chat))
	messageHandler := v1.NewMessageHandler(messageSvc)
	streamHandler := v1.NewStreamHandler(messageSvc, hub, conf.API.AllowedCORSDomains)

	s.MountHandlers(participantHandler, messageHandler, streamHandler)

	return s
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(middleware.RequestID())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(participantHandler *v1.ParticipantHandler, messageHandler *v1.MessageHandler, streamHandler *v1.StreamHandler) {
	s.Router.GET("/", v1.HandleHealthcheck)

	participants := s.Router.Group("/participants")
	{
		participants.POST("", participantHandler.HandleRegister)
		participants.GET("", participantHandler.HandleGetParticipants)
	}

	messages := s.Router.Group("/messages")
	{
		messages.POST("", messageHandler.HandlePostMessage)
		messages.GET("", messageHandler.HandleGetMessages)
		messages.GET("/stream", streamHandler.HandleStream)
	}

	s.Router.POST("/status", participantHandler.HandleHeartbeat)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = "/"
	docs.SwaggerInfo.Title = "Chat room presence API"
	docs.SwaggerInfo.Description = "Participants register, chat and heartbeat; idle participants are evicted."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}

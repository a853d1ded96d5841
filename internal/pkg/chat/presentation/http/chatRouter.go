package http

import (
	"github.com/gin-gonic/gin"

	"spachat/internal/infrastructure/realtime"
	sport "spachat/internal/infrastructure/stream/port"
	"spachat/internal/pkg/chat/application/usecase"
	chat "spachat/internal/pkg/chat/domain"
	"spachat/internal/pkg/chat/fanout"
	"spachat/internal/pkg/chat/presentation/controller"
	"spachat/internal/pkg/chat/presentation/middleware"
	rport "spachat/internal/pkg/chat/persistence/repository/port"
	identity "spachat/internal/repository/port"
)

// Deps carries the ports the chat endpoints are wired from. Stream is
// optional; everything else is required.
type Deps struct {
	Messages  rport.MessageRepository
	Directory identity.CustomerDirectory
	Resolver  identity.PrincipalResolver
	Dispatch  fanout.Dispatcher
	Stream    sport.Writer
	Gateway   *realtime.Gateway
}

// RegisterRoutes mounts the chat endpoints under the given router group.
// Staff endpoints live under /admin, customer endpoints under /client,
// mirroring the two authentication guards.
func RegisterRoutes(g *gin.RouterGroup, deps Deps) {
	sendUC := usecase.NewSendMessageUseCase(deps.Messages, deps.Dispatch)
	sendUC.Stream = deps.Stream
	getUC := usecase.NewGetMessagesUseCase(deps.Messages)
	convUC := usecase.NewListConversationsUseCase(deps.Messages, deps.Directory)

	admin := g.Group("/admin", middleware.Authenticate(deps.Resolver, identity.KindStaff))
	admin.POST("/chat/messages", controller.NewSendMessageController(sendUC, chat.SenderStaff).Handle())
	admin.GET("/chat/messages", controller.NewGetMessagesController(getUC, chat.SenderStaff).Handle())
	admin.GET("/chat/conversations", controller.NewListConversationsController(convUC).Handle())

	client := g.Group("/client", middleware.Authenticate(deps.Resolver, identity.KindCustomer))
	client.POST("/chat/messages", controller.NewSendMessageController(sendUC, chat.SenderCustomer).Handle())
	client.GET("/chat/messages", controller.NewGetMessagesController(getUC, chat.SenderCustomer).Handle())

	// Push gateway: either kind of principal may hold a socket.
	ws := g.Group("/chat", middleware.Authenticate(deps.Resolver, middleware.AnyKind))
	ws.GET("/ws", controller.NewChatSocketController(deps.Gateway).Handle())
}

package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spachat/internal/pkg/chat/application/usecase"
	chat "spachat/internal/pkg/chat/domain"
	"spachat/internal/pkg/chat/presentation/middleware"
)

// ListConversationsController serves the staff inbox: one row per customer
// counterpart, newest first, recomputed from the message log per request.
type ListConversationsController struct {
	uc *usecase.ListConversationsUseCase
}

func NewListConversationsController(uc *usecase.ListConversationsUseCase) *ListConversationsController {
	return &ListConversationsController{uc: uc}
}

func (ctl *ListConversationsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := middleware.Principal(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated"})
			return
		}

		convs, err := ctl.uc.Execute(c.Request.Context(), p.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to list conversations"})
			return
		}
		if convs == nil {
			convs = []chat.Conversation{}
		}
		c.JSON(http.StatusOK, convs)
	}
}

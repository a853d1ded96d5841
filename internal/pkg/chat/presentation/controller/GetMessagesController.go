package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"spachat/internal/pkg/chat/application/usecase"
	chat "spachat/internal/pkg/chat/domain"
	"spachat/internal/pkg/chat/presentation/middleware"
)

// GetMessagesController serves the authoritative pair history for one
// address variant. This endpoint is the pull half of the reconciliation
// protocol: clients call it on subscribe, on every push hint and after
// their own sends.
type GetMessagesController struct {
	uc     *usecase.GetMessagesUseCase
	viewer chat.SenderType
}

func NewGetMessagesController(uc *usecase.GetMessagesUseCase, viewer chat.SenderType) *GetMessagesController {
	return &GetMessagesController{uc: uc, viewer: viewer}
}

// Handle returns the full pair history, ascending by creation. Staff
// callers address the pair with ?customer_id=, customers with ?user_id=.
func (ctl *GetMessagesController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := middleware.Principal(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated"})
			return
		}

		var in usecase.GetMessagesInput
		switch ctl.viewer {
		case chat.SenderStaff:
			in.StaffID = p.ID
			in.CustomerID = c.Query("customer_id")
			if in.CustomerID == "" {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "customer_id is required"})
				return
			}
		default:
			in.StaffID = c.Query("user_id")
			in.CustomerID = p.ID
			if in.StaffID == "" {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "user_id is required"})
				return
			}
		}

		msgs, err := ctl.uc.Execute(c.Request.Context(), in)
		if err != nil {
			if errors.Is(err, chat.ErrMissingParty) {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to list messages"})
			return
		}
		if msgs == nil {
			msgs = []chat.Message{}
		}
		c.JSON(http.StatusOK, msgs)
	}
}

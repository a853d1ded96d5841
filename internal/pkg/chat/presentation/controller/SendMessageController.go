package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"spachat/internal/pkg/chat/application/usecase"
	chat "spachat/internal/pkg/chat/domain"
	"spachat/internal/pkg/chat/presentation/middleware"
)

// SendMessageController handles the send-message endpoint for one address
// variant: staff-addressed (body names the customer) or customer-addressed
// (body names the staff). The authenticated principal supplies its own side
// of the pair, so a caller can never write into someone else's conversation.
type SendMessageController struct {
	uc     *usecase.SendMessageUseCase
	sender chat.SenderType
}

func NewSendMessageController(uc *usecase.SendMessageUseCase, sender chat.SenderType) *SendMessageController {
	return &SendMessageController{uc: uc, sender: sender}
}

type staffSendRequest struct {
	CustomerID string `json:"customer_id" binding:"required"`
	Message    string `json:"message" binding:"required"`
}

type customerSendRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// Handle returns a gin handler that appends one message and responds with
// the persisted record. The X-Socket-ID header, when present, marks the
// caller's push connection so the fan-out can suppress its echo.
func (ctl *SendMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := middleware.Principal(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated"})
			return
		}

		in := usecase.SendMessageInput{
			Sender:   ctl.sender,
			SocketID: c.GetHeader("X-Socket-ID"),
		}
		switch ctl.sender {
		case chat.SenderStaff:
			var req staffSendRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
				return
			}
			in.StaffID = p.ID
			in.CustomerID = req.CustomerID
			in.Body = req.Message
		case chat.SenderCustomer:
			var req customerSendRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
				return
			}
			in.StaffID = req.UserID
			in.CustomerID = p.ID
			in.Body = req.Message
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": "misconfigured sender"})
			return
		}

		msg, err := ctl.uc.Execute(c.Request.Context(), in)
		if err != nil {
			ctl.replyError(c, err)
			return
		}
		c.JSON(http.StatusCreated, msg)
	}
}

func (ctl *SendMessageController) replyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chat.ErrEmptyBody), errors.Is(err, chat.ErrMissingParty), errors.Is(err, chat.ErrBadSender):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
	case errors.Is(err, usecase.ErrPersistence):
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to persist message"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
	}
}

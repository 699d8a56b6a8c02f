package controller

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	resultdto "github.com/vibast-solutions/ms-go-reports/app/dto"
	dto "github.com/vibast-solutions/ms-go-reports/app/dto/http"
	"github.com/vibast-solutions/ms-go-reports/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type ChatController struct {
	chatService *service.ChatService
	notifier    *service.WhatsAppNotifier
}

func NewChatController(chatService *service.ChatService, notifier *service.WhatsAppNotifier) *ChatController {
	return &ChatController{
		chatService: chatService,
		notifier:    notifier,
	}
}

func (c *ChatController) Message(ctx echo.Context) error {
	var req dto.ChatMessageRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	userID, _ := ctx.Get("user_id").(string)
	reply, err := c.chatService.Reply(userID, req.ChatType, req.Message, req.FileName)
	if err != nil {
		if errors.Is(err, service.ErrUnknownChatType) {
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		}
		if errors.Is(err, service.ErrStoredFileMissing) {
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "stored file not found"})
		}
		if errors.Is(err, service.ErrUnsafeFilename) || errors.Is(err, service.ErrUnreadableFile) {
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		}
		logrus.WithError(err).Error("Chat reply failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.ChatMessageResponse{
		Status:    "success",
		Message:   reply.Reply,
		Data:      summaryPayload(reply.Summary),
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (c *ChatController) History(ctx echo.Context) error {
	userID, _ := ctx.Get("user_id").(string)

	entries := c.chatService.History(userID)
	history := make([]dto.ChatHistoryEntry, 0, len(entries))
	for _, e := range entries {
		history = append(history, dto.ChatHistoryEntry{
			ChatType:    e.ChatType,
			UserMessage: e.UserMessage,
			Reply:       e.Reply,
			Timestamp:   e.Timestamp.Format(time.RFC3339),
		})
	}

	return ctx.JSON(http.StatusOK, dto.ChatHistoryResponse{
		Status:  "success",
		History: history,
		Total:   len(history),
	})
}

func (c *ChatController) ClearCache(ctx echo.Context) error {
	chatType := ctx.Param("chat_type")
	if err := c.chatService.ClearCache(chatType); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	return ctx.JSON(http.StatusOK, dto.ClearCacheResponse{
		Status:  "success",
		Message: fmt.Sprintf("cache cleared for %s", chatType),
	})
}

// Discard moves an uploaded file into the trash bin instead of deleting it
// outright.
func (c *ChatController) Discard(ctx echo.Context) error {
	item, err := c.chatService.Discard(ctx.Param("filename"))
	if err != nil {
		if errors.Is(err, service.ErrStoredFileMissing) {
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "stored file not found"})
		}
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid file name"})
	}

	return ctx.JSON(http.StatusOK, dto.DiscardResponse{
		Status:   "success",
		Message:  "file moved to trash",
		FileName: item.FileName,
	})
}

func (c *ChatController) ListTrash(ctx echo.Context) error {
	items := c.chatService.Trash()

	infos := make([]dto.TrashItemInfo, 0, len(items))
	for _, item := range items {
		infos = append(infos, dto.TrashItemInfo{
			FileName:  item.FileName,
			DeletedAt: item.DeletedAt.Format(time.RFC3339),
		})
	}

	return ctx.JSON(http.StatusOK, dto.TrashListResponse{
		Status: "success",
		Items:  infos,
		Total:  len(infos),
	})
}

func (c *ChatController) EmptyTrash(ctx echo.Context) error {
	removed := c.chatService.EmptyTrash()

	return ctx.JSON(http.StatusOK, dto.TrashEmptyResponse{
		Status:  "success",
		Message: "trash emptied",
		Removed: removed,
	})
}

func (c *ChatController) SendWhatsApp(ctx echo.Context) error {
	var req dto.WhatsAppSendRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	receipt := c.notifier.Send(req.Phone, req.Message, req.MediaURL)
	return ctx.JSON(http.StatusOK, dto.WhatsAppSendResponse{
		Status:    receipt.Status,
		Phone:     receipt.Phone,
		Timestamp: receipt.SentAt,
	})
}

func summaryPayload(summary *resultdto.ChatSummary) *dto.ChatSummaryPayload {
	if summary == nil {
		return nil
	}
	return &dto.ChatSummaryPayload{
		TotalRows:      summary.TotalRows,
		Columns:        summary.Columns,
		Records:        summary.Records,
		SalesTotal:     summary.SalesTotal,
		SalesMean:      summary.SalesMean,
		SalesMax:       summary.SalesMax,
		TotalUncovered: summary.TotalUncovered,
	}
}

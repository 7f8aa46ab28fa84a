package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/simplify/marketplace-api/internal/core/ports"
)

// MessageHandler exposes the conversation attached to a request.
type MessageHandler struct {
	service ports.MessageService
}

// NewMessageHandler creates a MessageHandler backed by the given service.
func NewMessageHandler(service ports.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

// Send handles POST /v1/requests/:id/messages.
//
// @Summary      Send a message on a request
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string          true  "Request ID"
// @Param        body  body      messageRequest  true  "Recipient and content"
// @Success      201   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/requests/{id}/messages [post]
func (h *MessageHandler) Send(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	var req messageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	m, err := h.service.Append(c.Request().Context(), p, c.Param("id"), req.RecipientID, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toMessageResponse(m))
}

// List handles GET /v1/requests/:id/messages, oldest first.
//
// @Summary      List the messages of a request
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {array}   messageResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/requests/{id}/messages [get]
func (h *MessageHandler) List(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}

	msgs, err := h.service.ListFor(c.Request().Context(), p, c.Param("id"))
	if err != nil {
		return err
	}
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	return c.JSON(http.StatusOK, out)
}

package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/simplify/marketplace-api/internal/api/metrics"
	"github.com/simplify/marketplace-api/internal/core/domain"
	"github.com/simplify/marketplace-api/internal/core/ports"
)

// RequestHandler handles HTTP requests for the service request lifecycle.
type RequestHandler struct {
	service ports.RequestService
}

func NewRequestHandler(service ports.RequestService) *RequestHandler {
	return &RequestHandler{service: service}
}

// Create handles POST /v1/requests.
//
// @Summary      Open a service request
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string                false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      createRequestRequest  true   "Client and offering"
// @Success      201              {object}  requestResponse
// @Success      200              {object}  requestResponse  "Replayed from the idempotency key"
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Failure      403              {object}  errorResponse
// @Failure      404              {object}  errorResponse
// @Failure      409              {object}  errorResponse  "Idempotency key still in use"
// @Failure      422              {object}  errorResponse
// @Router       /v1/requests [post]
func (h *RequestHandler) Create(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	var req createRequestRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.service.Create(c.Request().Context(), p, ports.CreateRequestInput{
		ClientID:       req.ClientID,
		OfferingID:     req.OfferingID,
		IdempotencyKey: c.Request().Header.Get("Idempotency-Key"),
	})
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if result.AlreadyExisted {
		metrics.IdempotentReplaysTotal.Inc()
		status = http.StatusOK
	}
	return c.JSON(status, toRequestResponse(result.Request))
}

// Get handles GET /v1/requests/:id.
//
// @Summary      Get a service request
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  requestResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/requests/{id} [get]
func (h *RequestHandler) Get(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}

	r, err := h.service.Get(c.Request().Context(), p, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRequestResponse(r))
}

// SetState handles PUT /v1/requests/:id/state.
// A rejected request is disposed of, so the response only echoes its id and state.
//
// @Summary      Accept, reject or finalize a request
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string           true  "Request ID"
// @Param        body  body      setStateRequest  true  "Target state"
// @Success      200   {object}  requestResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/requests/{id}/state [put]
func (h *RequestHandler) SetState(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	var req setStateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	id := c.Param("id")
	r, err := h.service.SetState(c.Request().Context(), p, id, domain.RequestState(req.State))
	if err != nil {
		return err
	}
	if r == nil {
		return c.JSON(http.StatusOK, rejectedResponse{ID: id, State: string(domain.StateRejected)})
	}
	return c.JSON(http.StatusOK, toRequestResponse(r))
}

// Finalize handles PUT /v1/requests/:id/finalize.
//
// @Summary      Finalize an accepted request
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  requestResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /v1/requests/{id}/finalize [put]
func (h *RequestHandler) Finalize(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}

	r, err := h.service.Finalize(c.Request().Context(), p, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRequestResponse(r))
}

// Delete handles DELETE /v1/requests/:id. Only finalized requests can be removed.
//
// @Summary      Delete a finalized request
// @Tags         requests
// @Security     BearerAuth
// @Param        id   path  string  true  "Request ID"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /v1/requests/{id} [delete]
func (h *RequestHandler) Delete(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}

	deleted, err := h.service.DeleteIfFinalized(c.Request().Context(), p, c.Param("id"))
	if err != nil {
		return err
	}
	if !deleted {
		return c.JSON(http.StatusConflict, errorResponse{
			Error: "request is not finalized",
			Code:  "not_finalized",
		})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListForClient handles GET /v1/clients/:id/requests.
//
// @Summary      List the requests of a client
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true   "Client account ID"
// @Param        state  query     string  false  "Filter by state (PENDING, ACCEPTED, FINALIZED)"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Items per page (default 20, max 100)"
// @Success      200    {object}  listRequestsResponse
// @Failure      403    {object}  errorResponse
// @Failure      422    {object}  errorResponse
// @Router       /v1/clients/{id}/requests [get]
func (h *RequestHandler) ListForClient(c echo.Context) error {
	return h.list(c, h.service.ListForClient)
}

// ListForProvider handles GET /v1/providers/:id/requests.
//
// @Summary      List the requests addressed to a provider
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true   "Provider account ID"
// @Param        state  query     string  false  "Filter by state (PENDING, ACCEPTED, FINALIZED)"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Items per page (default 20, max 100)"
// @Success      200    {object}  listRequestsResponse
// @Failure      403    {object}  errorResponse
// @Failure      422    {object}  errorResponse
// @Router       /v1/providers/{id}/requests [get]
func (h *RequestHandler) ListForProvider(c echo.Context) error {
	return h.list(c, h.service.ListForProvider)
}

type listFunc func(ctx context.Context, actor domain.Principal, ownerID string, input ports.ListRequestsInput) (*ports.ListRequestsResult, error)

func (h *RequestHandler) list(c echo.Context, fn listFunc) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	var q listRequestsQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}

	res, err := fn(c.Request().Context(), p, c.Param("id"), ports.ListRequestsInput{
		State: q.State,
		Page:  q.Page,
		Limit: q.Limit,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListRequestsResponse(res))
}

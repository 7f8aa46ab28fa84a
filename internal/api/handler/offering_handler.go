package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/simplify/marketplace-api/internal/core/ports"
)

// OfferingHandler serves the provider catalog.
type OfferingHandler struct {
	service ports.CatalogService
}

func NewOfferingHandler(service ports.CatalogService) *OfferingHandler {
	return &OfferingHandler{service: service}
}

// List handles GET /v1/offerings.
//
// @Summary      List all service offerings
// @Tags         offerings
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  offeringResponse
// @Router       /v1/offerings [get]
func (h *OfferingHandler) List(c echo.Context) error {
	items, err := h.service.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOfferingResponses(items))
}

// ListByProvider handles GET /v1/providers/:id/offerings.
//
// @Summary      List the offerings of a provider
// @Tags         offerings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string  true  "Provider account ID"
// @Success      200  {array}  offeringResponse
// @Router       /v1/providers/{id}/offerings [get]
func (h *OfferingHandler) ListByProvider(c echo.Context) error {
	items, err := h.service.ListByOwner(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOfferingResponses(items))
}

// Get handles GET /v1/offerings/:id.
//
// @Summary      Get a service offering
// @Tags         offerings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Offering ID"
// @Success      200  {object}  offeringResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/offerings/{id} [get]
func (h *OfferingHandler) Get(c echo.Context) error {
	o, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOfferingResponse(o))
}

// Create handles POST /v1/offerings.
//
// @Summary      Publish a service offering
// @Tags         offerings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      offeringRequest  true  "Offering details"
// @Success      201   {object}  offeringResponse
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/offerings [post]
func (h *OfferingHandler) Create(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	var req offeringRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	o, err := h.service.Create(c.Request().Context(), p, toOfferingInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toOfferingResponse(o))
}

// Update handles PUT /v1/offerings/:id. Only the owning provider may edit.
//
// @Summary      Update a service offering
// @Tags         offerings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string           true  "Offering ID"
// @Param        body  body      offeringRequest  true  "Offering details"
// @Success      200   {object}  offeringResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/offerings/{id} [put]
func (h *OfferingHandler) Update(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	var req offeringRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	o, err := h.service.Update(c.Request().Context(), p, c.Param("id"), toOfferingInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOfferingResponse(o))
}

// Delete handles DELETE /v1/offerings/:id and cascades to its requests.
//
// @Summary      Delete a service offering
// @Tags         offerings
// @Security     BearerAuth
// @Param        id   path  string  true  "Offering ID"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/offerings/{id} [delete]
func (h *OfferingHandler) Delete(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), p, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

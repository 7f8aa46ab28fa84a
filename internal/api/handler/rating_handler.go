package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/simplify/marketplace-api/internal/core/ports"
)

type RatingHandler struct {
	service ports.RatingService
}

func NewRatingHandler(service ports.RatingService) *RatingHandler {
	return &RatingHandler{service: service}
}

// Rate handles POST /v1/requests/:id/rating.
//
// @Summary      Rate a finalized request
// @Tags         ratings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true  "Request ID"
// @Param        body  body      ratingRequest  true  "Stars (1-5) and optional comment"
// @Success      201   {object}  ratingResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/requests/{id}/rating [post]
func (h *RatingHandler) Rate(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	var req ratingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	r, err := h.service.Rate(c.Request().Context(), p, c.Param("id"), req.Stars, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toRatingResponse(r))
}

// ListForProvider handles GET /v1/providers/:id/ratings.
//
// @Summary      List the ratings of a provider
// @Tags         ratings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Provider account ID"
// @Success      200  {object}  providerRatingsResponse
// @Router       /v1/providers/{id}/ratings [get]
func (h *RatingHandler) ListForProvider(c echo.Context) error {
	res, err := h.service.ListForProvider(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	data := make([]ratingResponse, 0, len(res.Items))
	for _, r := range res.Items {
		data = append(data, toRatingResponse(r))
	}
	return c.JSON(http.StatusOK, providerRatingsResponse{
		ProviderID: res.ProviderID,
		Average:    res.Average,
		Count:      res.Count,
		Data:       data,
	})
}

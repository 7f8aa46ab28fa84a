package handler

import (
	"github.com/simplify/marketplace-api/internal/core/domain"
	"github.com/simplify/marketplace-api/internal/core/ports"
)

// --- Request → Service input ---

func toRegisterInput(req registerRequest) ports.RegisterInput {
	in := ports.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	}
	if req.Client != nil {
		in.Client = &domain.ClientProfile{
			FullName: req.Client.FullName,
			Phone:    req.Client.Phone,
			Address:  req.Client.Address,
		}
	}
	if req.Provider != nil {
		in.Provider = &domain.ProviderProfile{
			CompanyName: req.Provider.CompanyName,
			TaxID:       req.Provider.TaxID,
			Description: req.Provider.Description,
			Phone:       req.Provider.Phone,
			Address:     req.Provider.Address,
		}
	}
	return in
}

func toOfferingInput(req offeringRequest) ports.OfferingInput {
	return ports.OfferingInput{Name: req.Name, Description: req.Description, Price: req.Price}
}

// --- Domain → Response ---

func toAccountResponse(a *domain.Account) accountResponse {
	return accountResponse{
		ID:        a.ID,
		Email:     a.Email,
		Role:      a.Role,
		Profile:   a.Profile,
		CreatedAt: a.CreatedAt,
	}
}

func toOfferingResponse(o *domain.ServiceOffering) offeringResponse {
	return offeringResponse{
		ID:          o.ID,
		ProviderID:  o.ProviderID,
		Name:        o.Name,
		Description: o.Description,
		Price:       o.Price,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func toOfferingResponses(items []*domain.ServiceOffering) []offeringResponse {
	out := make([]offeringResponse, 0, len(items))
	for _, o := range items {
		out = append(out, toOfferingResponse(o))
	}
	return out
}

func toRequestResponse(r *domain.ServiceRequest) requestResponse {
	return requestResponse{
		ID:         r.ID,
		ClientID:   r.ClientID,
		OfferingID: r.OfferingID,
		ProviderID: r.ProviderID,
		State:      string(r.State),
		Rated:      r.Rated,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		Links: requestLinks{
			Self:     "/v1/requests/" + r.ID,
			Messages: "/v1/requests/" + r.ID + "/messages",
		},
	}
}

func toListRequestsResponse(res *ports.ListRequestsResult) listRequestsResponse {
	data := make([]requestResponse, 0, len(res.Items))
	for _, r := range res.Items {
		data = append(data, toRequestResponse(r))
	}
	return listRequestsResponse{
		Data: data,
		Pagination: paginationResponse{
			Page:       res.Page,
			Limit:      res.Limit,
			Total:      res.Total,
			TotalPages: res.TotalPages,
		},
	}
}

func toMessageResponse(m *domain.Message) messageResponse {
	return messageResponse{
		ID:          m.ID,
		RequestID:   m.RequestID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Content:     m.Content,
		CreatedAt:   m.CreatedAt,
	}
}

func toRatingResponse(r *domain.Rating) ratingResponse {
	return ratingResponse{
		ID:         r.ID,
		RequestID:  r.RequestID,
		ClientID:   r.ClientID,
		ProviderID: r.ProviderID,
		Stars:      r.Stars,
		Comment:    r.Comment,
		CreatedAt:  r.CreatedAt,
	}
}

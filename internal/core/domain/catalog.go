package domain

import "time"

// ServiceOffering is a catalog entry exclusively owned by one provider.
type ServiceOffering struct {
	ID          string    `json:"id" bson:"_id"`
	ProviderID  string    `json:"provider_id" bson:"provider_id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	Price       float64   `json:"price" bson:"price"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// OwnedBy reports whether providerID owns the offering.
func (o *ServiceOffering) OwnedBy(providerID string) bool {
	return providerID != "" && o.ProviderID == providerID
}

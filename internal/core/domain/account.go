package domain

import "time"

// Role is the single authorization tag carried by every account.
type Role string

const (
	RoleClient   Role = "CLIENT"
	RoleProvider Role = "PROVIDER"
	RoleAdmin    Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleProvider, RoleAdmin:
		return true
	}
	return false
}

// Profile is the role-specific part of an account. A profile always matches
// the account role. An account whose role was overridden to one it has no
// data for carries no profile.
type Profile interface {
	Role() Role
}

// ClientProfile holds the fields only client accounts carry.
type ClientProfile struct {
	FullName string `json:"full_name" bson:"full_name"`
	Phone    string `json:"phone,omitempty" bson:"phone,omitempty"`
	Address  string `json:"address,omitempty" bson:"address,omitempty"`
}

func (ClientProfile) Role() Role { return RoleClient }

// ProviderProfile holds the company data of a provider account.
type ProviderProfile struct {
	CompanyName string `json:"company_name" bson:"company_name"`
	TaxID       string `json:"tax_id,omitempty" bson:"tax_id,omitempty"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
	Phone       string `json:"phone,omitempty" bson:"phone,omitempty"`
	Address     string `json:"address,omitempty" bson:"address,omitempty"`
}

func (ProviderProfile) Role() Role { return RoleProvider }

// AdminProfile carries no extra data.
type AdminProfile struct{}

func (AdminProfile) Role() Role { return RoleAdmin }

// Account is an authenticated actor of the marketplace.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Profile      Profile   `json:"profile,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ClientProfile returns the client profile, if the account is a client.
func (a *Account) ClientProfile() (ClientProfile, bool) {
	p, ok := a.Profile.(ClientProfile)
	return p, ok
}

// ProfileFor returns the profile that survives a role change to role: the
// current one when it still matches, AdminProfile for administrators, and
// nil otherwise.
func (a *Account) ProfileFor(role Role) Profile {
	if a.Profile != nil && a.Profile.Role() == role {
		return a.Profile
	}
	if role == RoleAdmin {
		return AdminProfile{}
	}
	return nil
}

// ProviderProfile returns the provider profile, if the account is a provider.
func (a *Account) ProviderProfile() (ProviderProfile, bool) {
	p, ok := a.Profile.(ProviderProfile)
	return p, ok
}

// Principal is the identity resolved from a bearer token.
type Principal struct {
	Subject string
	Role    Role
	Email   string
}

// IsAdmin reports whether the principal holds the ADMIN role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// Authorize returns ErrForbidden unless role is one of required.
func Authorize(role Role, required ...Role) error {
	for _, r := range required {
		if r == role {
			return nil
		}
	}
	return ErrForbidden
}

package admin

import (
	"strings"

	"fakegateway/internal/cardpolicy"
	"fakegateway/internal/models"
	dErrors "fakegateway/pkg/domain-errors"
	"fakegateway/pkg/validation"
)

type CreateCustomerRequest struct {
	ID        string `json:"id" validate:"omitempty,max=64,excludesall=/?#"`
	FirstName string `json:"first_name" validate:"max=255"`
	LastName  string `json:"last_name" validate:"max=255"`
	Email     string `json:"email" validate:"omitempty,email"`
	Company   string `json:"company" validate:"max=255"`
}

func (r *CreateCustomerRequest) Normalize() {
	if r == nil {
		return
	}
	r.ID = strings.TrimSpace(r.ID)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Company = strings.TrimSpace(r.Company)
}

func (r *CreateCustomerRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

func (r *CreateCustomerRequest) customer(id string) *models.Customer {
	return &models.Customer{
		ID:        id,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Company:   r.Company,
	}
}

type CreateAddressRequest struct {
	ID              string `json:"id" validate:"omitempty,max=64,excludesall=/?#"`
	CustomerID      string `json:"customer_id" validate:"max=64"`
	FirstName       string `json:"first_name" validate:"max=255"`
	LastName        string `json:"last_name" validate:"max=255"`
	Company         string `json:"company" validate:"max=255"`
	StreetAddress   string `json:"street_address" validate:"max=255"`
	ExtendedAddress string `json:"extended_address" validate:"max=255"`
	Locality        string `json:"locality" validate:"max=255"`
	Region          string `json:"region" validate:"max=255"`
	PostalCode      string `json:"postal_code" validate:"max=32"`
	CountryName     string `json:"country_name" validate:"max=255"`
}

func (r *CreateAddressRequest) Normalize() {
	if r == nil {
		return
	}
	for _, f := range []*string{
		&r.ID, &r.CustomerID, &r.FirstName, &r.LastName, &r.Company, &r.StreetAddress,
		&r.ExtendedAddress, &r.Locality, &r.Region, &r.PostalCode, &r.CountryName,
	} {
		*f = strings.TrimSpace(*f)
	}
}

func (r *CreateAddressRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

func (r *CreateAddressRequest) address(id string) *models.Address {
	return &models.Address{
		ID:              id,
		CustomerID:      r.CustomerID,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Company:         r.Company,
		StreetAddress:   r.StreetAddress,
		ExtendedAddress: r.ExtendedAddress,
		Locality:        r.Locality,
		Region:          r.Region,
		PostalCode:      r.PostalCode,
		CountryName:     r.CountryName,
	}
}

// UpdatePolicyRequest changes the flags it names and keeps the others.
type UpdatePolicyRequest struct {
	DeclineAll *bool `json:"decline_all"`
	VerifyAll  *bool `json:"verify_all"`
}

func (r *UpdatePolicyRequest) Validate() error {
	if r == nil || (r.DeclineAll == nil && r.VerifyAll == nil) {
		return dErrors.New(dErrors.CodeValidation, "decline_all or verify_all is required")
	}
	return nil
}

func (r *UpdatePolicyRequest) apply(current cardpolicy.Settings) cardpolicy.Settings {
	if r.DeclineAll != nil {
		current.DeclineAll = *r.DeclineAll
	}
	if r.VerifyAll != nil {
		current.VerifyAll = *r.VerifyAll
	}
	return current
}

type PolicyResponse struct {
	cardpolicy.Settings
	Mode       string   `json:"mode"`
	ValidCards []string `json:"valid_cards"`
}

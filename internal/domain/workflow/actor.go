package workflow

import (
	"strings"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"
	apperrors "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/errors"
)

// Actor is the authenticated party invoking an operation and the side they claim to act for.
// ID is a verified subject; Role is asserted by the caller and checked against the job.
type Actor struct {
	ID   string
	Role model.Role
}

// IsCustomerOf reports whether the actor is the job's customer.
func (a Actor) IsCustomerOf(job *model.Job) bool {
	return job != nil && a.ID != "" && a.ID == job.CustomerID
}

// IsVendorOf reports whether the actor is the job's vendor.
func (a Actor) IsVendorOf(job *model.Job) bool {
	return job != nil && a.ID != "" && a.ID == job.VendorID
}

// IsParticipant reports whether the actor is either side of the job.
func (a Actor) IsParticipant(job *model.Job) bool {
	return a.IsCustomerOf(job) || a.IsVendorOf(job)
}

// Holds reports whether the actor is the job's party for role.
func (a Actor) Holds(job *model.Job, role model.Role) bool {
	switch role {
	case model.RoleCustomer:
		return a.IsCustomerOf(job)
	case model.RoleVendor:
		return a.IsVendorOf(job)
	default:
		return false
	}
}

// RoleIn returns the role the actor holds on job, if any.
func (a Actor) RoleIn(job *model.Job) (model.Role, bool) {
	switch {
	case a.IsCustomerOf(job):
		return model.RoleCustomer, true
	case a.IsVendorOf(job):
		return model.RoleVendor, true
	default:
		return "", false
	}
}

// Validate checks the actor carries an identity and a known role.
func (a Actor) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return apperrors.ValidationField("actor_id", "actor id is required")
	}
	if !a.Role.Valid() {
		return apperrors.ValidationField("role", "role must be customer or vendor")
	}
	return nil
}

// RequireParticipant returns a Forbidden error unless the actor is a party to job.
func (a Actor) RequireParticipant(job *model.Job) error {
	if !a.IsParticipant(job) {
		return apperrors.Forbidden("actor is not a participant in this job")
	}
	return nil
}

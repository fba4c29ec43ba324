package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"
	apperrors "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/errors"
)

func TestActor_Capabilities(t *testing.T) {
	job := &model.Job{CustomerID: "cust-1", VendorID: "vend-1"}

	customer := Actor{ID: "cust-1", Role: model.RoleCustomer}
	vendor := Actor{ID: "vend-1", Role: model.RoleVendor}
	stranger := Actor{ID: "other", Role: model.RoleCustomer}
	empty := Actor{}

	assert.True(t, customer.IsCustomerOf(job))
	assert.False(t, customer.IsVendorOf(job))
	assert.True(t, vendor.IsVendorOf(job))
	assert.True(t, vendor.Holds(job, model.RoleVendor))
	assert.False(t, vendor.Holds(job, model.RoleCustomer))
	assert.False(t, stranger.IsParticipant(job))
	assert.False(t, empty.IsParticipant(&model.Job{}))
	assert.False(t, customer.IsParticipant(nil))

	role, ok := vendor.RoleIn(job)
	assert.True(t, ok)
	assert.Equal(t, model.RoleVendor, role)
	_, ok = stranger.RoleIn(job)
	assert.False(t, ok)

	assert.NoError(t, customer.RequireParticipant(job))
	assert.True(t, apperrors.IsForbidden(stranger.RequireParticipant(job)))
}

func TestActor_Validate(t *testing.T) {
	assert.NoError(t, Actor{ID: "a", Role: model.RoleVendor}.Validate())
	assert.Equal(t, "actor_id", apperrors.GetField(Actor{Role: model.RoleVendor}.Validate()))
	assert.Equal(t, "role", apperrors.GetField(Actor{ID: "a", Role: "admin"}.Validate()))
}

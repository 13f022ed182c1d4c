package domain

import (
	"testing"

	sharedDomain "github.com/davicafu/dddlab/internal/shared/domain"
	"github.com/stretchr/testify/assert"
)

func TestNewCustomer_Valid(t *testing.T) {
	c, err := NewCustomer("Ana", "ana@example.com")
	assert.NoError(t, err)
	assert.NotNil(t, c)
	assert.NotEqual(t, "", c.ID.String())
	assert.Equal(t, "Ana", c.Name)
	assert.False(t, c.RegisteredAt.IsZero())
}

func TestNewCustomer_Invalid(t *testing.T) {
	cases := []struct {
		name  string
		email string
	}{
		{"", "ana@example.com"},
		{"   ", "ana@example.com"},
		{"Ana", ""},
		{"Ana", "sin-arroba"},
	}
	for _, tc := range cases {
		_, err := NewCustomer(tc.name, tc.email)
		assert.ErrorIs(t, err, ErrInvalidCustomer, "name=%q email=%q", tc.name, tc.email)
	}
}

func TestCustomerRegisteredEvents_Headers(t *testing.T) {
	c, err := NewCustomer("Ana", "ana@example.com")
	assert.NoError(t, err)

	domainEvt := NewCustomerRegistered(c)
	header := domainEvt.EventHeader()
	assert.Equal(t, CustomerRegisteredName, header.Name)
	assert.Equal(t, sharedDomain.KindDomain, header.Kind)
	assert.Equal(t, ContextName, header.Context)
	assert.Equal(t, c.ID, domainEvt.CustomerID)

	integrationEvt := NewCustomerRegisteredIntegration(c)
	header = integrationEvt.EventHeader()
	// Mismo nombre lógico, tipo distinto: cada uno resuelve a su topic.
	assert.Equal(t, CustomerRegisteredName, header.Name)
	assert.Equal(t, sharedDomain.KindIntegration, header.Kind)
	assert.Equal(t, ContextName, header.Context)
	assert.Equal(t, c.Email, integrationEvt.Email)
}

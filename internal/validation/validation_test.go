package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type line struct {
	Name     string `json:"name" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=1"`
}

type body struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Method   string `json:"payment_method" validate:"omitempty,oneof=balance card"`
	Items    []line `json:"items" validate:"dive"`
}

func TestValidate(t *testing.T) {
	t.Parallel()

	v := New()
	require.NoError(t, v.Validate(&body{Email: "a@example.com", Password: "secret1"}))

	err := v.Validate(&body{
		Email:    "nope",
		Password: "123",
		Method:   "cash",
		Items:    []line{{Name: "", Quantity: 0}},
	})
	require.Error(t, err)

	fields := Fields(err)
	assert.Equal(t, map[string]string{
		"email":             "Invalid email format",
		"password":          "Minimum length is 6",
		"payment_method":    "Must be one of: balance, card",
		"items[0].name":     "This field is required",
		"items[0].quantity": "Minimum value is 1",
	}, fields)

	assert.Equal(t,
		"email: Invalid email format; items[0].name: This field is required; items[0].quantity: Minimum value is 1; password: Minimum length is 6; payment_method: Must be one of: balance, card",
		Message(err))
}

func TestMessage_PlainError(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Fields(errors.New("boom")))
	assert.Equal(t, "boom", Message(errors.New("boom")))
}

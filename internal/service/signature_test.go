package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"order_id":1,"status":"Completed"}`)
	secret := "test-secret"

	sig := signBody(secret, body)

	assert.True(t, verifySignature(secret, body, sig))
	assert.False(t, verifySignature(secret, body, sig+"00"))
	assert.False(t, verifySignature("other-secret", body, sig))
	assert.False(t, verifySignature(secret, []byte(`{"order_id":2}`), sig))
	assert.False(t, verifySignature(secret, body, ""))
}

func TestValidateSnapshot(t *testing.T) {
	good := PlaceOrderInput{
		Items: []OrderItemInput{
			{VariantID: 1, Quantity: 2, Price: 1000},
		},
		Subtotal: 2000,
		Discount: 200,
		Tax:      270,
		Shipping: 1000,
		Total:    3070,
	}
	assert.NoError(t, validateSnapshot(good))

	badSubtotal := good
	badSubtotal.Subtotal = 2500
	assert.ErrorIs(t, validateSnapshot(badSubtotal), ErrInvalidSnapshot)

	badTotal := good
	badTotal.Total = 9999
	assert.ErrorIs(t, validateSnapshot(badTotal), ErrInvalidSnapshot)
}

package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type redeemRequest struct {
	OTPCode string `json:"otp_code" validate:"required,otp"`
}

type contactRequest struct {
	ExternalID int64 `validate:"required,gt=0"`
	Phone      string `json:"phone" validate:"required,phone"`
}

func TestV10Validator_Validate(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	t.Run("ValidOTP", func(t *testing.T) {
		assert.NoError(t, v.Validate(redeemRequest{OTPCode: "042137"}))
	})

	t.Run("OTPWrongShape", func(t *testing.T) {
		for _, code := range []string{"12345", "1234567", "12a456", " 123456"} {
			err := v.Validate(redeemRequest{OTPCode: code})

			var verr V10ValidationError
			require.ErrorAs(t, err, &verr, code)
			assert.Equal(t, "otp_code must be exactly 6 digits", verr.Values()["otp_code"])
		}
	})

	t.Run("RequiredUsesJSONName", func(t *testing.T) {
		err := v.Validate(redeemRequest{})

		var verr V10ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Values(), "otp_code")
	})

	t.Run("SnakeFallbackAndPhone", func(t *testing.T) {
		err := v.Validate(contactRequest{Phone: "call me"})

		var verr V10ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Values(), "external_id")
		assert.Equal(t, "phone must be a phone number of 7-15 digits", verr.Values()["phone"])
	})

	t.Run("PhoneOK", func(t *testing.T) {
		assert.NoError(t, v.Validate(contactRequest{ExternalID: 42, Phone: "+998901234567"}))
	})
}

func TestToSnake(t *testing.T) {
	assert.Equal(t, "external_id", toSnake("ExternalID"))
	assert.Equal(t, "otp_code", toSnake("OTPCode"))
	assert.Equal(t, "user_id", toSnake("UserID"))
	assert.Equal(t, "phone", toSnake("Phone"))
}

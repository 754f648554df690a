package authgate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pchalerm/authgate"
)

func TestRegisterPayloadValidate(t *testing.T) {
	valid := authgate.RegisterPayload{
		Email:     "somchai@example.com",
		FirstName: "Somchai",
		LastName:  "Jaidee",
		Password:  "secret-pass",
	}

	t.Run("valid payload", func(t *testing.T) {
		assert.NoError(t, valid.Validate())
	})

	t.Run("valid payload with phone", func(t *testing.T) {
		p := valid
		p.Phone = "0812345678"
		assert.NoError(t, p.Validate())
	})

	tests := []struct {
		name    string
		mutate  func(p *authgate.RegisterPayload)
		message string
	}{
		{
			name:    "missing email",
			mutate:  func(p *authgate.RegisterPayload) { p.Email = "" },
			message: "กรุณากรอก Email",
		},
		{
			name:    "bad email shape",
			mutate:  func(p *authgate.RegisterPayload) { p.Email = "not-an-email" },
			message: "กรุณากรอกเป็นรูปแบบ Email",
		},
		{
			name:    "short first name",
			mutate:  func(p *authgate.RegisterPayload) { p.FirstName = "ab" },
			message: "กรุณากรอกชื่อ 3 ตัวอักษร",
		},
		{
			name:    "missing last name",
			mutate:  func(p *authgate.RegisterPayload) { p.LastName = "" },
			message: "กรุณากรอกชื่อ",
		},
		{
			name:    "short password",
			mutate:  func(p *authgate.RegisterPayload) { p.Password = "12345" },
			message: "กรุณากรอกรหัสผ่าน อย่างน้อย 6 ตัวอักษร",
		},
		{
			name:    "unparseable phone",
			mutate:  func(p *authgate.RegisterPayload) { p.Phone = "12" },
			message: "invalid phone number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)

			err := p.Validate()
			require.Error(t, err)
			assert.Equal(t, 400, classifiedStatus(t, err))
			assert.Contains(t, classifiedMessage(t, err), tt.message)
		})
	}
}

func TestLoginPayloadValidate(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		p := authgate.LoginPayload{Email: "somchai@example.com", Password: "secret-pass"}
		assert.NoError(t, p.Validate())
	})

	t.Run("missing credentials", func(t *testing.T) {
		err := authgate.LoginPayload{}.Validate()
		require.Error(t, err)
		assert.Equal(t, 400, classifiedStatus(t, err))
		assert.Equal(t, "INVALID_PAYLOAD", textCode(t, err))
	})
}

func TestNormalizePhone(t *testing.T) {
	t.Run("local number gets the region prefix", func(t *testing.T) {
		got, err := authgate.NormalizePhone("0812345678")
		require.NoError(t, err)
		assert.Equal(t, "+66812345678", got)
	})

	t.Run("international number passes through", func(t *testing.T) {
		got, err := authgate.NormalizePhone("+14155552671")
		require.NoError(t, err)
		assert.Equal(t, "+14155552671", got)
	})

	t.Run("invalid number", func(t *testing.T) {
		_, err := authgate.NormalizePhone("12")
		require.Error(t, err)
		assert.Equal(t, 400, classifiedStatus(t, err))
	})
}

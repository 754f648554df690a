package authgate

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"
)

// defaultPhoneRegion is used when a phone number comes in without an
// international prefix.
const defaultPhoneRegion = "TH"

// Validatable is a request body schema that can check itself. Validation
// runs as an independent pipeline stage; the auth core consumes none of
// its output.
type Validatable interface {
	Validate() error
}

// RegisterPayload is the registration request body.
type RegisterPayload struct {
	Email     string `json:"email" form:"email"`
	FirstName string `json:"firstName" form:"firstName"`
	LastName  string `json:"lastName" form:"lastName"`
	Password  string `json:"password" form:"password"`
	Phone     string `json:"phone" form:"phone"`
}

func (p RegisterPayload) Validate() error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.Email,
			validation.Required.Error("กรุณากรอก Email"),
			is.Email.Error("กรุณากรอกเป็นรูปแบบ Email"),
		),
		validation.Field(&p.FirstName,
			validation.Required.Error("กรุณากรอกชื่อ"),
			validation.RuneLength(3, 0).Error("กรุณากรอกชื่อ 3 ตัวอักษร"),
		),
		validation.Field(&p.LastName,
			validation.Required.Error("กรุณากรอกชื่อ"),
			validation.RuneLength(3, 0).Error("กรุณากรอกชื่อ 3 ตัวอักษร"),
		),
		validation.Field(&p.Password,
			validation.Required.Error("กรุณากรอกรหัสผ่าน"),
			validation.RuneLength(6, 0).Error("กรุณากรอกรหัสผ่าน อย่างน้อย 6 ตัวอักษร"),
		),
		validation.Field(&p.Phone,
			validation.By(validPhone),
		),
	)

	return classifyValidation(err)
}

// LoginPayload is the credential login request body. The schema is kept
// for hosts that front the flow with a credential step; the token login
// endpoint does not consume it.
type LoginPayload struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (p LoginPayload) Validate() error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.Email,
			validation.Required.Error("กรุณากรอก Email"),
			is.Email.Error("กรุณากรอกเป็นรูปแบบ Email"),
		),
		validation.Field(&p.Password,
			validation.Required.Error("กรุณากรอกรหัสผ่าน"),
			validation.RuneLength(6, 0).Error("กรุณากรอกรหัสผ่าน อย่างน้อย 6 ตัวอักษร"),
		),
	)

	return classifyValidation(err)
}

// NormalizePhone parses and reformats a phone number to E.164.
func NormalizePhone(raw string) (string, error) {
	num, err := phonenumbers.Parse(raw, defaultPhoneRegion)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryValidation, "invalid phone number").
			WithCode(goerrors.CodeBadRequest)
	}

	if !phonenumbers.IsValidNumber(num) {
		return "", goerrors.New("invalid phone number", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}

func validPhone(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}
	_, err := NormalizePhone(raw)
	return err
}

func classifyValidation(err error) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()).
		WithCode(goerrors.CodeBadRequest).
		WithTextCode("INVALID_PAYLOAD")
}

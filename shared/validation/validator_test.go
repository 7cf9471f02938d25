package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupForm struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	v := New()

	err := v.Struct(signupForm{Email: "not-an-email", Password: "short"})
	require.Error(t, err)

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "email must be a valid email address", verr.Fields["email"])
	assert.Equal(t, "password must be at least 8 characters in length", verr.Fields["password"])
}

func TestStruct_Valid(t *testing.T) {
	v := New()

	require.NoError(t, v.Struct(signupForm{Email: "alice@gmail.com", Password: "secret123"}))
}

func TestVar(t *testing.T) {
	v := New()

	err := v.Var("email", "alice", "required,email")
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "email must be a valid email address", verr.Fields["email"])

	require.NoError(t, v.Var("email", "alice@gmail.com", "required,email"))
}

func TestError_MessageIsStable(t *testing.T) {
	err := &Error{Fields: map[string]string{"b": "second", "a": "first"}}
	assert.Equal(t, "first; second", err.Error())
	assert.Equal(t, "validation failed", (&Error{}).Error())
}

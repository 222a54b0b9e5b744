package validator

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=0"`
	ImageURL  string `json:"image_url" validate:"omitempty,url"`
}

func TestValidate_Success(t *testing.T) {
	err := Validate(&sampleRequest{ProductID: "prod-1", Quantity: 2})
	assert.NoError(t, err)
}

func TestValidate_RequiredField(t *testing.T) {
	err := Validate(&sampleRequest{Quantity: 1})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Error(), "ProductID")
	assert.Contains(t, valErr.Error(), "is required")

	fields := valErr.Fields()
	assert.Equal(t, "is required", fields["ProductID"])
}

func TestValidate_MinViolation(t *testing.T) {
	err := Validate(&sampleRequest{ProductID: "prod-1", Quantity: -1})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields(), "Quantity")
}

func TestValidate_InvalidURL(t *testing.T) {
	err := Validate(&sampleRequest{ProductID: "prod-1", ImageURL: "not a url"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be a valid URL", valErr.Fields()["ImageURL"])
}

func TestDecodeAndValidate_Success(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"product_id":"prod-1","quantity":3}`))

	var dst sampleRequest
	require.NoError(t, DecodeAndValidate(req, &dst))
	assert.Equal(t, "prod-1", dst.ProductID)
	assert.Equal(t, 3, dst.Quantity)
}

func TestDecodeAndValidate_MalformedJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"product_id":`))

	var dst sampleRequest
	err := DecodeAndValidate(req, &dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}

func TestDecodeAndValidate_FailsValidation(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"quantity":1}`))

	var dst sampleRequest
	err := DecodeAndValidate(req, &dst)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
}

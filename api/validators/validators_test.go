package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/dovl-commerce/dovl-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=1"`
}

func TestDecodeJSONBodyReportsFieldsByJSONName(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"product_id":"","quantity":0}`))
	var dest addRequest
	err := DecodeJSONBody(r, &dest)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["product_id"])
	assert.Equal(t, "must be at least 1", details["quantity"])
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"product_id":"x","quantity":1,"price":1}`))
	var dest addRequest
	assert.True(t, pkgerrors.IsCode(DecodeJSONBody(r, &dest), pkgerrors.CodeValidation))
}

func TestParseQueryInt(t *testing.T) {
	cases := []struct {
		query   string
		want    int
		wantErr bool
	}{
		{"", 10, false},
		{"page=3", 3, false},
		{"page=abc", 0, true},
		{"page=0", 0, true},
	}
	for _, tc := range cases {
		r := httptest.NewRequest("GET", "/?"+tc.query, nil)
		got, err := ParseQueryInt(r, "page", 10, 1, 100)
		if tc.wantErr {
			assert.Error(t, err, tc.query)
			continue
		}
		require.NoError(t, err, tc.query)
		assert.Equal(t, tc.want, got)
	}
}

func TestParseQueryAmount(t *testing.T) {
	r := httptest.NewRequest("POST", "/?cartTotal=299.99", nil)
	got, err := ParseQueryAmount(r, "cartTotal")
	require.NoError(t, err)
	assert.Equal(t, "299.99", got.String())

	for _, q := range []string{"", "cartTotal=abc", "cartTotal=-1"} {
		r := httptest.NewRequest("POST", "/?"+q, nil)
		_, err := ParseQueryAmount(r, "cartTotal")
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), q)
	}
}

func TestParseID(t *testing.T) {
	_, err := ParseID("not-hex", "item_id")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	id, err := ParseID(" 65f1c0a2b3c4d5e6f7a8b9c0 ", "item_id")
	require.NoError(t, err)
	assert.Equal(t, "65f1c0a2b3c4d5e6f7a8b9c0", id.Hex())
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "abc", SanitizeString("  abcdef ", 3))
	assert.Equal(t, "gift wrap", SanitizeString(" gift wrap ", 0))
}

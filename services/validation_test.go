package services

import (
	"testing"

	"github.com/fenilmodi00/allotment-gateway/models"
	"github.com/fenilmodi00/allotment-gateway/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPANFormats(t *testing.T) {
	tests := []struct {
		pan     string
		strict  bool
		relaxed bool
	}{
		{pan: "ABCDE1234F", strict: true, relaxed: true},
		{pan: "ABCDE1234", strict: false, relaxed: true},
		{pan: "abcde1234f", strict: false, relaxed: false},
		{pan: "ABCD1234F", strict: false, relaxed: false},
		{pan: "ABCDE12345", strict: false, relaxed: false},
		{pan: "", strict: false, relaxed: false},
	}
	for _, tt := range tests {
		t.Run(tt.pan, func(t *testing.T) {
			assert.Equal(t, tt.strict, IsValidPAN(tt.pan))
			assert.Equal(t, tt.relaxed, IsValidRelaxedPAN(tt.pan))
		})
	}
}

func TestValidateAllotmentRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     models.AllotmentRequest
		relaxed bool
		code    string
	}{
		{name: "valid", req: models.AllotmentRequest{PANNumber: "ABCDE1234F", IPOIdentifier: "Midwest"}},
		{name: "trims input", req: models.AllotmentRequest{PANNumber: " ABCDE1234F ", IPOIdentifier: " 42 "}},
		{name: "missing pan", req: models.AllotmentRequest{IPOIdentifier: "Midwest"}, code: "PAN_REQUIRED"},
		{name: "lowercase pan", req: models.AllotmentRequest{PANNumber: "abcde1234f", IPOIdentifier: "Midwest"}, code: "INVALID_PAN"},
		{name: "short pan strict", req: models.AllotmentRequest{PANNumber: "ABCDE1234", IPOIdentifier: "Midwest"}, code: "INVALID_PAN"},
		{name: "short pan relaxed", req: models.AllotmentRequest{PANNumber: "ABCDE1234", IPOIdentifier: "Midwest"}, relaxed: true},
		{name: "missing ipo", req: models.AllotmentRequest{PANNumber: "ABCDE1234F", IPOIdentifier: "  "}, code: "IPO_REQUIRED"},
		{name: "unknown registrar", req: models.AllotmentRequest{PANNumber: "ABCDE1234F", IPOIdentifier: "Midwest", Registrar: "nsdl"}, code: "UNKNOWN_REGISTRAR"},
		{name: "registrar case folded", req: models.AllotmentRequest{PANNumber: "ABCDE1234F", IPOIdentifier: "Midwest", Registrar: "BigShare"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validated, err := ValidateAllotmentRequest(tt.req, tt.relaxed)
			if tt.code == "" {
				require.NoError(t, err)
				assert.NotContains(t, validated.PANNumber, " ")
				assert.NotContains(t, validated.IPOIdentifier, " ")
				return
			}

			require.Error(t, err)
			assert.True(t, shared.IsValidationError(err))
			var serviceErr *shared.ServiceError
			require.ErrorAs(t, err, &serviceErr)
			assert.Equal(t, tt.code, serviceErr.Code)
		})
	}
}

func TestValidateAllotmentRequest_NormalizesRegistrar(t *testing.T) {
	validated, err := ValidateAllotmentRequest(models.AllotmentRequest{
		PANNumber:     "ABCDE1234F",
		IPOIdentifier: "Midwest",
		Registrar:     " BIGSHARE ",
	}, false)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrarBigshare, validated.Registrar)
}

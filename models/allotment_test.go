package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRegistrarID(t *testing.T) {
	tests := []struct {
		input string
		id    RegistrarID
		ok    bool
	}{
		{input: "bigshare", id: RegistrarBigshare, ok: true},
		{input: "  LinkIntime ", id: RegistrarLinkIntime, ok: true},
		{input: "MUFG", id: RegistrarMufg, ok: true},
		{input: "karvy", ok: false},
		{input: "", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			id, ok := ParseRegistrarID(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.id, id)
		})
	}
	assert.Len(t, AllRegistrarIDs(), 10)
}

func TestStatusKind_Label(t *testing.T) {
	assert.Equal(t, "allotted", StatusAllotted.Label())
	assert.Equal(t, "not_allotted", StatusNotAllotted.Label())
	assert.Equal(t, "pending", StatusPending.Label())
	assert.Equal(t, "norecordfound", StatusNoRecordFound.Label())
	assert.Equal(t, "parseneeded", StatusParseNeeded.Label())
}

func TestIsNumericIdentifier(t *testing.T) {
	assert.True(t, IsNumericIdentifier("1234"))
	assert.True(t, IsNumericIdentifier(" 42 "))
	assert.False(t, IsNumericIdentifier(""))
	assert.False(t, IsNumericIdentifier("12a"))
	assert.False(t, IsNumericIdentifier("-1"))
}

func TestRegistrarProfile_EndpointURL(t *testing.T) {
	profile := RegistrarProfile{BaseURL: "https://example.com/initial_offer/"}
	assert.Equal(t, "https://example.com/initial_offer/IPO.aspx/SearchOnPan", profile.EndpointURL("/IPO.aspx/SearchOnPan"))
	assert.Equal(t, "https://example.com/initial_offer/", profile.EndpointURL(""))
}

func TestResolutionCacheEntry_Found(t *testing.T) {
	value := "42"
	assert.True(t, ResolutionCacheEntry{Key: "midwest", Value: &value}.Found())
	assert.False(t, ResolutionCacheEntry{Key: "zenith"}.Found())
}

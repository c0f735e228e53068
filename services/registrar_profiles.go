package services

import (
	"net/http"
	"strings"

	"github.com/fenilmodi00/allotment-gateway/models"
	"github.com/sirupsen/logrus"
)

// DefaultRegistrarProfiles returns the built-in registrar table in configuration order
func DefaultRegistrarProfiles() []models.RegistrarProfile {
	return []models.RegistrarProfile{
		{
			ID:                 models.RegistrarBigshare,
			DisplayName:        "Bigshare Services",
			BaseURL:            "https://ipo.bigshareonline.com",
			Method:             http.MethodPost,
			EndpointPath:       "Data.aspx/FetchIpodetails",
			ResponseKind:       models.ResponseKindJSON,
			RequiresResolution: true,
			Family:             models.FamilyDirectJSON,
		},
		{
			ID:                 models.RegistrarKfintech,
			DisplayName:        "KFin Technologies",
			BaseURL:            "https://kosmic.kfintech.com/api",
			Method:             http.MethodGet,
			EndpointPath:       "ipostatus/query",
			ResponseKind:       models.ResponseKindJSON,
			RequiresResolution: false,
			Family:             models.FamilyDirectJSON,
		},
		{
			ID:                 models.RegistrarLinkIntime,
			DisplayName:        "Link Intime India",
			BaseURL:            "https://linkintime.co.in/initial_offer",
			Method:             http.MethodPost,
			EndpointPath:       "IPO.aspx/SearchOnPan",
			ResponseKind:       models.ResponseKindJSON,
			RequiresResolution: true,
			Family:             models.FamilyToken,
		},
		{
			ID:                 models.RegistrarSkyline,
			DisplayName:        "Skyline Financial Services",
			BaseURL:            "https://www.skylinerta.com",
			Method:             http.MethodPost,
			EndpointPath:       "ipo.php",
			ResponseKind:       models.ResponseKindHTML,
			RequiresResolution: true,
			Family:             models.FamilyForm,
		},
		{
			ID:                 models.RegistrarCameo,
			DisplayName:        "Cameo Corporate Services",
			BaseURL:            "https://ipo.cameoindia.com",
			Method:             http.MethodPost,
			EndpointPath:       "",
			ResponseKind:       models.ResponseKindHTML,
			RequiresResolution: true,
			Family:             models.FamilyForm,
		},
		{
			ID:                 models.RegistrarMas,
			DisplayName:        "MAS Services",
			BaseURL:            "https://www.masserv.com",
			Method:             http.MethodPost,
			EndpointPath:       "opt.aspx",
			ResponseKind:       models.ResponseKindHTML,
			RequiresResolution: true,
			Family:             models.FamilyForm,
		},
		{
			ID:                 models.RegistrarMaashitla,
			DisplayName:        "Maashitla Securities",
			BaseURL:            "https://maashitla.com",
			Method:             http.MethodGet,
			EndpointPath:       "PublicIssues/Search",
			ResponseKind:       models.ResponseKindJSON,
			RequiresResolution: true,
			Family:             models.FamilyDirectJSON,
		},
		{
			ID:                 models.RegistrarBeetal,
			DisplayName:        "Beetal Financial & Computer Services",
			BaseURL:            "https://www.beetalfinancial.com",
			Method:             http.MethodPost,
			EndpointPath:       "ipo_status.aspx",
			ResponseKind:       models.ResponseKindHTML,
			RequiresResolution: true,
			Family:             models.FamilyForm,
		},
		{
			ID:                 models.RegistrarPurva,
			DisplayName:        "Purva Sharegistry",
			BaseURL:            "https://www.purvashare.com",
			Method:             http.MethodPost,
			EndpointPath:       "investor-service/ipo-query",
			ResponseKind:       models.ResponseKindHTML,
			RequiresResolution: true,
			Family:             models.FamilyForm,
		},
		{
			ID:                 models.RegistrarMufg,
			DisplayName:        "MUFG Intime India",
			BaseURL:            "https://in.mpms.mufg.com/Initial_Offer",
			Method:             http.MethodPost,
			EndpointPath:       "IPO.aspx/SearchOnPan",
			ResponseKind:       models.ResponseKindJSON,
			RequiresResolution: true,
			Family:             models.FamilyToken,
		},
	}
}

// RegistrarTable is the read-only registrar configuration built once at startup
type RegistrarTable struct {
	ordered []models.RegistrarProfile
	byID    map[models.RegistrarID]models.RegistrarProfile
}

// NewRegistrarTable applies base URL overrides and generic demotions to the defaults
func NewRegistrarTable(baseURLOverrides map[string]string, generic []string) *RegistrarTable {
	genericSet := make(map[models.RegistrarID]bool, len(generic))
	for _, raw := range generic {
		if id, ok := models.ParseRegistrarID(raw); ok {
			genericSet[id] = true
		}
	}

	profiles := DefaultRegistrarProfiles()
	for i := range profiles {
		profile := &profiles[i]
		if override := strings.TrimSpace(baseURLOverrides[string(profile.ID)]); override != "" {
			logrus.WithFields(logrus.Fields{
				"component": "RegistrarTable",
				"registrar": profile.ID,
				"base_url":  override,
			}).Info("Overriding registrar base URL")
			profile.BaseURL = override
		}
		if genericSet[profile.ID] {
			profile.Family = models.FamilyGeneric
			profile.RequiresResolution = false
		}
	}

	return newRegistrarTableFromProfiles(profiles)
}

func newRegistrarTableFromProfiles(profiles []models.RegistrarProfile) *RegistrarTable {
	table := &RegistrarTable{
		ordered: profiles,
		byID:    make(map[models.RegistrarID]models.RegistrarProfile, len(profiles)),
	}
	for _, profile := range profiles {
		table.byID[profile.ID] = profile
	}
	return table
}

// All returns a copy of every profile in configuration order
func (t *RegistrarTable) All() []models.RegistrarProfile {
	out := make([]models.RegistrarProfile, len(t.ordered))
	copy(out, t.ordered)
	return out
}

// Get returns the profile for id
func (t *RegistrarTable) Get(id models.RegistrarID) (models.RegistrarProfile, bool) {
	profile, ok := t.byID[id]
	return profile, ok
}

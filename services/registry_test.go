package services

import (
	"testing"
	"time"

	"github.com/fenilmodi00/allotment-gateway/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCheckers_OnePerRegistrar(t *testing.T) {
	table := NewRegistrarTable(nil, nil)
	resolver := NewRegistrarResolver(ResolverConfig{CacheTTL: time.Hour, CacheMaxSize: 10})

	checkers := BuildCheckers(table, CheckerDependencies{Transport: newTestTransport(), Resolver: resolver})

	require.Len(t, checkers, len(models.AllRegistrarIDs()))
	families := map[models.RegistrarID]string{}
	for i, checker := range checkers {
		assert.Equal(t, models.AllRegistrarIDs()[i], checker.Registrar())
		switch checker.(type) {
		case *DirectJSONChecker:
			families[checker.Registrar()] = "json"
		case *TokenChecker:
			families[checker.Registrar()] = "token"
		case *FormChecker:
			families[checker.Registrar()] = "form"
		case *GenericChecker:
			families[checker.Registrar()] = "generic"
		}
	}
	assert.Equal(t, map[models.RegistrarID]string{
		models.RegistrarBigshare:   "json",
		models.RegistrarKfintech:   "json",
		models.RegistrarLinkIntime: "token",
		models.RegistrarSkyline:    "form",
		models.RegistrarCameo:      "form",
		models.RegistrarMas:        "form",
		models.RegistrarMaashitla:  "json",
		models.RegistrarBeetal:     "form",
		models.RegistrarPurva:      "form",
		models.RegistrarMufg:       "token",
	}, families)

	var registered []models.RegistrarID
	for _, cache := range resolver.Caches() {
		registered = append(registered, cache.Stats().Registrar)
	}
	assert.Equal(t, []models.RegistrarID{
		models.RegistrarBigshare,
		models.RegistrarLinkIntime,
		models.RegistrarMaashitla,
		models.RegistrarMufg,
	}, registered)
}

func TestBuildCheckers_GenericOverride(t *testing.T) {
	table := NewRegistrarTable(nil, []string{"bigshare", "SKYLINE", "nonexistent"})
	resolver := NewRegistrarResolver(ResolverConfig{CacheTTL: time.Hour, CacheMaxSize: 10})

	checkers := BuildCheckers(table, CheckerDependencies{Transport: newTestTransport(), Resolver: resolver})

	require.Len(t, checkers, len(models.AllRegistrarIDs()))
	assert.IsType(t, &GenericChecker{}, checkers[0])
	assert.IsType(t, &GenericChecker{}, checkers[3])
	_, registered := resolver.Cache(models.RegistrarBigshare)
	assert.False(t, registered)
}

func TestBuildCheckers_FormRegistrarWithoutLayoutIsSkipped(t *testing.T) {
	table := NewRegistrarTable(nil, nil)
	layouts := DefaultFormLayouts()
	delete(layouts, models.RegistrarPurva)

	checkers := BuildCheckers(table, CheckerDependencies{Transport: newTestTransport(), Layouts: layouts})

	assert.Len(t, checkers, len(models.AllRegistrarIDs())-1)
	for _, checker := range checkers {
		assert.NotEqual(t, models.RegistrarPurva, checker.Registrar())
	}
}

func TestNewRegistrarTable_Overrides(t *testing.T) {
	table := NewRegistrarTable(map[string]string{"cameo": " http://localhost:9000 "}, nil)

	cameo, ok := table.Get(models.RegistrarCameo)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:9000", cameo.BaseURL)

	all := table.All()
	all[0].BaseURL = "mutated"
	first, _ := table.Get(models.RegistrarBigshare)
	assert.NotEqual(t, "mutated", first.BaseURL)
}

package services

import (
	"github.com/fenilmodi00/allotment-gateway/models"
	"github.com/fenilmodi00/allotment-gateway/shared"
	"github.com/sirupsen/logrus"
)

// CheckerDependencies are the collaborators shared by every checker
type CheckerDependencies struct {
	Transport *shared.HTTPTransport
	Resolver  *RegistrarResolver
	Browser   shared.PageFetcher
	Layouts   map[models.RegistrarID]FormLayout
}

// BuildCheckers creates one checker per profile and registers the listing sources of the
// registrars that resolve names through the shared resolver.
func BuildCheckers(table *RegistrarTable, deps CheckerDependencies) []Checker {
	if deps.Layouts == nil {
		deps.Layouts = DefaultFormLayouts()
	}

	var resolver IdentifierResolver
	if deps.Resolver != nil {
		resolver = deps.Resolver
	}

	checkers := make([]Checker, 0, len(table.All()))
	for _, profile := range table.All() {
		checker := buildChecker(profile, deps, resolver)
		if checker == nil {
			logrus.WithFields(logrus.Fields{
				"component": "CheckerRegistry",
				"registrar": profile.ID,
				"family":    profile.Family,
			}).Warn("Registrar has no usable checker family")
			continue
		}
		checkers = append(checkers, checker)
	}
	return checkers
}

func buildChecker(profile models.RegistrarProfile, deps CheckerDependencies, resolver IdentifierResolver) Checker {
	if profile.Family == models.FamilyGeneric {
		return NewGenericChecker(profile, deps.Transport)
	}

	switch profile.ID {
	case models.RegistrarBigshare:
		registerSources(deps.Resolver, profile, BigshareListingSource(profile, deps.Transport))
		return NewBigshareChecker(profile, deps.Transport, resolver)
	case models.RegistrarKfintech:
		return NewKfintechChecker(profile, deps.Transport)
	case models.RegistrarMaashitla:
		registerSources(deps.Resolver, profile, MaashitlaListingSource(profile, deps.Transport))
		return NewMaashitlaChecker(profile, deps.Transport, resolver)
	case models.RegistrarLinkIntime, models.RegistrarMufg:
		endpoints := DefaultTokenEndpoints()
		registerSources(deps.Resolver, profile, TokenListingSource(profile, endpoints, deps.Transport))
		return NewTokenChecker(profile, endpoints, deps.Transport, resolver)
	}

	if profile.Family == models.FamilyForm {
		layout, ok := deps.Layouts[profile.ID]
		if !ok {
			return nil
		}
		return NewFormChecker(profile, layout, deps.Transport, deps.Browser)
	}
	return nil
}

func registerSources(resolver *RegistrarResolver, profile models.RegistrarProfile, sources ...ListingSource) {
	if resolver == nil || !profile.RequiresResolution {
		return
	}
	resolver.Register(profile.ID, sources...)
}

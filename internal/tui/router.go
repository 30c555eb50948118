package tui

import (
	"net/url"
	"strings"
)

type routeKind int

const (
	routeSelection routeKind = iota
	routePlan
)

const planRoutePrefix = "/plan/"

// Route is a parsed screen location.
type Route struct {
	kind   routeKind
	PlanID string
}

// ParseRoute understands "/" and "/plan/{id}". Anything else resolves to the
// selection screen.
func ParseRoute(path string) Route {
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, planRoutePrefix) {
		return Route{kind: routeSelection}
	}
	rest := strings.TrimSuffix(strings.TrimPrefix(path, planRoutePrefix), "/")
	if rest == "" || strings.Contains(rest, "/") {
		return Route{kind: routeSelection}
	}
	id, err := url.PathUnescape(rest)
	if err != nil || strings.TrimSpace(id) == "" {
		return Route{kind: routeSelection}
	}
	return Route{kind: routePlan, PlanID: strings.TrimSpace(id)}
}

// PlanRoute returns the route for a plan's result screen.
func PlanRoute(planID string) Route {
	return Route{kind: routePlan, PlanID: strings.TrimSpace(planID)}
}

// IsPlan reports whether the route is a result screen.
func (r Route) IsPlan() bool { return r.kind == routePlan }

// Path renders the route back to its path form.
func (r Route) Path() string {
	if r.kind == routePlan {
		return planRoutePrefix + url.PathEscape(r.PlanID)
	}
	return "/"
}

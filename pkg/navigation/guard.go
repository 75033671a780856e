// Package navigation decides where a viewer may go in the client. Denied
// access always becomes a redirect, never an error.
package navigation

import (
	"net/url"
	"strings"
)

const (
	PathRoot     = "/"
	PathAuth     = "/auth"
	PathSettings = "/settings"
	PathParents  = "/parents"
	PathChat     = "/chat"
	PathComic    = "/comic"
	PathNotFound = "/404"
)

type Role string

const (
	RoleParent Role = "parent"
	RoleChild  Role = "child"
)

type Access int

const (
	Public Access = iota
	SessionRequired
	ParentOnly
)

// Viewer is what the guard knows about the caller. A zero Viewer is anonymous.
type Viewer struct {
	Authenticated bool
	Role          Role
	HasParentPin  bool
}

type Decision struct {
	Path     string
	Allowed  bool
	Redirect string
	// PinRequired asks the client to collect the parent PIN before rendering.
	PinRequired bool
}

var routes = map[string]Access{
	PathAuth:     Public,
	PathNotFound: Public,
	PathSettings: SessionRequired,
	PathChat:     SessionRequired,
	PathComic:    SessionRequired,
	PathParents:  ParentOnly,
}

// Home is where the root path sends a viewer.
func Home(v Viewer) string {
	switch {
	case !v.Authenticated:
		return PathAuth
	case v.Role == RoleParent:
		return PathParents
	default:
		return PathChat
	}
}

// Resolve applies the route table to path. Sub-paths inherit the access
// rule of their first segment, so /chat/123 behaves like /chat.
func Resolve(path string, v Viewer) Decision {
	path = normalize(path)
	if path == PathRoot {
		return redirect(path, Home(v))
	}

	access, ok := routes[section(path)]
	if !ok {
		return redirect(path, PathNotFound)
	}

	switch access {
	case SessionRequired:
		if !v.Authenticated {
			return redirect(path, PathAuth)
		}
	case ParentOnly:
		if !v.Authenticated {
			return redirect(path, PathAuth)
		}
		if v.Role != RoleParent {
			return redirect(path, Home(v))
		}
		return Decision{Path: path, Allowed: true, PinRequired: v.HasParentPin}
	}
	return Decision{Path: path, Allowed: true}
}

func redirect(path, to string) Decision {
	return Decision{Path: path, Allowed: false, Redirect: to}
}

func normalize(raw string) string {
	if u, err := url.Parse(raw); err == nil {
		raw = u.Path
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return PathRoot
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	if len(raw) > 1 {
		raw = strings.TrimRight(raw, "/")
		if raw == "" {
			return PathRoot
		}
	}
	return raw
}

func section(path string) string {
	if i := strings.IndexByte(path[1:], '/'); i >= 0 {
		return path[:i+1]
	}
	return path
}

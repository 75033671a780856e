package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	anon := Viewer{}
	child := Viewer{Authenticated: true, Role: RoleChild}
	parent := Viewer{Authenticated: true, Role: RoleParent}
	pinned := Viewer{Authenticated: true, Role: RoleParent, HasParentPin: true}

	tests := []struct {
		name   string
		path   string
		viewer Viewer
		want   Decision
	}{
		{"root anonymous", "/", anon, Decision{Path: "/", Redirect: PathAuth}},
		{"root parent", "/", parent, Decision{Path: "/", Redirect: PathParents}},
		{"root child", "", child, Decision{Path: "/", Redirect: PathChat}},
		{"auth is public", "/auth", anon, Decision{Path: "/auth", Allowed: true}},
		{"chat needs session", "/chat", anon, Decision{Path: "/chat", Redirect: PathAuth}},
		{"chat child", "/chat", child, Decision{Path: "/chat", Allowed: true}},
		{"chat sub-path", "/chat/abc?x=1", child, Decision{Path: "/chat/abc", Allowed: true}},
		{"comic trailing slash", "/comic/", child, Decision{Path: "/comic", Allowed: true}},
		{"settings parent", "/settings", parent, Decision{Path: "/settings", Allowed: true}},
		{"parents anonymous", "/parents", anon, Decision{Path: "/parents", Redirect: PathAuth}},
		{"parents child redirected home", "/parents", child, Decision{Path: "/parents", Redirect: PathChat}},
		{"parents no pin", "/parents", parent, Decision{Path: "/parents", Allowed: true}},
		{"parents pin gated", "/parents", pinned, Decision{Path: "/parents", Allowed: true, PinRequired: true}},
		{"unknown", "/admin", parent, Decision{Path: "/admin", Redirect: PathNotFound}},
		{"prefix is not a section", "/chatroom", child, Decision{Path: "/chatroom", Redirect: PathNotFound}},
		{"not found page", "/404", anon, Decision{Path: "/404", Allowed: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.path, tt.viewer))
		})
	}
}

package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"admin":        RoleAdmin,
		" Admin ":      RoleAdmin,
		"alumni":       RoleAlumni,
		"program_head": RoleProgramHead,
		"Program-Head": RoleProgramHead,
		"programhead":  RoleProgramHead,
		"program head": RoleProgramHead,
	}
	for raw, want := range cases {
		got, ok := ParseRole(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	_, ok := ParseRole("teacher")
	assert.False(t, ok)
	_, ok = ParseRole("")
	assert.False(t, ok)
}

func TestParseAccountType(t *testing.T) {
	role, ok := ParseAccountType("ProgramHead")
	assert.True(t, ok)
	assert.Equal(t, RoleProgramHead, role)

	_, ok = ParseAccountType("program-head")
	assert.False(t, ok)
	_, ok = ParseAccountType("student")
	assert.False(t, ok)
}

func TestResolveActingRole(t *testing.T) {
	role, ok := ResolveActingRole("Program_Head", []byte(`{"acting_user_type":"admin"}`))
	assert.True(t, ok)
	assert.Equal(t, "program_head", role)

	role, ok = ResolveActingRole("", []byte(`{"acting_user_type":"ADMIN","acting_role":"alumni"}`))
	assert.True(t, ok)
	assert.Equal(t, "admin", role)

	role, ok = ResolveActingRole("", []byte(`{"acting_user_type":"","acting_role":"Alumni"}`))
	assert.True(t, ok)
	assert.Equal(t, "alumni", role)

	_, ok = ResolveActingRole("", []byte(`["admin"]`))
	assert.False(t, ok)

	_, ok = ResolveActingRole("", []byte(`not json`))
	assert.False(t, ok)

	_, ok = ResolveActingRole("   ", nil)
	assert.False(t, ok)
}

func TestContextAdminRequiresVerifiedToken(t *testing.T) {
	selfAsserted := &Context{ActingRole: "admin"}
	assert.False(t, selfAsserted.IsAdmin())
	assert.True(t, selfAsserted.Is(RoleAdmin))

	trusted := &Context{ActingRole: "admin", TrustActingAdmin: true}
	assert.True(t, trusted.IsAdmin())

	verified := &Context{Identity: &Identity{ID: 1, Role: RoleAdmin}, TokenStatus: TokenValid}
	assert.True(t, verified.IsAdmin())

	narrowed := &Context{Identity: &Identity{ID: 1, Role: RoleAdmin}, ActingRole: "program_head"}
	assert.False(t, narrowed.IsAdmin())
	assert.Equal(t, RoleProgramHead, narrowed.EffectiveRole())

	var nilCtx *Context
	assert.False(t, nilCtx.IsAdmin())
	assert.Equal(t, RoleNone, nilCtx.EffectiveRole())
}

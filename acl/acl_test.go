package acl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shvtools/shvjournal/acl"
	"github.com/shvtools/shvjournal/chainpack"
)

func TestPasswordFormatFromString(t *testing.T) {
	assert.Equal(t, acl.PasswordFormatPlain, acl.PasswordFormatFromString("PLAIN"))
	assert.Equal(t, acl.PasswordFormatPlain, acl.PasswordFormatFromString("plain"))
	assert.Equal(t, acl.PasswordFormatSha1, acl.PasswordFormatFromString("Sha1"))
	assert.Equal(t, acl.PasswordFormatInvalid, acl.PasswordFormatFromString("md5"))
	assert.Equal(t, acl.PasswordFormatInvalid, acl.PasswordFormatFromString(""))
}

func TestPasswordRoundTrip(t *testing.T) {
	p := acl.Password{Password: "s3cret", Format: acl.PasswordFormatSha1}
	got := acl.PasswordFromRpcValue(p.ToRpcValue())
	assert.Equal(t, p, got)
	assert.True(t, got.IsValid())

	assert.False(t, acl.PasswordFromRpcValue(chainpack.NewNull()).IsValid())
}

func TestUserRoundTrip(t *testing.T) {
	u := acl.User{
		Password: acl.Password{Password: "pw", Format: acl.PasswordFormatPlain},
		Roles:    []string{"tester", "admin"},
	}
	got := acl.UserFromRpcValue(u.ToRpcValue())
	assert.Equal(t, u, got)
}

func TestMountDefRoundTrip(t *testing.T) {
	md := acl.MountDef{MountPoint: "test/unit-7", Description: "bench unit"}
	got := acl.MountDefFromRpcValue(md.ToRpcValue())
	assert.Equal(t, md, got)

	// a bare string is a mount point
	got = acl.MountDefFromRpcValue(chainpack.NewString("test/unit-8"))
	assert.Equal(t, "test/unit-8", got.MountPoint)
	assert.True(t, got.IsValid())
}

// Package acl holds the broker access-control value types and their
// chainpack transcoders.
package acl

import (
	"strings"

	"github.com/shvtools/shvjournal/chainpack"
)

// PasswordFormat says how a stored password is encoded.
type PasswordFormat int

const (
	PasswordFormatInvalid PasswordFormat = iota
	PasswordFormatPlain
	PasswordFormatSha1
)

func (f PasswordFormat) String() string {
	switch f {
	case PasswordFormatPlain:
		return "PLAIN"
	case PasswordFormatSha1:
		return "SHA1"
	}
	return "INVALID"
}

// PasswordFormatFromString parses a format name, any case.
func PasswordFormatFromString(s string) PasswordFormat {
	if strings.EqualFold(s, PasswordFormatPlain.String()) {
		return PasswordFormatPlain
	}
	if strings.EqualFold(s, PasswordFormatSha1.String()) {
		return PasswordFormatSha1
	}
	return PasswordFormatInvalid
}

// Password is a stored password with its encoding format.
type Password struct {
	Password string
	Format   PasswordFormat
}

func (p Password) IsValid() bool {
	return p.Format != PasswordFormatInvalid
}

func (p Password) ToRpcValue() chainpack.RpcValue {
	return chainpack.NewMap(chainpack.Map{
		"password": chainpack.NewString(p.Password),
		"format":   chainpack.NewString(p.Format.String()),
	})
}

func PasswordFromRpcValue(v chainpack.RpcValue) Password {
	p := Password{}
	if v.IsMap() {
		m := v.ToMap()
		p.Password = m.Value("password").ToString()
		p.Format = PasswordFormatFromString(m.Value("format").ToString())
	}
	return p
}

// User binds a password to a role list.
type User struct {
	Password Password
	Roles    []string
}

func (u User) IsValid() bool {
	return u.Password.IsValid()
}

func (u User) ToRpcValue() chainpack.RpcValue {
	roles := make(chainpack.List, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, chainpack.NewString(r))
	}
	return chainpack.NewMap(chainpack.Map{
		"password": u.Password.ToRpcValue(),
		"roles":    chainpack.NewList(roles),
	})
}

func UserFromRpcValue(v chainpack.RpcValue) User {
	u := User{}
	if v.IsMap() {
		m := v.ToMap()
		u.Password = PasswordFromRpcValue(m.Value("password"))
		for _, r := range m.Value("roles").ToList() {
			u.Roles = append(u.Roles, r.ToString())
		}
	}
	return u
}

// MountDef places a device in the broker tree.
type MountDef struct {
	MountPoint  string
	Description string
}

func (md MountDef) IsValid() bool {
	return md.MountPoint != ""
}

func (md MountDef) ToRpcValue() chainpack.RpcValue {
	m := chainpack.Map{
		"mountPoint": chainpack.NewString(md.MountPoint),
	}
	if md.Description != "" {
		m["description"] = chainpack.NewString(md.Description)
	}
	return chainpack.NewMap(m)
}

func MountDefFromRpcValue(v chainpack.RpcValue) MountDef {
	md := MountDef{}
	if v.IsString() {
		md.MountPoint = v.ToString()
	} else if v.IsMap() {
		m := v.ToMap()
		md.MountPoint = m.Value("mountPoint").ToString()
		md.Description = m.Value("description").ToString()
	}
	return md
}

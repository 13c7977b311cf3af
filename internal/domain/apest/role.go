// Package apest holds the five-role ministry vocabulary shared by the
// classifier, the team assembly engine and the service layer.
package apest

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is one of the five APEST ministry roles. The zero value means
// "no role" and is used for absent primary/secondary roles and for an
// unset priority role.
type Role uint8

// Canonical role order. Every deterministic tie-break in this module uses it.
const (
	RoleNone Role = iota
	Apostle
	Prophet
	Evangelist
	Shepherd
	Teacher
)

// roleCount is the number of real roles (RoleNone excluded).
const roleCount = 5

var roleNames = [...]string{
	RoleNone:   "",
	Apostle:    "apostle",
	Prophet:    "prophet",
	Evangelist: "evangelist",
	Shepherd:   "shepherd",
	Teacher:    "teacher",
}

// herderAlias is the legacy field name some data sources use for Shepherd.
const herderAlias = "herder"

// Roles returns the five roles in canonical order.
func Roles() [roleCount]Role {
	return [roleCount]Role{Apostle, Prophet, Evangelist, Shepherd, Teacher}
}

// Valid reports whether r is one of the five real roles.
func (r Role) Valid() bool {
	return r >= Apostle && r <= Teacher
}

func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

// index maps a valid role onto its position in a Vector.
func (r Role) index() int {
	return int(r) - 1
}

// ParseRole converts a role name into a Role. Matching is case-insensitive
// and "herder" is accepted as Shepherd.
func ParseRole(s string) (Role, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == herderAlias {
		return Shepherd, nil
	}
	for _, r := range Roles() {
		if roleNames[r] == name {
			return r, nil
		}
	}
	return RoleNone, fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// MarshalJSON encodes a role by name; RoleNone becomes null.
func (r Role) MarshalJSON() ([]byte, error) {
	if r == RoleNone {
		return []byte("null"), nil
	}
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRole, uint8(r))
	}
	return json.Marshal(r.String())
}

// UnmarshalJSON decodes a role name; null or "" yields RoleNone.
func (r *Role) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = RoleNone
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownRole, string(data))
	}
	if strings.TrimSpace(s) == "" {
		*r = RoleNone
		return nil
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// MarshalYAML encodes a role by name for CLI output files.
func (r Role) MarshalYAML() (any, error) {
	if r == RoleNone {
		return nil, nil
	}
	return r.String(), nil
}

// UnmarshalYAML decodes a role name from CLI input files.
func (r *Role) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		*r = RoleNone
		return nil
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

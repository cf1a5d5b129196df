package model

import "fmt"

// Role роль пользователя. Набор значений закрыт, см. ParseRole.
type Role int

const (
	RoleUser Role = iota
	RoleVolunteer
	RoleAuthority
	RoleAdmin
)

// ParseRole разбирает строковое представление роли.
func ParseRole(s string) (Role, error) {
	switch s {
	case "user":
		return RoleUser, nil
	case "volunteer":
		return RoleVolunteer, nil
	case "authority":
		return RoleAuthority, nil
	case "admin":
		return RoleAdmin, nil
	}
	return RoleUser, fmt.Errorf("%w: unknown role %q", ErrValidation, s)
}

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleVolunteer:
		return "volunteer"
	case RoleAuthority:
		return "authority"
	case RoleAdmin:
		return "admin"
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// SeesAllLinks разрешён ли роли просмотр ссылок всех пользователей.
func (r Role) SeesAllLinks() bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleUser, RoleVolunteer, RoleAuthority:
		return false
	}
	return false
}

// ManagesLinks может ли роль удалять и смотреть аналитику чужих ссылок.
func (r Role) ManagesLinks() bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleUser, RoleVolunteer, RoleAuthority:
		return false
	}
	return false
}

// ManagesUsers доступно ли роли администрирование пользователей.
func (r Role) ManagesUsers() bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleUser, RoleVolunteer, RoleAuthority:
		return false
	}
	return false
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

package model

import (
	"strings"
	"time"
)

// Profile данные профиля, которые пользователь может менять сам.
type Profile struct {
	FirstName string `json:"firstName" bson:"firstName"`
	LastName  string `json:"lastName" bson:"lastName"`
	Address   string `json:"address,omitempty" bson:"address,omitempty"`
	State     string `json:"state,omitempty" bson:"state,omitempty"`
	ZipCode   string `json:"zipCode,omitempty" bson:"zipCode,omitempty"`
	Verified  bool   `json:"verified" bson:"verified"`
}

// User учётная запись.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Profile      Profile   `json:"profile"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Name полное имя из профиля.
func (u *User) Name() string {
	return strings.TrimSpace(u.Profile.FirstName + " " + u.Profile.LastName)
}

// SplitName делит полное имя на имя и фамилию.
func SplitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// Caller идентичность вызывающего, которую middleware кладёт в контекст.
type Caller struct {
	ID   string
	Role Role
}

package model

// ShortenRequest тело запроса на сокращение URL.
type ShortenRequest struct {
	LongURL string `json:"longUrl" validate:"required"`
}

// AnalyticsResponse статистика по короткой ссылке.
type AnalyticsResponse struct {
	ReqURL      *ShortLink `json:"reqUrl"`
	TotalClicks int        `json:"totalClicks"`
}

// RegisterRequest тело запроса на регистрацию.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest тело запроса на вход.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProfileUpdate частичное обновление профиля, пустые поля не меняются.
type ProfileUpdate struct {
	Profile *Profile `json:"profile"`
	Phone   string   `json:"phone"`
}

// RoleUpdateRequest смена роли пользователя администратором.
type RoleUpdateRequest struct {
	Role string `json:"role" validate:"required,oneof=user volunteer authority admin"`
}

// UserView пользователь в ответах API.
type UserView struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Phone   string   `json:"phone,omitempty"`
	Role    Role     `json:"role"`
	Profile *Profile `json:"profile,omitempty"`
}

// NewUserView собирает представление пользователя; withProfile добавляет профиль и телефон.
func NewUserView(u *User, withProfile bool) UserView {
	v := UserView{ID: u.ID, Name: u.Name(), Email: u.Email, Role: u.Role}
	if withProfile {
		p := u.Profile
		v.Profile = &p
		v.Phone = u.Phone
	}
	return v
}

// AuthResponse ответ на регистрацию и вход.
type AuthResponse struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

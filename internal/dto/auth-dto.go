package dto

type LoginDTO struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ProfileDTO - профиль оператора, собранный из ответа /auth/me/.
type ProfileDTO struct {
	ID       int            `json:"id"`
	Username string         `json:"username"`
	Role     string         `json:"role"`
	Name     string         `json:"name"`
	Initials string         `json:"initials"`
	Raw      map[string]any `json:"raw,omitempty"`
}

type SessionDTO struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	Profile      *ProfileDTO `json:"profile"`
}

package handler

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6"`

	// Optional profile fields.
	Email        string `json:"email,omitempty"         validate:"omitempty,email"`
	PhoneNumber  string `json:"phone_number,omitempty"  validate:"omitempty,max=20"`
	BirthDate    string `json:"birth_date,omitempty"    validate:"omitempty,datetime=2006-01-02"`
	AvatarURL    string `json:"avatar_url,omitempty"    validate:"omitempty,url"`
	Nationality  string `json:"nationality,omitempty"   validate:"omitempty,max=100"`
	Address      string `json:"address,omitempty"`
	SocialQQ     string `json:"social_qq,omitempty"     validate:"omitempty,max=50"`
	SocialWechat string `json:"social_wechat,omitempty" validate:"omitempty,max=50"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// registeredResponse deliberately excludes the password hash and the reserved
// status flags.
type registeredResponse struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

type loginResponse struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	TokenType string `json:"tokenType"`
}

type profileResponse struct {
	Username string `json:"username"`
}

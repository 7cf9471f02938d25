package payload

type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,max=100"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyRegistrationRequest struct {
	VerificationCode Code `json:"verificationCode" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse never carries the bearer token. Clients read it from
// GET /auth/token with the session cookie.
type LoginResponse struct {
	User      UserResponse `json:"user"`
	ExpiresAt string       `json:"expires_at"`
	IsNewUser bool         `json:"is_new_user"`
}

type TokenResponse struct {
	Token          string `json:"token"`
	ExpiresAt      string `json:"expires_at"`
	ExpiresIn      int64  `json:"expires_in"`
	ExpirationInfo string `json:"expiration_info"`
}

type UserResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Avatar   *string `json:"avatar,omitempty"`
	Verified bool    `json:"verified"`
}

type VerifyResetCodeRequest struct {
	Code Code `json:"code" validate:"required"`
}

type ResetPasswordRequest struct {
	Code            Code   `json:"code"            validate:"required"`
	Password        string `json:"password"        validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type GoogleTokenRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

package auth

// LoginDTO is the body of POST /auth/login.
type LoginDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned for every well-formed login request.
type LoginResponse struct {
	Success bool   `json:"success"`
	User    *User  `json:"user,omitempty"`
	Message string `json:"message,omitempty"`
}

type LogoutResponse struct {
	Success bool `json:"success"`
}

// SessionResponse exposes the resolved session triple.
type SessionResponse struct {
	User       *User  `json:"user"`
	IsLoggedIn bool   `json:"isLoggedIn"`
	Loading    bool   `json:"loading"`
	Error      string `json:"error,omitempty"`
	HomePath   string `json:"homePath"`
}

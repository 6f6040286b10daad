package model

import "github.com/google/uuid"

// User types known to the backend.
const (
    UserTypeAdmin      = "admin"
    UserTypeStandard   = "standard"
    UserTypeRestricted = "restricted"
)

// User is the public view of an account as returned by the backend.  The
// password never leaves the backend.
type User struct {
    ID        uuid.UUID `json:"id"`
    Firstname string    `json:"firstname"`
    Lastname  string    `json:"lastname"`
    Email     string    `json:"email"`
    UserType  string    `json:"userType"`
}

// Token is the bearer credential returned at login and registration.  It
// is kept in the session only.
type Token struct {
    Token  string    `json:"token"`
    UserID uuid.UUID `json:"userID"`
}

// Credentials carries base64-encoded login data to the backend.
type Credentials struct {
    Username string `json:"username"`
    Password string `json:"password"`
}

// Registration is the account creation payload sent to the backend.
type Registration struct {
    Firstname string `json:"firstname"`
    Lastname  string `json:"lastname"`
    Email     string `json:"email"`
    Password  string `json:"password"`
}

// UserUpdate is the profile payload sent to PUT users/self.
type UserUpdate struct {
    Firstname string `json:"firstname"`
    Lastname  string `json:"lastname"`
    Email     string `json:"email"`
}

// PasswordChange carries base64-encoded passwords to the backend.
type PasswordChange struct {
    OldPassword string `json:"oldPassword"`
    NewPassword string `json:"newPassword"`
}

package models

// User is an account holder. Identity fields (Email, Username) are fixed at
// registration. PasswordHash never leaves the users package: store methods
// return User values with the hash cleared.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	CreatedAt    int64  `json:"createdAt"`
	UpdatedAt    int64  `json:"updatedAt"`
}

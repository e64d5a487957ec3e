package models

// Credential is one saved login in the local vault. Username is unique
// within the vault.
type Credential struct {
	ID       int64  `json:"id"`
	Username string `json:"username" validate:"required,max=256"`
	Password string `json:"password"`
}

package models

import "github.com/google/uuid"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type Login struct {
	UserID         uuid.UUID
	HashedPassword string
	Role           string
}

type User struct {
	Login    string `json:"login"    validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=6"`
}

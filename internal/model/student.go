package model

import "time"

// Role distinguishes regular students from administrators.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Student represents a registered user, identified by their matricula.
type Student struct {
	Matricula      int64     `json:"matricula"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	SecondLastName string    `json:"second_last_name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	PasswordHash   string    `json:"-"`
	Role           Role      `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}

// RegisterRequest is the payload for creating a new student account.
type RegisterRequest struct {
	Matricula      int64  `json:"matricula" binding:"required,min=1"`
	FirstName      string `json:"first_name" binding:"required,min=2,max=100"`
	LastName       string `json:"last_name" binding:"required,min=2,max=100"`
	SecondLastName string `json:"second_last_name" binding:"omitempty,max=100"`
	Email          string `json:"email" binding:"required,email,max=255"`
	Phone          string `json:"phone" binding:"omitempty,min=7,max=20"`
	Password       string `json:"password" binding:"required,min=6,max=128"`
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Matricula int64  `json:"matricula" binding:"required,min=1"`
	Password  string `json:"password" binding:"required,min=4,max=128"`
}

package model

import "time"

type User struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	FirstName string    `json:"first_name" bson:"first_name" validate:"required,min=3,max=50,person_name"`
	LastName  string    `json:"last_name" bson:"last_name" validate:"required,min=3,max=50,person_name"`
	Email     string    `json:"email" bson:"email" validate:"required,email,max=254"`
	Password  string    `json:"-" bson:"password"`
	Phone     string    `json:"phone" bson:"phone" validate:"required,eg_phone"`
	Role      string    `json:"role" bson:"role" validate:"required,oneof=user admin banned"`
	CreatedAt time.Time `json:"-" bson:"created_at"`
}

// UserView is what a user sees about themselves. Role and timestamps stay
// server side.
type UserView struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// AdminUserView is a user as listed to administrators.
type AdminUserView struct {
	UserView
	Role string `json:"role"`
}

func (u *User) View() UserView {
	return UserView{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
	}
}

func (u *User) AdminView() AdminUserView {
	return AdminUserView{UserView: u.View(), Role: u.Role}
}

func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}

func (u *User) IsBanned() bool {
	return u.Role == "banned"
}

type Signup struct {
	FirstName       string `json:"first_name" validate:"required,min=3,max=50,person_name"`
	LastName        string `json:"last_name" validate:"required,min=3,max=50,person_name"`
	Email           string `json:"email" validate:"required,email,max=254"`
	Password        string `json:"password" validate:"required,min=8,max=30,strong_password"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	Phone           string `json:"phone" validate:"required,eg_phone"`
}

// UserUpdate is a partial profile update. Email is always required so the
// client cannot blank it by omission; password and confirm_password travel
// together.
type UserUpdate struct {
	ID              string  `json:"id" validate:"required"`
	FirstName       *string `json:"first_name,omitempty" validate:"omitempty,min=3,max=50,person_name"`
	LastName        *string `json:"last_name,omitempty" validate:"omitempty,min=3,max=50,person_name"`
	Email           string  `json:"email" validate:"required,email,max=254"`
	Password        *string `json:"password,omitempty" validate:"omitempty,min=8,max=30,strong_password"`
	ConfirmPassword *string `json:"confirm_password,omitempty"`
	Phone           *string `json:"phone,omitempty" validate:"omitempty,eg_phone"`
}

type Login struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"remember_me"`
}

type PasswordChange struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=30,strong_password"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

type RoleChange struct {
	UserID string `json:"userId" validate:"required,mongodb"`
	Role   string `json:"role" validate:"required,oneof=user admin banned"`
}

// AdminUserCreate lets an administrator create an account with a chosen role.
type AdminUserCreate struct {
	Signup
	Role string `json:"role" validate:"omitempty,oneof=user admin banned"`
}

type UserDelete struct {
	ID string `json:"id" validate:"required"`
}

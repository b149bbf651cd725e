package models

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// User is a single account document. Password, tokens and avatar are
// server-side only and never serialized to clients.
type User struct {
	ID        primitive.ObjectID `json:"id"         bson:"_id,omitempty"`
	Name      string             `json:"name"       bson:"name"`
	Email     string             `json:"email"      bson:"email"`
	Age       int                `json:"age"        bson:"age"`
	Password  string             `json:"-"          bson:"password"`
	Tokens    []string           `json:"-"          bson:"tokens"`
	Avatar    []byte             `json:"-"          bson:"avatar,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// Normalize trims whitespace and lowercases the email. Must run before
// Validate so the persisted form is the validated form.
func (u *User) Normalize() {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
}

func (u User) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Name, validation.Required),
		validation.Field(&u.Email, validation.Required, is.Email),
		validation.Field(&u.Age, validation.Min(0)),
	)
}

// SetPassword validates the plaintext password and stores its bcrypt hash.
// All password writes go through here; the plaintext is never persisted.
func (u *User) SetPassword(plain string) error {
	plain = strings.TrimSpace(plain)
	if err := ValidatePassword(plain); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}

// RemoveToken drops one exact token string from the active-session list.
func (u *User) RemoveToken(token string) {
	kept := u.Tokens[:0]
	for _, t := range u.Tokens {
		if t != token {
			kept = append(kept, t)
		}
	}
	u.Tokens = kept
}

// ValidatePassword checks the plaintext password rules: at least 7
// characters and not containing the literal word "password".
func ValidatePassword(password string) error {
	return validation.Validate(password,
		validation.Required,
		validation.Length(7, 0),
		validation.By(notLiteralPassword),
	)
}

func notLiteralPassword(value interface{}) error {
	s, _ := value.(string)
	if strings.Contains(strings.ToLower(s), "password") {
		return errors.New(`must not contain "password"`)
	}
	return nil
}

// RegisterRequest is the JSON body for POST /users.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Age      int    `json:"age"`
	Password string `json:"password"`
}

// LoginRequest is the JSON body for POST /users/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

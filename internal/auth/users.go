package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/court-scheduler/internal/db"
	"github.com/example/court-scheduler/internal/domain/user"
)

// Users is the operator table.
type Users struct{ db *db.DB }

func NewUsers(d *db.DB) *Users { return &Users{db: d} }

func (u *Users) Create(ctx context.Context, username, password string) (user.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return user.User{}, fmt.Errorf("username and password required")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return user.User{}, err
	}
	out := user.User{Username: username}
	err = u.db.QueryRow(ctx, `INSERT INTO users(username, password_bcrypt) VALUES ($1,$2) RETURNING id, created_at`,
		username, []byte(hash)).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return user.User{}, db.WrapNotFound(err)
	}
	return out, nil
}

func (u *Users) Authenticate(ctx context.Context, username, password string) (int64, error) {
	var id int64
	var hash []byte
	err := u.db.QueryRow(ctx, `SELECT id, password_bcrypt FROM users WHERE username=$1`, strings.TrimSpace(username)).Scan(&id, &hash)
	if db.IsNotFound(err) {
		return 0, ErrInvalidCredentials
	}
	if err != nil {
		return 0, db.WrapNotFound(err)
	}
	if !CheckPassword(string(hash), password) {
		return 0, ErrInvalidCredentials
	}
	return id, nil
}

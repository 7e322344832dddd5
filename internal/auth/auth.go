package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Authenticator checks operator credentials and returns the operator's ID.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (int64, error)
}

// Store issues and verifies signed, encrypted session cookies.
type Store struct {
	sc    *securecookie.SecureCookie
	Users Authenticator
}

const (
	cookieName = "courtsched_session"
	sessionTTL = 14 * 24 * time.Hour
	userIDKey  = "userID"
)

func NewStore(users Authenticator, hashKey, blockKey []byte) *Store {
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(sessionTTL.Seconds()))
	return &Store{sc: sc, Users: users}
}

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPassword(hash, pw string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw))
	return err == nil
}

type Session struct {
	UserID int64 `json:"uid"`
	V      int   `json:"v"`
}

func (s *Store) SetSession(w http.ResponseWriter, r *http.Request, userID int64) error {
	encoded, err := s.sc.Encode(cookieName, Session{UserID: userID, V: 1})
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
		MaxAge:   int(sessionTTL.Seconds()),
	})
	return nil
}

func (s *Store) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

func (s *Store) GetSession(r *http.Request) (Session, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return Session{}, false
	}
	var sess Session
	if err := s.sc.Decode(cookieName, c.Value, &sess); err != nil || sess.UserID <= 0 {
		return Session{}, false
	}
	return sess, true
}

// RequireAuth rejects requests without a valid session cookie.
func (s *Store) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := s.GetSession(c.Request)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		c.Set(userIDKey, sess.UserID)
		c.Next()
	}
}

func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	uid, ok := v.(int64)
	return uid, ok
}

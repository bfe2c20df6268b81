// Package middleware содержит HTTP middleware витрины заказов.
package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	sessionCookieName = "admin_session"
	sessionTTL        = 12 * time.Hour
)

// AdminAuth выполняет проверку операторской сессии по подписанному
// cookie. Сессия выдаётся после успешного ввода PIN-кода и ограничена
// временем жизни.
type AdminAuth struct {
	secretKey []byte
}

// NewAdminAuth создаёт новый экземпляр AdminAuth с указанным секретным ключом.
func NewAdminAuth(secret string) *AdminAuth {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &AdminAuth{
		secretKey: key,
	}
}

// Middleware проверяет cookie операторской сессии и отклоняет запросы
// без действующей сессии.
func (a *AdminAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		issuedAt, ok := a.parseCookie(cookie.Value)
		if !ok || time.Since(issuedAt) > sessionTTL {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// SetSessionCookie устанавливает cookie операторской сессии.
func (a *AdminAuth) SetSessionCookie(w http.ResponseWriter) {
	value := a.sign(strconv.FormatInt(time.Now().Unix(), 10))

	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(sessionTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	http.SetCookie(w, cookie)
}

// ClearSessionCookie завершает операторскую сессию.
func (a *AdminAuth) ClearSessionCookie(w http.ResponseWriter) {
	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	http.SetCookie(w, cookie)
}

func (a *AdminAuth) sign(payload string) string {
	mac := hmac.New(sha256.New, a.secretKey)
	mac.Write([]byte(payload))
	signature := mac.Sum(nil)
	return payload + "." + hex.EncodeToString(signature)
}

func (a *AdminAuth) parseCookie(cookieValue string) (time.Time, bool) {
	parts := strings.Split(cookieValue, ".")
	if len(parts) != 2 {
		return time.Time{}, false
	}

	payload := parts[0]
	signature := parts[1]

	expected := a.sign(payload)
	expectedParts := strings.Split(expected, ".")
	if len(expectedParts) != 2 {
		return time.Time{}, false
	}

	if !hmac.Equal([]byte(signature), []byte(expectedParts[1])) {
		return time.Time{}, false
	}

	unix, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return time.Time{}, false
	}

	return time.Unix(unix, 0), true
}

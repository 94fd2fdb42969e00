package session

import (
	"errors"

	"github.com/goccy/go-json"
)

// User is the identity of the authenticated principal, persisted as JSON.
type User struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

// Tokens are the opaque credentials issued by the auth API.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

var errNotAnObject = errors.New("user record is not a JSON object")

func encodeUser(u User) (string, error) {
	b, err := json.Marshal(u)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeUser accepts any JSON object. Unknown fields are ignored so newer
// records stay readable; anything else is rejected.
func decodeUser(raw string) (*User, error) {
	var u *User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errNotAnObject
	}
	return u, nil
}

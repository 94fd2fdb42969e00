package authapi

import (
	"strings"

	"github.com/tidwall/gjson"
)

// parseResult reads tokens and profile fields from a response body. It is
// liberal about naming and accepts payloads wrapped in a "data" object.
func parseResult(body string) *Result {
	root := gjson.Parse(body)
	if data := root.Get("data"); data.IsObject() {
		root = data
	}

	profile := root
	if u := root.Get("user"); u.IsObject() {
		profile = u
	}

	return &Result{
		AccessToken:  first(root, "accessToken", "access_token", "token"),
		RefreshToken: first(root, "refreshToken", "refresh_token"),
		Profile: Profile{
			Name:   first(profile, "fullName", "full_name", "name", "username"),
			Email:  first(profile, "email"),
			Avatar: first(profile, "avatarUrl", "avatar_url", "avatar"),
		},
	}
}

// serverMessage extracts the human-readable error from an error body.
func serverMessage(body string) string {
	root := gjson.Parse(body)
	if !root.IsObject() {
		return strings.TrimSpace(body)
	}
	return first(root, "error", "message")
}

func first(node gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := node.Get(p); v.Type == gjson.String {
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The rxusers Authors

package github

import (
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// ErrDecode is returned when a response body is not the expected JSON.
var ErrDecode = errors.New("github: cannot decode response")

// User is the subset of a GitHub user record the application displays.
type User struct {
	ID        int64
	Login     string
	AvatarURL string
	HTMLURL   string
	Type      string
	SiteAdmin bool
}

// DecodeUsers decodes a JSON array of user objects. Every element must be an
// object with a login.
func DecodeUsers(body []byte) ([]User, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.Wrap(ErrDecode, "invalid json")
	}
	result := gjson.ParseBytes(body)
	if !result.IsArray() {
		return nil, errors.Wrapf(ErrDecode, "expected an array of users, got %s", result.Type)
	}

	elems := result.Array()
	users := make([]User, 0, len(elems))
	for i, elem := range elems {
		if !elem.IsObject() {
			return nil, errors.Wrapf(ErrDecode, "user %d is not an object", i)
		}
		login := elem.Get("login")
		if !login.Exists() || login.Type != gjson.String {
			return nil, errors.Wrapf(ErrDecode, "user %d has no login", i)
		}
		users = append(users, User{
			ID:        elem.Get("id").Int(),
			Login:     login.String(),
			AvatarURL: elem.Get("avatar_url").String(),
			HTMLURL:   elem.Get("html_url").String(),
			Type:      elem.Get("type").String(),
			SiteAdmin: elem.Get("site_admin").Bool(),
		})
	}
	return users, nil
}

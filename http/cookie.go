// SPDX-License-Identifier: GPL-3.0-or-later

package http

import "strings"

// Cookie is one name/value pair parsed out of a request's Cookie
// header. Parsing only: storage/jar policy is an explicit Non-goal.
type Cookie struct {
	Name  string
	Value string
}

// ParseCookieHeader splits a Cookie header's "name=value; name2=value2"
// list into individual [Cookie]s.
func ParseCookieHeader(header string) []Cookie {
	var out []Cookie
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx := strings.IndexByte(part, '=')
		if idx < 0 {
			out = append(out, Cookie{Name: part})
			continue
		}
		out = append(out, Cookie{Name: part[:idx], Value: part[idx+1:]})
	}
	return out
}

// SetCookie is one Set-Cookie response header's parsed attributes.
type SetCookie struct {
	Name     string
	Value    string
	Path     string
	Domain   string
	Secure   bool
	HTTPOnly bool
}

// ParseSetCookie parses a single Set-Cookie header value.
func ParseSetCookie(header string) SetCookie {
	var sc SetCookie
	parts := strings.Split(header, ";")
	if len(parts) == 0 {
		return sc
	}
	first := strings.TrimSpace(parts[0])
	if idx := strings.IndexByte(first, '='); idx >= 0 {
		sc.Name, sc.Value = first[:idx], first[idx+1:]
	} else {
		sc.Name = first
	}
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		lower := strings.ToLower(p)
		switch {
		case lower == "secure":
			sc.Secure = true
		case lower == "httponly":
			sc.HTTPOnly = true
		case strings.HasPrefix(lower, "path="):
			sc.Path = p[len("path="):]
		case strings.HasPrefix(lower, "domain="):
			sc.Domain = p[len("domain="):]
		}
	}
	return sc
}

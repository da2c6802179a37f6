package view

import (
	"net/url"

	"attractions-web/internal/domain"
)

// ShareLinkFor prepares a share payload for a. Invalid URLs are passed through unchanged.
func ShareLinkFor(a domain.Attraction, pageURL string) ShareLink {
	link := ShareLink{Title: a.Title, Text: a.Description, URL: pageURL}
	if u, err := url.Parse(pageURL); err == nil {
		u.Fragment = ""
		link.URL = u.String()
	}
	return link
}

package avatar

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/eventkit/bannergen/internal/util"
)

// AvatarSelector matches the profile picture on a GitHub profile page.
const AvatarSelector = ".avatar.avatar-user"

const DefaultProfileURL = "https://github.com"

// Lookup finds the avatar image URL of a handle.
type Lookup interface {
	AvatarURL(ctx context.Context, handle string) (string, error)
}

// ProfileLookup scrapes <BaseURL>/<handle> and reads the src attribute of
// the first element matching AvatarSelector.
type ProfileLookup struct {
	BaseURL string
	Client  *http.Client
}

func (l ProfileLookup) AvatarURL(ctx context.Context, handle string) (string, error) {
	base := l.BaseURL
	if base == "" {
		base = DefaultProfileURL
	}
	page := strings.TrimRight(base, "/") + "/" + url.PathEscape(handle)
	body, err := util.GetBytes(ctx, l.Client, page)
	if err != nil {
		return "", fmt.Errorf("failed to fetch profile page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse profile page: %w", err)
	}
	src, ok := doc.Find(AvatarSelector).First().Attr("src")
	if !ok || src == "" {
		return "", fmt.Errorf("no %s element on %s", AvatarSelector, page)
	}
	return absURL(page, src)
}

func absURL(page, src string) (string, error) {
	base, err := url.Parse(page)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(src)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

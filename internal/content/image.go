package content

import (
	"fmt"
	"net/url"
	"strings"
)

// ImageCDN builds public image URLs from CMS asset references of the form
// image-<id>-<width>x<height>-<format>.
type ImageCDN struct {
	ProjectID string
	Dataset   string
}

const cdnHost = "cdn.sanity.io"

// URL returns the CDN URL for ref, or "" when the CDN is not configured or
// the reference is malformed.
func (c ImageCDN) URL(ref string) string {
	if c.ProjectID == "" || c.Dataset == "" {
		return ""
	}

	rest, ok := strings.CutPrefix(ref, "image-")
	if !ok {
		return ""
	}
	i := strings.LastIndexByte(rest, '-')
	if i <= 0 || i == len(rest)-1 {
		return ""
	}
	name, format := rest[:i], rest[i+1:]

	return fmt.Sprintf("https://%s/images/%s/%s/%s.%s", cdnHost, c.ProjectID, c.Dataset, name, format)
}

// resolve fills img.URL from its asset reference when missing.
func (c ImageCDN) resolve(img *Image) *Image {
	if img == nil || img.URL != "" || img.Asset == nil {
		return img
	}
	out := *img
	out.URL = c.URL(img.Asset.Ref)
	return &out
}

// Sized returns the image URL, asking the CDN for the given width when the
// image is served by it.
func (img *Image) Sized(width int) string {
	if img == nil || img.URL == "" {
		return ""
	}
	u, err := url.Parse(img.URL)
	if err != nil || u.Host != cdnHost {
		return img.URL
	}
	q := u.Query()
	q.Set("w", fmt.Sprint(width))
	u.RawQuery = q.Encode()
	return u.String()
}

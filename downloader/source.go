// downloader/source.go
package downloader

import (
	"errors"
	"net/url"
	"strings"
)

// resourceIDPlaceholder marks where a resource identifier goes in a URL template.
const resourceIDPlaceholder = "{id}"

// DefaultURLTemplate is the public share link download endpoint.
const DefaultURLTemplate = "https://drive.google.com/uc?id={id}&authuser=0&export=download"

// DefaultResourceIDs are the files downloaded when no identifiers are configured.
var DefaultResourceIDs = []string{
	"13wUorzpQZ984UACpprU8o21BO6rizaFB",
	"1yFJ3FEKXlJWyUaSL8Z0PkfINw2lYMchE",
	"1fTo5KmOLGbxI3uNHhVOTZbQyTWnOgYD6",
	"11I2vakOkyFTO_EyP19CZz9uMy71JzdIk",
	"1cpcxUg-7_CmAM-5Vpwa72VxUqwuhY8KX",
}

// Source is the ordered list of resources to fetch and the URL template they are fetched from.
type Source struct {
	URLTemplate string
	ResourceIDs []string
}

// BuildURL substitutes the query escaped resource identifier into the template.
func (s Source) BuildURL(resourceID string) (string, error) {
	if strings.TrimSpace(resourceID) == "" {
		return "", errors.New("resource id is empty")
	}
	if err := validateURLTemplate(s.URLTemplate); err != nil {
		return "", err
	}
	return strings.ReplaceAll(s.URLTemplate, resourceIDPlaceholder, url.QueryEscape(resourceID)), nil
}

// Package storage keeps user and evaluator icons in an object store.
package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

var (
	ErrIconCreate = errors.New("failed to create icon")
	ErrIconGet    = errors.New("failed to get icon")
	ErrIconType   = errors.New("icon content type must be image/*")
)

// Icon is an image blob with its MIME type.
type Icon struct {
	Body        []byte
	ContentType string
}

// IconOwner decides the path prefix an icon is stored under.
type IconOwner struct {
	prefix string
	name   string
}

// UserOwner is a registered user, identified by their identity provider id.
func UserOwner(auth0ID string) IconOwner {
	return IconOwner{prefix: "user", name: auth0ID}
}

// EvaluatorOwner is an anonymous evaluator, identified by display name.
func EvaluatorOwner(name string) IconOwner {
	return IconOwner{prefix: "evaluator", name: name}
}

// IconStore uploads icons and reads them back by path.
type IconStore interface {
	UploadIcon(ctx context.Context, icon Icon, owner IconOwner) (string, error)
	GetIcon(ctx context.Context, key string) (*Icon, error)
}

// IconPath builds <prefix>/<owner>/<unix-ms>.<subtype>. Only "/" in the owner
// is escaped; Auth0 subjects such as auth0|abc stay readable.
func IconPath(owner IconOwner, contentType string, at time.Time) (string, error) {
	subtype, err := imageSubtype(contentType)
	if err != nil {
		return "", err
	}
	if owner.prefix == "" || owner.name == "" {
		return "", errors.New("icon owner is required")
	}
	return fmt.Sprintf("%s/%s/%d.%s", owner.prefix, escapeOwner(owner.name), at.UnixMilli(), subtype), nil
}

func escapeOwner(name string) string {
	name = strings.ReplaceAll(name, "%", "%25")
	return strings.ReplaceAll(name, "/", "%2F")
}

// DataURI renders an icon as data:<type>;base64,<body>.
func DataURI(icon *Icon) string {
	return "data:" + icon.ContentType + ";base64," + base64.StdEncoding.EncodeToString(icon.Body)
}

// contentTypeFromKey recovers image/<subtype> from a stored path.
func contentTypeFromKey(key string) string {
	ext := strings.TrimPrefix(path.Ext(key), ".")
	if ext == "" {
		return "application/octet-stream"
	}
	return "image/" + ext
}

func imageSubtype(contentType string) (string, error) {
	mediaType, _, _ := strings.Cut(contentType, ";")
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	subtype, ok := strings.CutPrefix(mediaType, "image/")
	if !ok || subtype == "" {
		return "", fmt.Errorf("%w: %q", ErrIconType, contentType)
	}
	return subtype, nil
}

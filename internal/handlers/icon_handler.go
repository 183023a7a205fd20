package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/dto"
	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/storage"
	"github.com/gofiber/fiber/v2"
)

const maxIconBytes = 2 << 20

type IconHandler struct {
	icons storage.IconStore
}

func NewIconHandler(icons storage.IconStore) *IconHandler {
	return &IconHandler{icons: icons}
}

// Get returns the icon stored under ?key= as a data URI.
func (h *IconHandler) Get(c *fiber.Ctx) error {
	key := strings.TrimSpace(c.Query("key"))
	if key == "" {
		return c.JSON(dto.IconResponse{Error: storage.ErrIconGet.Error()})
	}

	icon, err := h.icons.GetIcon(c.UserContext(), key)
	if err != nil {
		return c.JSON(dto.IconResponse{Error: fail(c, "icon download failed", err)})
	}
	uri := storage.DataURI(icon)
	return c.JSON(dto.IconResponse{Icon: &uri})
}

// readIcon loads the multipart "icon" file. A request without one yields nil.
func readIcon(c *fiber.Ctx) (*storage.Icon, error) {
	fh, err := c.FormFile("icon")
	if err != nil {
		return nil, nil
	}
	if fh.Size > maxIconBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", storage.ErrIconCreate, fh.Size, maxIconBytes)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrIconCreate, err)
	}
	defer f.Close()

	body, err := io.ReadAll(io.LimitReader(f, maxIconBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrIconCreate, err)
	}
	if len(body) > maxIconBytes {
		return nil, fmt.Errorf("%w: icon too large", storage.ErrIconCreate)
	}

	contentType := fh.Header.Get(fiber.HeaderContentType)
	if contentType == "" || contentType == fiber.MIMEOctetStream {
		contentType = http.DetectContentType(body)
	}
	return &storage.Icon{Body: body, ContentType: contentType}, nil
}

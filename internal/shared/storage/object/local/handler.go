package local

import (
	"errors"
	"io"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"

	"smartdoc-backend/internal/shared/server/respond"
	"smartdoc-backend/internal/shared/storage/object"
)

// RegisterDownload serves signed URLs issued by SignedURL. The route is
// public; the signature is the credential.
func (s *Store) RegisterDownload(r gin.IRoutes) {
	r.GET(FilesPath, s.download)
}

func (s *Store) download(c *gin.Context) {
	key := c.Query("key")
	if err := s.Verify(key, c.Query("expires"), c.Query("sig")); err != nil {
		respond.Error(c, http.StatusForbidden, "forbidden", "invalid or expired link", nil)
		return
	}
	body, err := s.Open(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to open file", nil)
		return
	}
	defer body.Close()

	head := make([]byte, 512)
	n, _ := io.ReadFull(body, head)
	head = head[:n]
	c.Header("Content-Disposition", `inline; filename="`+path.Base(key)+`"`)
	c.Header("Cache-Control", "private, no-store")
	c.Header("Content-Type", object.SniffContentType(head))
	c.Status(http.StatusOK)
	_, _ = c.Writer.Write(head)
	_, _ = io.Copy(c.Writer, body)
}

package httpapi

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/sharekeeper/internal/common"
	"github.com/dmitrijs2005/sharekeeper/internal/server/models"
)

// publicErrors are reported to clients verbatim. Anything else is upstream
// detail and is replaced by a generic message.
var publicErrors = []error{
	common.ErrFileNotFound,
	common.ErrUserNotFound,
	common.ErrTargetUserNotFound,
	common.ErrPermissionNotFound,
	common.ErrInvalidToken,
}

// respondError maps every file service failure to 400 with a reason string.
func (s *HTTPServer) respondError(c *gin.Context, err error) {
	for _, e := range publicErrors {
		if errors.Is(err, e) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": e.Error()})
			return
		}
	}
	if errors.Is(err, common.ErrInvalidInput) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	s.logger.Error(c.Request.Context(), "request failed",
		"error", err,
		"path", c.Request.URL.Path,
	)
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": common.ErrorInternal.Error()})
}

func (s *HTTPServer) handleUpload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "file is required"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		s.respondError(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		s.respondError(c, err)
		return
	}

	d, err := s.files.Upload(c.Request.Context(), c.GetString(callerKey), fh.Filename, data, uploadContentType(fh.Header.Get("Content-Type"), data))
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "File uploaded", "fileData": d})
}

// uploadContentType trusts the part's declared type and sniffs the content
// only when the client sent none or the generic octet-stream.
func uploadContentType(declared string, data []byte) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return mimetype.Detect(data).String()
}

func (s *HTTPServer) handleList(c *gin.Context) {
	list, err := s.files.List(c.Request.Context(), c.GetString(callerKey))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *HTTPServer) handleFetchOwn(c *gin.Context) {
	key := c.Param("key")
	blob, err := s.files.FetchOwn(c.Request.Context(), key, c.GetString(callerKey))
	if err != nil {
		s.respondError(c, err)
		return
	}
	writeBlob(c, key, blob)
}

func (s *HTTPServer) handleDelete(c *gin.Context) {
	if err := s.files.Delete(c.Request.Context(), c.Param("key"), c.GetString(callerKey)); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "File deleted"})
}

func (s *HTTPServer) handleIssueLink(c *gin.Context) {
	token, err := s.files.IssueLink(c.Request.Context(), c.Param("key"), c.GetString(callerKey))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *HTTPServer) handleFetchByToken(c *gin.Context) {
	shared, err := s.files.FetchByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"fileKey":  shared.FileKey,
		"fileData": base64.StdEncoding.EncodeToString(shared.Data),
	})
}

func (s *HTTPServer) handleFetchByPermission(c *gin.Context) {
	key := c.Param("key")
	blob, err := s.files.FetchByPermission(c.Request.Context(), key, c.GetString(callerKey))
	if err != nil {
		s.respondError(c, err)
		return
	}
	writeBlob(c, key, blob)
}

type grantRequest struct {
	Email string `json:"email" binding:"required"`
}

func (s *HTTPServer) handleGrant(c *gin.Context) {
	var req grantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "email is required"})
		return
	}

	if err := s.files.Grant(c.Request.Context(), c.Param("key"), c.GetString(callerKey), req.Email); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Permission added successfully"})
}

func (s *HTTPServer) handleRevoke(c *gin.Context) {
	if err := s.files.Revoke(c.Request.Context(), c.Param("key"), c.Param("email"), c.GetString(callerKey)); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Permission removed successfully"})
}

func (s *HTTPServer) handleListPermissions(c *gin.Context) {
	emails, err := s.files.ListPermissions(c.Request.Context(), c.Param("key"), c.GetString(callerKey))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, emails)
}

func (s *HTTPServer) handleListUsers(c *gin.Context) {
	users, err := s.users.ListUsers(c.Request.Context(), c.GetString(callerKey))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func writeBlob(c *gin.Context, name string, blob *models.Blob) {
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, url.PathEscape(name)))
	c.Header("Content-Length", strconv.Itoa(len(blob.Data)))
	c.Data(http.StatusOK, blob.ContentType, blob.Data)
}

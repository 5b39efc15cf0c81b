package rest

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"filedrive/internal/application/ports"
	"filedrive/internal/application/services"
	"filedrive/internal/interface/api/rest/dto/user_file"
	"filedrive/internal/interface/api/rest/middleware"
	"filedrive/internal/interface/api/rest/validator"
)

// room for multipart boundaries and headers on top of the file itself
const multipartOverhead = int64(1 << 20)

const (
	msgFileNotFound   = "File not found"
	msgFileRequired   = "File is required"
	msgFileEmpty      = "File is empty"
	msgFileTooLarge   = "File too large"
	msgUploadFailed   = "Upload failed"
	msgDownloadFailed = "Download failed"
	msgDeleteFailed   = "Delete failed"
)

type UserFileController struct {
	userFileService ports.UserFileService
	logger          *zap.Logger
	maxSize         int64
	cookie          middleware.CookieOptions
}

func NewUserFileController(
	r *gin.Engine,
	userFileService ports.UserFileService,
	logger *zap.Logger,
	tokens middleware.TokenVerifier,
	maxSize int64,
	cookie middleware.CookieOptions,
) *UserFileController {
	ufc := &UserFileController{
		userFileService: userFileService,
		logger:          logger,
		maxSize:         maxSize,
		cookie:          cookie,
	}

	authed := r.Group("", middleware.Session(tokens, RouteUserLogin))
	authed.GET(RouteHome, ufc.HomeHandler)
	authed.POST(RouteUpload, ufc.UploadHandler)
	authed.GET(RouteDownloadByKey, ufc.DownloadByKeyHandler)
	authed.GET(RouteDownloadByID, ufc.DownloadByIDHandler)
	authed.GET(RouteDeleteUserFile, ufc.DeleteHandler)

	return ufc
}

func (ufc *UserFileController) HomeHandler(c *gin.Context) {
	claims, ok := middleware.SessionFrom(c)
	if !ok {
		c.Redirect(http.StatusFound, RouteUserLogin)
		return
	}

	files, err := ufc.userFileService.FindUserFiles(c.Request.Context(), claims.UserUUID())
	if err != nil {
		ufc.logger.Error("FindUserFiles() error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": msgInternal})
		return
	}

	c.JSON(http.StatusOK, user_file.HomeResponse{
		Username: claims.Username,
		Data:     user_file.ToResponseUserFiles(files),
	})
}

func (ufc *UserFileController) UploadHandler(c *gin.Context) {
	claims, ok := middleware.SessionFrom(c)
	if !ok {
		c.Redirect(http.StatusFound, RouteUserLogin)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ufc.maxSize+multipartOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": msgFileTooLarge})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"message": msgFileRequired})
		return
	}
	if fh.Size == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgFileEmpty})
		return
	}
	if fh.Size > ufc.maxSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": msgFileTooLarge})
		return
	}

	f, err := fh.Open()
	if err != nil {
		ufc.logger.Error("open multipart file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": msgUploadFailed})
		return
	}
	defer f.Close()

	uf, err := ufc.userFileService.Upload(c.Request.Context(), claims.UserUUID(), ports.UploadInput{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		ufc.logger.Error("Upload() error", zap.Error(err), zap.String("user_id", claims.UserID))
		c.JSON(http.StatusInternalServerError, gin.H{"message": msgUploadFailed})
		return
	}

	ufc.logger.Info("file uploaded",
		zap.Stringer("file_uuid", uf.UUID),
		zap.String("storage_key", uf.StorageKey),
	)

	c.Redirect(http.StatusFound, RouteHome)
}

func (ufc *UserFileController) DownloadByKeyHandler(c *gin.Context) {
	claims, ok := middleware.SessionFrom(c)
	if !ok {
		c.Redirect(http.StatusFound, RouteUserLogin)
		return
	}

	key := strings.TrimPrefix(c.Param("path"), "/")
	if key == "" {
		c.JSON(http.StatusNotFound, gin.H{"message": msgFileNotFound})
		return
	}

	url, err := ufc.userFileService.DownloadURL(c.Request.Context(), claims.UserUUID(), key)
	ufc.redirectToSigned(c, url, err)
}

func (ufc *UserFileController) DownloadByIDHandler(c *gin.Context) {
	claims, ok := middleware.SessionFrom(c)
	if !ok {
		c.Redirect(http.StatusFound, RouteUserLogin)
		return
	}

	valid, id := validator.IsUUID(c.Param("id"))
	if !valid {
		c.JSON(http.StatusNotFound, gin.H{"message": msgFileNotFound})
		return
	}

	url, err := ufc.userFileService.DownloadURLByID(c.Request.Context(), claims.UserUUID(), id)
	ufc.redirectToSigned(c, url, err)
}

func (ufc *UserFileController) redirectToSigned(c *gin.Context, url string, err error) {
	if err != nil {
		if errors.Is(err, services.ErrFileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": msgFileNotFound})
			return
		}
		ufc.logger.Error("signed url error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": msgDownloadFailed})
		return
	}

	c.Redirect(http.StatusFound, url)
}

func (ufc *UserFileController) DeleteHandler(c *gin.Context) {
	claims, ok := middleware.SessionFrom(c)
	if !ok {
		c.Redirect(http.StatusFound, RouteUserLogin)
		return
	}

	valid, id := validator.IsUUID(c.Param("id"))
	if !valid {
		c.JSON(http.StatusNotFound, gin.H{"message": msgFileNotFound})
		return
	}

	err := ufc.userFileService.Delete(c.Request.Context(), claims.UserUUID(), id)
	switch {
	case err == nil:
		c.Redirect(http.StatusFound, RouteHome)
	case errors.Is(err, services.ErrFileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": msgFileNotFound})
	case errors.Is(err, services.ErrUnknownOwner):
		middleware.ClearSessionCookie(c, ufc.cookie)
		c.Redirect(http.StatusFound, RouteUserLogin)
	default:
		ufc.logger.Error("Delete() error", zap.Error(err), zap.Stringer("file_uuid", id))
		c.JSON(http.StatusInternalServerError, gin.H{"message": msgDeleteFailed})
	}
}

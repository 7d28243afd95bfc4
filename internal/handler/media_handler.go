package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grupovial/drivetest-backend/internal/response"
	"github.com/grupovial/drivetest-backend/internal/service"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// MediaHandler handles question image uploads.
type MediaHandler struct {
	mediaService *service.MediaService
	logger       zerolog.Logger
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(mediaService *service.MediaService) *MediaHandler {
	return &MediaHandler{
		mediaService: mediaService,
		logger:       log.With().Str("component", "media_handler").Logger(),
	}
}

// UploadQuestionImage handles POST /api/v1/admin/media/question-images
// Multipart form with a "code" field and a "file" part.
func (h *MediaHandler) UploadQuestionImage(c *gin.Context) {
	code := c.PostForm("code")
	if code == "" || len(code) > 50 {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"code": "Se requiere un código de imagen de hasta 50 caracteres.",
		})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}

	path, err := h.mediaService.SaveQuestionImage(c.Request.Context(), code, file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedMedia):
			response.Fail(c, http.StatusUnsupportedMediaType, response.ErrUnsupportedFile)
		case errors.Is(err, service.ErrMediaTooLarge):
			response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
		default:
			h.logger.Error().Err(err).Msg("image upload failed")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"code": code,
		"path": path,
	})
}

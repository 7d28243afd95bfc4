package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/grupovial/drivetest-backend/internal/config"
	"github.com/grupovial/drivetest-backend/internal/repository"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrMediaTooLarge    = errors.New("file exceeds the upload size limit")
)

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".svg":  true,
}

// MediaService stores question illustrations (traffic signs, road
// situations) on disk and registers them in the image bank under a code
// that questions reference.
type MediaService struct {
	questions *repository.QuestionRepository
	cfg       *config.Config
	logger    zerolog.Logger
}

// NewMediaService creates a new MediaService and makes sure the upload
// directory exists.
func NewMediaService(questions *repository.QuestionRepository, cfg *config.Config) (*MediaService, error) {
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &MediaService{
		questions: questions,
		cfg:       cfg,
		logger:    log.With().Str("component", "media_service").Logger(),
	}, nil
}

// SaveQuestionImage stores the uploaded file under a random name and binds
// it to the given image code. Re-uploading a code replaces its binding; the
// old file stays on disk until cleaned up out of band.
func (s *MediaService) SaveQuestionImage(ctx context.Context, code string, file *multipart.FileHeader) (string, error) {
	if file.Size > s.cfg.MaxUploadBytes {
		return "", ErrMediaTooLarge
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExts[ext] {
		return "", ErrUnsupportedMedia
	}

	filename := uuid.NewString() + ext
	dst := filepath.Join(s.cfg.UploadDir, filename)

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("write file: %w", err)
	}

	publicPath := "/uploads/" + filename
	if err := s.questions.UpsertImage(ctx, code, publicPath); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("register image: %w", err)
	}

	s.logger.Info().Str("code", code).Str("path", publicPath).Msg("question image stored")
	return publicPath, nil
}

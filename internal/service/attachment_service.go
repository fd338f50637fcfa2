package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/spec-kit/issue-triage-service/internal/config"
	"github.com/spec-kit/issue-triage-service/internal/domain"
)

// AttachmentService stores evidence images in Cloudinary. It satisfies the
// EvidenceUploader interface used by IssueService.
type AttachmentService struct {
	cld    *cloudinary.Cloudinary
	folder string
	now    func() time.Time
}

// NewAttachmentService fails when credentials are missing; callers that want
// evidence upload to be optional should check the config first.
func NewAttachmentService(cfg config.CloudinaryConfig) (*AttachmentService, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary configuration is missing")
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("initialize cloudinary: %w", err)
	}
	return &AttachmentService{
		cld:    cld,
		folder: cfg.Folder,
		now:    time.Now,
	}, nil
}

// Upload stores the image under a per-user, timestamped path and returns the
// stored location. The timestamp keeps repeated uploads from colliding.
func (s *AttachmentService) Upload(ctx context.Context, file io.Reader, userID string, filename string) (*domain.EvidenceImage, error) {
	name := sanitizeFilename(filename)
	publicID := fmt.Sprintf("%s/%s/%d_%s", s.folder, userID, s.now().UnixMilli(), strings.TrimSuffix(name, path.Ext(name)))

	result, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:     publicID,
		ResourceType: "image",
	})
	if err != nil {
		return nil, fmt.Errorf("upload evidence image: %w", err)
	}

	return &domain.EvidenceImage{
		URL:  result.SecureURL,
		Path: result.PublicID,
		Name: name,
	}, nil
}

// Remove deletes a previously uploaded evidence image.
func (s *AttachmentService) Remove(ctx context.Context, publicID string) error {
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "image",
	})
	if err != nil {
		return fmt.Errorf("delete evidence image: %w", err)
	}
	return nil
}

func sanitizeFilename(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return "evidence"
	}
	return name
}

package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/AbdRaqeeb/fastfood-api/internal/config"
)

// Upload folders per resource.
const (
	FolderUsers      = "users"
	FolderCooks      = "cooks"
	FolderAdmins     = "admins"
	FolderCategories = "categories"
	FolderFoods      = "foods"
)

var ErrUploadsDisabled = errors.New("image uploads are not configured")

// ImageUploader stores an image and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, file io.Reader, folder string) (string, error)
}

// CloudinaryUploader uploads images to Cloudinary.
type CloudinaryUploader struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryUploader builds an uploader from CLOUDINARY_URL or the split credentials.
func NewCloudinaryUploader(cfg *config.Config) (*CloudinaryUploader, error) {
	if !cfg.CloudinaryEnabled() {
		return nil, ErrUploadsDisabled
	}

	var (
		cld *cloudinary.Cloudinary
		err error
	)
	if cfg.CloudinaryURL != "" {
		cld, err = cloudinary.NewFromURL(cfg.CloudinaryURL)
	} else {
		cld, err = cloudinary.NewFromParams(cfg.CloudName, cfg.CloudinaryKey, cfg.CloudinarySecret)
	}
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true

	return &CloudinaryUploader{cld: cld}, nil
}

func (u *CloudinaryUploader) Upload(ctx context.Context, file io.Reader, folder string) (string, error) {
	resp, err := u.cld.Upload.Upload(ctx, file, uploader.UploadParams{Folder: folder})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}

	log.Printf("[Upload] stored %s in %s", resp.PublicID, folder)
	return resp.SecureURL, nil
}

// DisabledUploader rejects every upload; used when Cloudinary is not configured.
type DisabledUploader struct{}

func (DisabledUploader) Upload(context.Context, io.Reader, string) (string, error) {
	return "", ErrUploadsDisabled
}

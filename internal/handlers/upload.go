package handlers

import (
	"errors"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"github.com/AbdRaqeeb/fastfood-api/internal/services"
)

func uploadFile(c *fiber.Ctx, uploader services.ImageUploader, header *multipart.FileHeader, folder string) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "unreadable image file")
	}
	defer file.Close()

	url, err := uploader.Upload(c.UserContext(), file, folder)
	if errors.Is(err, services.ErrUploadsDisabled) {
		return "", fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
	return url, err
}

// uploadFiles uploads every file under the multipart field, if the request is multipart at all.
func uploadFiles(c *fiber.Ctx, uploader services.ImageUploader, field, folder string) ([]string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil
	}

	urls := make([]string, 0, len(form.File[field]))
	for _, header := range form.File[field] {
		url, err := uploadFile(c, uploader, header, folder)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

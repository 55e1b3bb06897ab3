package services

import (
	"fmt"
	"mime/multipart"

	"github.com/storeline/training-tracker-api/utils"
)

// EvidenceService handles progress evidence photos: upload, URL generation,
// and deletion
type EvidenceService interface {
	// UploadPhoto validates and uploads an evidence photo, returns the storage key
	UploadPhoto(fileHeader *multipart.FileHeader) (string, error)

	// GetPhotoURL generates a URL for accessing an uploaded photo
	GetPhotoURL(photoKey string) (string, error)

	// DeletePhoto removes a photo from storage
	DeletePhoto(photoKey string) error
}

// S3EvidenceService implements EvidenceService using AWS S3 for storage
type S3EvidenceService struct {
	s3Service S3Interface
}

var evidenceServiceInstance EvidenceService

// InitEvidenceService initializes the evidence service with S3 backend
func InitEvidenceService(s3Service S3Interface) EvidenceService {
	evidenceServiceInstance = &S3EvidenceService{
		s3Service: s3Service,
	}
	return evidenceServiceInstance
}

// GetEvidenceService returns the initialized evidence service instance
func GetEvidenceService() EvidenceService {
	return evidenceServiceInstance
}

// SetEvidenceService sets the evidence service instance (primarily for testing)
func SetEvidenceService(service EvidenceService) {
	evidenceServiceInstance = service
}

// UploadPhoto validates and uploads an evidence photo to S3
func (s *S3EvidenceService) UploadPhoto(fileHeader *multipart.FileHeader) (string, error) {
	// Validate the photo file
	if err := utils.ValidatePhotoFile(fileHeader); err != nil {
		return "", err
	}

	// Upload to S3
	s3Key, err := s.s3Service.UploadFile(fileHeader)
	if err != nil {
		return "", fmt.Errorf("failed to upload photo: %w", err)
	}

	return s3Key, nil
}

// GetPhotoURL generates a presigned URL for accessing a photo
func (s *S3EvidenceService) GetPhotoURL(photoKey string) (string, error) {
	if photoKey == "" {
		return "", nil
	}

	url, err := s.s3Service.GetPresignedURL(photoKey)
	if err != nil {
		return "", fmt.Errorf("failed to generate photo URL: %w", err)
	}

	return url, nil
}

// DeletePhoto deletes a photo from S3
func (s *S3EvidenceService) DeletePhoto(photoKey string) error {
	if photoKey == "" {
		return nil
	}

	if err := s.s3Service.DeleteFile(photoKey); err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}

	return nil
}

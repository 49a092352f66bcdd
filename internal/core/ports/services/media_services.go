package services

import "context"

// MediaSvcFacade is the contract with the external media storage collaborator.
type MediaSvcFacade interface {
	// UploadFile uploads the file at localPath and returns its public URL.
	// The local file is removed on both success and failure paths.
	UploadFile(ctx context.Context, localPath string) (string, error)
}

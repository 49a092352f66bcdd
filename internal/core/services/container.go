package services

import (
	portsrepo "github.com/vidstream/vidstream_backend/internal/core/ports/repositories"
	portssvc "github.com/vidstream/vidstream_backend/internal/core/ports/services"
	"github.com/vidstream/vidstream_backend/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
func NewServiceContainer(cfg *config.Config, repos *portsrepo.RepositoryProvider, media portssvc.MediaSvcFacade) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.User = NewUserService(repos.UserRepo)
	container.Token = NewTokenService(cfg)
	container.Auth = NewAuthService(container.User, container.Token, repos.UserRepo)
	container.Media = media

	return container
}

// Compile-time interface checks.
var (
	_ portssvc.UserSvcFacade  = (*userService)(nil)
	_ portssvc.TokenSvcFacade = (*tokenService)(nil)
	_ portssvc.AuthSvcFacade  = (*authService)(nil)
)

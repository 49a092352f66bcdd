package services

// ServiceContainer bundles all service facades for injection into handlers.
type ServiceContainer struct {
	User  UserSvcFacade
	Token TokenSvcFacade
	Auth  AuthSvcFacade
	Media MediaSvcFacade
}

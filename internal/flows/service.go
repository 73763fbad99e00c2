package flows

import (
	"context"

	"github.com/MrEthical07/goSession/credstore"
)

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Validate.FetchProfile != nil
}

func (s Service) Validate(ctx context.Context, force bool) ValidateResult {
	return RunValidate(ctx, force, s.deps.Validate)
}

func (s Service) Login(ctx context.Context, identifier, secret string) (*credstore.UserRecord, error) {
	return RunLogin(ctx, identifier, secret, s.deps.Login)
}

func (s Service) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	return RunRegister(ctx, req, s.deps.Register)
}

func (s Service) Logout(ctx context.Context) {
	RunLogout(ctx, s.deps.Logout)
}

func (s Service) Refresh(ctx context.Context) ValidateResult {
	return RunRefresh(ctx, s.deps.Validate)
}

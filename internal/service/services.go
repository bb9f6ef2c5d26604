package service

import (
	"github.com/dom/bloghub/internal/config"
	"github.com/dom/bloghub/internal/repository"
)

type Services struct {
	Auth        *AuthService
	Post        *PostService
	Interaction *InteractionService
}

// NewServices wires every service over the same repositories. events may be
// nil when nothing listens for live updates.
func NewServices(repos *repository.Repositories, cfg *config.Config, events EventPublisher) *Services {
	if events == nil {
		events = NopPublisher{}
	}
	return &Services{
		Auth:        NewAuthService(repos.User, repos.Session, cfg),
		Post:        NewPostService(repos.Post, events),
		Interaction: NewInteractionService(repos.Post, repos.Like, repos.Comment, events),
	}
}

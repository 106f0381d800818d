package service

import (
	"context"
	"video-consult/repository"
)

// PractitionerRouter picks a practitioner able to receive a join token.
type PractitionerRouter interface {
	Pick(ctx context.Context, department string) (string, error)
}

type practitionerRouter struct {
	repo repository.SessionRepository
}

func NewPractitionerRouter(repo repository.SessionRepository) PractitionerRouter {
	return &practitionerRouter{repo: repo}
}

func (r *practitionerRouter) Pick(ctx context.Context, department string) (string, error) {
	if department == "" {
		return "", nil
	}

	practitioners, err := r.repo.ListActivePractitioners(ctx, department)
	if err != nil {
		return "", err
	}

	// most recently modified first; skip those without a login
	for _, p := range practitioners {
		if p.UserID != "" {
			return p.Name, nil
		}
	}

	return "", nil
}

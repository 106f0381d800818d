package service

import (
	"context"
	"errors"
	"fmt"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
	"sort"
	"strings"
	"video-consult/repository"
)

// DepartmentResolver maps free text to a canonical Medical Department name.
type DepartmentResolver interface {
	Resolve(ctx context.Context, text string) (string, error)
}

type departmentResolver struct {
	repo repository.SessionRepository
}

func NewDepartmentResolver(repo repository.SessionRepository) DepartmentResolver {
	return &departmentResolver{repo: repo}
}

// Resolve returns "" for empty input. Otherwise an exact name wins, then a
// unique prefix match. Prefix matching runs in memory on NFC-normalised
// strings so emoji and other multi-byte names compare byte for byte.
func (r *departmentResolver) Resolve(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}

	department, err := r.repo.FindDepartment(ctx, text)
	if err == nil {
		return department.Name, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	names, err := r.repo.ListDepartmentNames(ctx)
	if err != nil {
		return "", err
	}

	want := norm.NFC.String(text)
	var matches []string
	for _, name := range names {
		candidate := norm.NFC.String(name)
		if candidate == want {
			return name, nil
		}
		if strings.HasPrefix(candidate, want) {
			matches = append(matches, name)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %q", ErrDepartmentNotFound, text)
	case 1:
		return matches[0], nil
	default:
		sort.Strings(matches)
		return "", fmt.Errorf("%w: %q matches %s", ErrDepartmentAmbiguous, text, strings.Join(matches, ", "))
	}
}

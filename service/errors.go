package service

import (
	"errors"
	"fmt"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("not found")
	ErrExpiredWindow    = errors.New("outside the session access window")
	ErrRemoteProvider   = errors.New("video provider error")
)

var (
	ErrLoginRequired       = fmt.Errorf("%w: login required", ErrPermissionDenied)
	ErrDepartmentNotFound  = fmt.Errorf("%w: department not found", ErrValidation)
	ErrDepartmentAmbiguous = fmt.Errorf("%w: department is ambiguous", ErrValidation)
	ErrInvalidRating       = fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
)

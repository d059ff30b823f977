package service

import "errors"

var (
	ErrFeatureNotFound  = errors.New("feature not found")
	ErrOlimpiadNotFound = errors.New("olimpiad not found")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrStoreUnhealthy   = errors.New("store unhealthy")
)

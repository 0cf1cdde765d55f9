package service

import "errors"

var (
	ErrJobNotFound       = errors.New("job not found")
	ErrJobExists         = errors.New("job already registered")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrSceneOutputSet    = errors.New("scene output already set")
	ErrSceneNotFound     = errors.New("scene not found")

	ErrUnknownBlockType = errors.New("unknown block type")
	ErrEmptyBlock       = errors.New("composite block has no children")
	ErrEmptyContent     = errors.New("content produced no scenes")

	// ErrBlockIndex is returned by sequence commands pointing outside the
	// document or at a block of the wrong type.
	ErrBlockIndex     = errors.New("invalid block index")
	ErrUnknownCommand = errors.New("unknown sequence command")
)

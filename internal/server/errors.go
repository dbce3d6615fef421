package server

import "errors"

// Sentinel errors crossing the store/lifecycle boundary. Handlers translate
// these to HTTP statuses; anything unrecognized becomes a 500.
var (
	errDuplicateUsername = errors.New("username already exists")
	errUserNotFound      = errors.New("user not found")
	errUnauthenticated   = errors.New("unauthenticated")
	errInvalidFileType   = errors.New("file type not allowed")
	errImageNotFound     = errors.New("image not found")
	errStorageWrite      = errors.New("storage write failed")
)

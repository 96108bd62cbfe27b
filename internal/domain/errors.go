package domain

import "errors"

var (
	ErrMissingIdentifier = errors.New("missing peerID or roomID")
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomClosed        = errors.New("room is closed")
)

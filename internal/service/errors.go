package service

import (
	"errors"

	"github.com/chatroom/presence-api/internal/domain"
	"github.com/chatroom/presence-api/internal/repository"
)

var (
	ErrParticipantExists   = repository.ErrParticipantExists
	ErrParticipantNotFound = repository.ErrParticipantNotFound
	ErrInvalidLimit        = domain.ErrInvalidLimit
	ErrUnknownParticipant  = errors.New("participant is not registered")
)

package client

import (
	"errors"

	"github.com/dmitrijs2005/profilesync/internal/common"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidCode  = common.ErrInvalidCode
	ErrTransport    = errors.New("transport error")
)

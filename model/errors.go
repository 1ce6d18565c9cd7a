package model

import "errors"

// ErrUnknownRelationship is returned when a relationship name is not declared.
var ErrUnknownRelationship = errors.New("unknown relationship")

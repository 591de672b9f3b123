package domain

import "github.com/smallbiznis/rendezvous/internal/apperror"

var (
	ErrActorRequired       = apperror.NewValidation("actor_id", "actor is required")
	ErrUseDedicatedCommand = apperror.NewValidation("next_status", "resolve and escalate have their own commands")
)

package infra

import (
	"sunrise-finder/admission/domain"

	"github.com/google/uuid"
)

// NewToken gera um token único e ordenável no tempo (UUIDv7).
func NewToken() domain.Token {
	return domain.Token(uuid.Must(uuid.NewV7()).String())
}

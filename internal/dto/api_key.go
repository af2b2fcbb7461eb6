package dto

import (
	"time"

	"github.com/flamekit/flame-api/internal/models"
)

// APIKeyDTO represents an API key in list responses. Only the masked form of
// the key is ever returned here.
type APIKeyDTO struct {
	ID         uint64            `json:"id"`
	Name       string            `json:"name"`
	Mode       models.APIKeyMode `json:"mode"`
	MaskedKey  string            `json:"masked_key"`
	LastUsedAt *time.Time        `json:"last_used_at"`
	CreatedAt  time.Time         `json:"created_at"`
}

// APIKeyCreatedDTO is the create response: the one and only time the raw key
// is returned.
type APIKeyCreatedDTO struct {
	APIKeyDTO
	Key string `json:"key"`
}

// ToAPIKeyDTO converts an APIKey model to APIKeyDTO
func ToAPIKeyDTO(key models.APIKey) APIKeyDTO {
	return APIKeyDTO{
		ID:         key.ID,
		Name:       key.Name,
		Mode:       key.Mode,
		MaskedKey:  key.MaskedKey(),
		LastUsedAt: key.LastUsedAt,
		CreatedAt:  key.CreatedAt,
	}
}

// ToAPIKeyCreatedDTO converts a freshly created key plus its raw secret
func ToAPIKeyCreatedDTO(key models.APIKey, rawKey string) APIKeyCreatedDTO {
	return APIKeyCreatedDTO{
		APIKeyDTO: ToAPIKeyDTO(key),
		Key:       rawKey,
	}
}

package application

import (
	"context"

	"sunrise-finder/admission/domain"
)

// PaceService espaça chamadas por chave (ex: host) usando um LimiterStore.
// Sem Store, não espaça nada.
type PaceService struct {
	Store domain.LimiterStore
}

func (p PaceService) Wait(ctx context.Context, key domain.Key) error {
	if p.Store == nil {
		return nil
	}
	lim := p.Store.Get(key)
	if lim == nil {
		return nil
	}
	return lim.Wait(ctx)
}

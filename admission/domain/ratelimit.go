package domain

import "context"

type Key string

// Limiter espaça chamadas no tempo (token bucket).
// A camada de infra usa golang.org/x/time/rate.
type Limiter interface {
	Wait(ctx context.Context) error
}

// LimiterStore obtém um limiter por chave (ex: host de destino).
type LimiterStore interface {
	Get(Key) Limiter
}

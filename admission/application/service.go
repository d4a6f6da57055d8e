package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"sunrise-finder/admission/domain"
)

// Service concentra a regra de aquisição/liberação de permissões,
// sem saber nada sobre HTTP.
//
// Stats é opcional e tratado como best-effort.
type Service struct {
	Gate  domain.Gate
	Stats domain.StatsStore
	Name  string
	// AcquireTimeout > 0 limita a espera na fila. 0 espera até ctx encerrar.
	AcquireTimeout time.Duration
}

// Acquire obtém uma permissão e retorna a função que a devolve.
//
// A função retornada pode ser chamada mais de uma vez; só a primeira libera.
// O erro passado a ela apenas classifica o evento (released/failed).
func (s Service) Acquire(ctx context.Context) (func(error), error) {
	if s.Gate == nil {
		return func(error) {}, nil
	}

	acqCtx := ctx
	if s.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		acqCtx, cancel = context.WithTimeout(ctx, s.AcquireTimeout)
		defer cancel()
	}

	start := time.Now()
	tok, err := s.Gate.Acquire(acqCtx)
	if err != nil {
		s.record(ctx, domain.StatsEvent{Kind: domain.EventAbandoned, Waited: time.Since(start)})
		return nil, err
	}
	s.record(ctx, domain.StatsEvent{Kind: domain.EventAdmitted, Token: tok, Waited: time.Since(start)})

	var once sync.Once
	return func(workErr error) {
		once.Do(func() {
			s.Gate.Release(tok)
			kind := domain.EventReleased
			if workErr != nil {
				kind = domain.EventFailed
			}
			s.record(context.WithoutCancel(ctx), domain.StatsEvent{Kind: kind, Token: tok})
		})
	}, nil
}

// Do roda fn com uma permissão adquirida e a devolve ao final, mesmo que fn
// retorne erro ou entre em panic.
func (s Service) Do(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	release, err := s.Acquire(ctx)
	if err != nil {
		return err
	}

	completed := false
	defer func() {
		if !completed && err == nil {
			// panic em andamento: libera como falha e deixa propagar.
			release(errPanicked)
			return
		}
		release(err)
	}()

	err = fn(ctx)
	completed = true
	return err
}

var errPanicked = errors.New("admission: work panicked")

func (s Service) record(ctx context.Context, ev domain.StatsEvent) {
	if s.Stats == nil {
		return
	}
	ev.Name = s.Name
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	_ = s.Stats.Record(ctx, ev)
}

package infra

import (
	"context"
	"sync"
	"time"

	"sunrise-finder/admission/domain"
)

type Counters struct {
	Admitted  int64
	Released  int64
	Failed    int64
	Abandoned int64

	// Waited é a soma do tempo de espera na fila dos eventos admitted.
	Waited time.Duration
}

func (c *Counters) add(ev domain.StatsEvent) {
	switch ev.Kind {
	case domain.EventAdmitted:
		c.Admitted++
		c.Waited += ev.Waited
	case domain.EventReleased:
		c.Released++
	case domain.EventFailed:
		c.Failed++
	case domain.EventAbandoned:
		c.Abandoned++
	}
}

// MemoryStatsStore é uma implementação simples em memória.
// Útil para testes e para o resumo impresso pela CLI.
type MemoryStatsStore struct {
	mu     sync.Mutex
	total  Counters
	byName map[string]Counters
}

func NewMemoryStatsStore() *MemoryStatsStore {
	return &MemoryStatsStore{byName: make(map[string]Counters)}
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.add(ev)
	c := s.byName[ev.Name]
	c.add(ev)
	s.byName[ev.Name] = c
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) ByName() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byName))
	for k, v := range s.byName {
		out[k] = v
	}
	return out
}

// MultiStatsStore repassa cada evento para todos os stores, retornando o primeiro erro.
type MultiStatsStore []domain.StatsStore

func (m MultiStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	var first error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}

package domain

import (
	"context"
	"time"
)

type EventKind string

const (
	// EventAdmitted: permissão concedida (imediata ou após espera na fila).
	EventAdmitted EventKind = "admitted"
	// EventReleased: trabalho terminou sem erro e a permissão foi devolvida.
	EventReleased EventKind = "released"
	// EventFailed: trabalho terminou com erro; a permissão também foi devolvida.
	EventFailed EventKind = "failed"
	// EventAbandoned: o chamador desistiu (ctx) antes de ser admitido.
	EventAbandoned EventKind = "abandoned"
)

// StatsEvent representa um evento do ciclo de vida de uma permissão.
//
// Name identifica a operação protegida (ex: "sunrise.getTimes").
// Waited é o tempo entre o pedido e a admissão; só faz sentido em EventAdmitted.
type StatsEvent struct {
	Name   string
	Kind   EventKind
	Token  Token
	Waited time.Duration

	At time.Time
}

// StatsStore é a estratégia de persistência das estatísticas de admissão.
//
// Implementações podem armazenar em Redis, memória, etc.
// Quem chama trata erro como best-effort (não derruba a operação).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}

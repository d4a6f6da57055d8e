package domain

import "context"

// Token identifica uma permissão emitida por um Gate.
//
// É opaco para quem chama: serve apenas para devolver a permissão com Release.
type Token string

// Gate representa um recurso com capacidade finita de operações em andamento.
//
// Acquire bloqueia enquanto o gate estiver fechado e retorna o token quando a
// permissão for concedida. Com um ctx que nunca encerra, Acquire nunca falha.
// Release deve ser chamado exatamente uma vez por token; tokens desconhecidos
// são ignorados.
type Gate interface {
	Acquire(ctx context.Context) (Token, error)
	Release(Token)
}

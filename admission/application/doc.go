// Package application contém os casos de uso em torno do controle de admissão:
// adquirir/liberar permissões com liberação garantida e espaçamento de chamadas.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Do(ctx, fn) adquire uma vaga, roda fn e devolve a vaga em
// qualquer caminho de saída (erro, panic, sucesso).
package application

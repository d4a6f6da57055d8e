// Package admission fornece adapters HTTP (net/http) para o controle de admissão.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos (Gate, Token, StatsStore), sem net/http
//   - application: casos de uso (acquire/release garantido, espaçamento) sem net/http
//   - infra: implementações concretas (Controller com pausa por lote, token bucket, stats)
//   - admission (este pacote): RoundTripper para chamadas de saída e middleware de entrada
//
// Fluxo numa chamada de saída:
//
//  1. Espera o token bucket do host (se configurado)
//  2. Adquire uma permissão no Gate (pode esperar na fila)
//  3. Executa a requisição
//  4. Devolve a permissão quando o corpo da resposta é fechado (ou na hora, se falhar)
package admission

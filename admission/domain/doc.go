// Package domain define os contratos e tipos do controle de admissão.
//
// Este pacote não depende de net/http nem de implementações concretas.
// Ele existe para que os coletores (clientes HTTP, CLI, testes) conheçam
// apenas Gate/Token e nunca a máquina de estados em si.
package domain

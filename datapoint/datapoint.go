// Package datapoint gera coordenadas aleatórias e as enriquece com os horários
// de nascer/pôr do sol.
package datapoint

import (
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Point é um ponto gerado. Sunrise/Sunset/DayLength ficam zerados até Enhance
// preenchê-los; Enhanced diz se a consulta deu certo.
type Point struct {
	LatLng    LatLng    `json:"latLng"`
	Sunrise   time.Time `json:"sunrise,omitempty"`
	Sunset    time.Time `json:"sunset,omitempty"`
	DayLength int64     `json:"dayLength,omitempty"`
	Enhanced  bool      `json:"enhanced"`
}

// RandomLatLng sorteia uma coordenada em qualquer lugar do mundo:
// lat em [-90, 90), lng em [-180, 180).
func RandomLatLng(src rand.Source) LatLng {
	lat := distuv.Uniform{Min: -90, Max: 90, Src: src}
	lng := distuv.Uniform{Min: -180, Max: 180, Src: src}
	return LatLng{Lat: lat.Rand(), Lng: lng.Rand()}
}

// Generate cria n pontos sem metadados. src nil usa a fonte global.
func Generate(n int, src rand.Source) []Point {
	if n <= 0 {
		return nil
	}
	points := make([]Point, n)
	for i := range points {
		points[i].LatLng = RandomLatLng(src)
	}
	return points
}

package datapoint

import (
	"context"
	"io"

	"sunrise-finder/sunrise"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"
	"go.uber.org/atomic"
)

// Fetcher busca os horários de uma coordenada. *sunrise.Client implementa.
type Fetcher interface {
	GetTimes(ctx context.Context, args sunrise.Args) (sunrise.Result, error)
}

// Enhancer dispara uma consulta por ponto, todas ao mesmo tempo; quem limita a
// concorrência real é o controle de admissão dentro do Fetcher.
type Enhancer struct {
	Fetcher Fetcher
	// Date (YYYY-MM-DD) é a mesma para todos os pontos, para que os horários
	// sejam comparáveis.
	Date string
	Log  logrus.FieldLogger
	// OnProgress é chamado após cada ponto concluído (com ou sem sucesso).
	OnProgress func(done, total int)
}

// Enhance retorna uma cópia de points com os horários preenchidos.
//
// Falhas são logadas e o ponto segue sem metadados (Enhanced=false): um ponto
// ruim não derruba os demais.
func (e Enhancer) Enhance(ctx context.Context, points []Point) []Point {
	log := e.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	out := make([]Point, len(points))
	copy(out, points)

	total := len(points)
	done := atomic.NewInt64(0)

	var wg conc.WaitGroup
	for i := range out {
		p := &out[i]
		wg.Go(func() {
			defer func() {
				n := done.Inc()
				if e.OnProgress != nil {
					e.OnProgress(int(n), total)
				}
			}()

			res, err := e.Fetcher.GetTimes(ctx, sunrise.Args{
				Lat:  p.LatLng.Lat,
				Lng:  p.LatLng.Lng,
				Date: e.Date,
			})
			if err != nil {
				log.Warnf("skipping data point (%.4f, %.4f): %v", p.LatLng.Lat, p.LatLng.Lng, err)
				return
			}

			p.Sunrise = res.Sunrise
			p.Sunset = res.Sunset
			p.DayLength = res.DayLength
			p.Enhanced = true
		})
	}
	wg.Wait()

	return out
}

// Earliest retorna o ponto com o nascer do sol mais cedo (no tempo absoluto,
// não na hora do dia). Pontos sem horário são ignorados; ok=false se nenhum
// ponto tiver horário.
func Earliest(points []Point) (Point, bool) {
	var (
		best  Point
		found bool
	)
	for _, p := range points {
		if !p.Enhanced || p.Sunrise.IsZero() {
			continue
		}
		if !found || p.Sunrise.Before(best.Sunrise) {
			best = p
			found = true
		}
	}
	return best, found
}

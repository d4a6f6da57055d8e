package admission

import (
	"net/http"
	"strconv"
	"time"

	"sunrise-finder/admission/application"
	"sunrise-finder/admission/domain"
)

type MiddlewareOptions struct {
	Gate           domain.Gate
	Stats          domain.StatsStore
	Name           string
	RejectStatus   int
	AcquireTimeout time.Duration
	// RetryAfter, se > 0, vai no header Retry-After das respostas rejeitadas.
	RetryAfter time.Duration
}

// Middleware protege um handler de entrada com o mesmo Gate usado nas saídas.
//
// Sem AcquireTimeout a requisição espera na fila até ser admitida ou o cliente
// desistir; com timeout, responde RejectStatus (503 por padrão).
func Middleware(opts MiddlewareOptions) func(next http.Handler) http.Handler {
	if opts.Gate == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}

	svc := application.Service{
		Gate:           opts.Gate,
		Stats:          opts.Stats,
		Name:           opts.Name,
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, err := svc.Acquire(r.Context())
			if err != nil {
				if opts.RetryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(opts.RetryAfter.Seconds())))
				}
				http.Error(w, http.StatusText(opts.RejectStatus), opts.RejectStatus)
				return
			}
			defer release(nil)

			next.ServeHTTP(w, r)
		})
	}
}

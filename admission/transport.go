package admission

import (
	"io"
	"net/http"
	"strings"
	"sync"

	"sunrise-finder/admission/application"
	"sunrise-finder/admission/domain"
)

type KeyFunc func(r *http.Request) domain.Key

// HostKey usa o host de destino (sem porta) como chave de espaçamento.
func HostKey(r *http.Request) domain.Key {
	if r.URL != nil {
		if h := r.URL.Hostname(); h != "" {
			return domain.Key(strings.ToLower(h))
		}
	}
	if r.Host != "" {
		return domain.Key(strings.ToLower(r.Host))
	}
	return "unknown"
}

type TransportOptions struct {
	Base    http.RoundTripper
	Service application.Service
	Pace    application.PaceService
	KeyFn   KeyFunc
}

type transport struct {
	base  http.RoundTripper
	svc   application.Service
	pace  application.PaceService
	keyFn KeyFunc
}

// NewTransport cria um RoundTripper que só deixa sair requisições com permissão.
//
// A permissão fica presa até o corpo da resposta ser fechado: quem chama deve
// sempre fechar resp.Body, como já é exigido por net/http.
func NewTransport(opts TransportOptions) http.RoundTripper {
	if opts.Base == nil {
		opts.Base = http.DefaultTransport
	}
	if opts.KeyFn == nil {
		opts.KeyFn = HostKey
	}
	return &transport{
		base:  opts.Base,
		svc:   opts.Service,
		pace:  opts.Pace,
		keyFn: opts.KeyFn,
	}
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	if err := t.pace.Wait(ctx, t.keyFn(req)); err != nil {
		return nil, err
	}

	release, err := t.svc.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		release(err)
		return nil, err
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		release(nil)
		return resp, nil
	}

	resp.Body = &releasingBody{ReadCloser: resp.Body, release: release}
	return resp, nil
}

// releasingBody devolve a permissão no primeiro Close.
type releasingBody struct {
	io.ReadCloser
	once    sync.Once
	release func(error)
}

func (b *releasingBody) Close() error {
	err := b.ReadCloser.Close()
	b.once.Do(func() { b.release(nil) })
	return err
}

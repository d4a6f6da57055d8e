// Package sunrise é o cliente da API pública Sunrise/Sunset
// (https://sunrise-sunset.org/api).
//
// Cada chamada passa pelo controle de admissão: o cliente nunca tem mais do que
// o limite configurado de requisições em andamento.
package sunrise

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"sunrise-finder/admission/application"

	"github.com/tidwall/gjson"
)

const DefaultBaseURL = "https://api.sunrise-sunset.org/json"

// ErrRequestFailed indica falha de transporte ou resposta ilegível.
var ErrRequestFailed = errors.New("sunrise: request failed")

// StatusError é retornado quando a API responde com status diferente de OK
// (INVALID_REQUEST, INVALID_DATE, UNKNOWN_ERROR...).
type StatusError struct {
	Status string
}

func (e *StatusError) Error() string {
	return "sunrise: failed to fetch timings: " + e.Status
}

type Args struct {
	Lat float64
	Lng float64
	// Date no formato YYYY-MM-DD. Vazio = hoje, segundo a API.
	Date string
}

type Result struct {
	Sunrise   time.Time
	Sunset    time.Time
	DayLength int64 // segundos
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
	// Admission protege cada requisição. Service zero (sem Gate) não limita nada.
	Admission application.Service
}

func (c *Client) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return DefaultBaseURL
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

// URLFor monta a URL da consulta. formatted=0 faz a API devolver datas ISO 8601.
func (c *Client) URLFor(args Args) (*url.URL, error) {
	u, err := url.Parse(c.baseURL())
	if err != nil {
		return nil, fmt.Errorf("sunrise: invalid base url: %w", err)
	}

	q := u.Query()
	q.Set("lat", strconv.FormatFloat(args.Lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(args.Lng, 'f', -1, 64))
	if args.Date != "" {
		q.Set("date", args.Date)
	}
	q.Set("formatted", "0")
	u.RawQuery = q.Encode()
	return u, nil
}

// GetTimes busca nascer/pôr do sol para uma coordenada.
func (c *Client) GetTimes(ctx context.Context, args Args) (Result, error) {
	u, err := c.URLFor(args)
	if err != nil {
		return Result{}, err
	}

	var body []byte
	err = c.Admission.Do(ctx, func(ctx context.Context) error {
		var ferr error
		body, ferr = c.fetch(ctx, u.String())
		return ferr
	})
	if err != nil {
		return Result{}, err
	}

	return Parse(body)
}

func (c *Client) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	return body, nil
}

// Parse interpreta o corpo JSON da API.
//
// A API responde 400 com corpo JSON válido para INVALID_REQUEST, então o
// status HTTP não é olhado: vale o campo "status".
func Parse(body []byte) (Result, error) {
	if !gjson.ValidBytes(body) {
		return Result{}, fmt.Errorf("%w: invalid json body", ErrRequestFailed)
	}

	doc := gjson.ParseBytes(body)
	status := doc.Get("status").String()
	if status != "OK" {
		if status == "" {
			status = "MISSING_STATUS"
		}
		return Result{}, &StatusError{Status: status}
	}

	res := doc.Get("results")
	sunrise, err := time.Parse(time.RFC3339, res.Get("sunrise").String())
	if err != nil {
		return Result{}, fmt.Errorf("%w: sunrise: %v", ErrRequestFailed, err)
	}
	sunset, err := time.Parse(time.RFC3339, res.Get("sunset").String())
	if err != nil {
		return Result{}, fmt.Errorf("%w: sunset: %v", ErrRequestFailed, err)
	}

	return Result{
		Sunrise:   sunrise,
		Sunset:    sunset,
		DayLength: res.Get("day_length").Int(),
	}, nil
}

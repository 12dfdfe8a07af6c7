// Package orchestrator wraps a single logical API mutation with token
// refresh, a bounded retry on authentication failure, error
// classification, and result callbacks.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"sim-sync/internal/apierror"
	"sim-sync/internal/transport"
)

const defaultMaxAuthRetries = 1

// Intent names a logical operation, e.g. {"shopping_lists", "post"}.
type Intent struct {
	Resource string
	Method   string
}

func (i Intent) String() string {
	return i.Resource + ":" + i.Method
}

// Call performs one transport round trip with the given bearer token.
type Call func(ctx context.Context, token string) (*transport.Response, error)

// Credentials supplies bearer tokens. RefreshToken may block until the
// identity provider answers; it fails once the session is gone.
type Credentials interface {
	CurrentToken() string
	RefreshToken(ctx context.Context) (string, error)
	SignOut()
}

// Callbacks receive the single terminal outcome of Perform.
type Callbacks struct {
	OnSuccess func(body []byte)
	OnError   func(err *apierror.Error)
}

type Orchestrator struct {
	creds          Credentials
	maxAuthRetries int
	metrics        MetricsRecorder
	logger         zerolog.Logger

	mu      sync.Mutex
	pending map[Intent]int
}

type Option func(*Orchestrator)

// WithDefaultAuthRetries sets the retry budget used when Perform is not
// given WithMaxAuthRetries.
func WithDefaultAuthRetries(n int) Option {
	return func(o *Orchestrator) {
		if n >= 0 {
			o.maxAuthRetries = n
		}
	}
}

func WithMetrics(m MetricsRecorder) Option {
	return func(o *Orchestrator) {
		if m != nil {
			o.metrics = m
		}
	}
}

func New(creds Credentials, logger zerolog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		creds:          creds,
		maxAuthRetries: defaultMaxAuthRetries,
		metrics:        noopRecorder{},
		logger:         logger.With().Str("component", "orchestrator").Logger(),
		pending:        make(map[Intent]int),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type performConfig struct {
	maxAuthRetries int
}

type PerformOption func(*performConfig)

// WithMaxAuthRetries bounds how many times an Unauthorized response leads
// to a token refresh and another attempt.
func WithMaxAuthRetries(n int) PerformOption {
	return func(c *performConfig) {
		if n >= 0 {
			c.maxAuthRetries = n
		}
	}
}

// Perform runs call until it reaches a terminal outcome and then invokes
// exactly one of cb.OnSuccess or cb.OnError. An Unauthorized response is
// retried with a refreshed token at most maxAuthRetries times; once the
// budget is spent, or no token can be obtained, the session is signed out
// and the Unauthorized error is reported. Every other error is reported
// without retrying.
func (o *Orchestrator) Perform(ctx context.Context, intent Intent, call Call, cb Callbacks, opts ...PerformOption) {
	cfg := performConfig{maxAuthRetries: o.maxAuthRetries}
	for _, opt := range opts {
		opt(&cfg)
	}

	requestID := uuid.New().String()
	ctx = transport.WithRequestID(ctx, requestID)
	log := o.logger.With().Str("intent", intent.String()).Str("request_id", requestID).Logger()

	o.track(intent, 1)
	defer o.track(intent, -1)

	start := time.Now()
	body, attempts, apiErr := o.run(ctx, call, cfg.maxAuthRetries, log)
	elapsed := time.Since(start)

	if apiErr != nil {
		o.metrics.Observe(ctx, intent, apiErr.Kind.String(), attempts, elapsed)
		log.Warn().Err(apiErr).Int("attempts", attempts).Dur("duration", elapsed).Msg("request failed")
		if cb.OnError == nil {
			log.Error().Msg("no error callback supplied")
			return
		}
		cb.OnError(apiErr)
		return
	}

	o.metrics.Observe(ctx, intent, "success", attempts, elapsed)
	log.Debug().Int("attempts", attempts).Dur("duration", elapsed).Msg("request succeeded")
	if cb.OnSuccess != nil {
		cb.OnSuccess(body)
	}
}

func (o *Orchestrator) run(ctx context.Context, call Call, retries int, log zerolog.Logger) ([]byte, int, *apierror.Error) {
	token := o.creds.CurrentToken()
	attempts := 0

	for {
		var apiErr *apierror.Error

		if token == "" {
			apiErr = &apierror.Error{Kind: apierror.Unauthorized, Err: fmt.Errorf("no token available")}
		} else {
			attempts++
			resp, err := call(ctx, token)
			switch {
			case err != nil:
				apiErr = apierror.Transport(err)
			case resp.OK():
				return resp.Body, attempts, nil
			default:
				apiErr = apierror.Classify(resp.StatusCode, resp.Body)
			}
		}

		if apiErr.Kind != apierror.Unauthorized {
			return nil, attempts, apiErr
		}

		if retries <= 0 {
			log.Info().Int("attempts", attempts).Msg("auth retries exhausted, signing out")
			o.creds.SignOut()
			return nil, attempts, apiErr
		}
		retries--

		log.Debug().Int("attempts", attempts).Msg("refreshing token")
		newToken, err := o.creds.RefreshToken(ctx)
		if ctxErr := ctx.Err(); ctxErr != nil {
			log.Debug().Err(ctxErr).Msg("request abandoned during token refresh")
			return nil, attempts, &apierror.Error{Kind: apierror.Unauthorized, StatusCode: apiErr.StatusCode, Err: ctxErr}
		}
		if err != nil || newToken == "" {
			if err == nil {
				err = fmt.Errorf("identity provider returned an empty token")
			}
			log.Info().Err(err).Msg("token refresh failed, signing out")
			o.creds.SignOut()
			return nil, attempts, &apierror.Error{Kind: apierror.Unauthorized, StatusCode: apiErr.StatusCode, Err: err}
		}
		token = newToken
	}
}

func (o *Orchestrator) track(intent Intent, delta int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.pending[intent] += delta
	if o.pending[intent] <= 0 {
		delete(o.pending, intent)
	}
}

// Pending returns how many calls for intent are in flight.
func (o *Orchestrator) Pending(intent Intent) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pending[intent]
}

// Busy reports whether any call is in flight.
func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending) > 0
}

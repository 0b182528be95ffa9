package http

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
)

// Action handles one API request in API Gateway proxy form. A returned error
// means the request failed upstream; validation problems are reported in the
// response instead.
type Action func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// action wraps fn with the request timeout and turns any returned error or
// panic into a logged 500 response.
func (s *Server) action(name string, fn Action) Action {
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (resp events.APIGatewayProxyResponse, err error) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("action panicked", "action", name, "panic", r)
				resp, err = serverError(fmt.Sprint(r)), nil
			}
		}()

		if s.cfg.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
			defer cancel()
		}

		resp, err = fn(ctx, req)
		if err != nil {
			s.logger.Error("action failed", "action", name, "error", err)
			return serverError(err.Error()), nil
		}
		return resp, nil
	}
}

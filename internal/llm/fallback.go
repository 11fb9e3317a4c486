package llm

import (
	"context"

	"github.com/miz-art/Micro-narrativesxHarms-June25/pkg/logging"
)

// FallbackClient sends a request to the primary provider and, if that fails,
// once to the fallback provider. It is a provider choice, not a retry loop.
type FallbackClient struct {
	primary  Client
	fallback Client
	logger   *logging.Logger
}

// NewFallbackClient returns primary unchanged when fallback is nil.
func NewFallbackClient(primary, fallback Client, logger *logging.Logger) Client {
	if primary == nil {
		panic("llm: primary client cannot be nil")
	}
	if fallback == nil {
		return primary
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackClient{primary: primary, fallback: fallback, logger: logger}
}

func (c *FallbackClient) Complete(ctx context.Context, req Request) (Response, error) {
	resp, err := c.primary.Complete(ctx, req)
	if err == nil {
		return resp, nil
	}
	if ctx.Err() != nil {
		return Response{}, err
	}

	c.logger.Warn("primary llm failed, attempting fallback", "operation", req.Operation, "error", err)
	fallbackResp, fallbackErr := c.fallback.Complete(ctx, req)
	if fallbackErr != nil {
		c.logger.Error("fallback llm also failed",
			"operation", req.Operation,
			"primary_error", err.Error(),
			"fallback_error", fallbackErr.Error(),
		)
		return Response{}, fallbackErr
	}
	return fallbackResp, nil
}

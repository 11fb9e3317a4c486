package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticClient(text string, err error, calls *int) Client {
	return ClientFunc(func(context.Context, Request) (Response, error) {
		*calls++
		if err != nil {
			return Response{}, err
		}
		return Response{Text: text}, nil
	})
}

func TestFallbackClientUsesFallbackOnPrimaryError(t *testing.T) {
	var primaryCalls, fallbackCalls int
	client := NewFallbackClient(
		staticClient("", errors.New("down"), &primaryCalls),
		staticClient("from fallback", nil, &fallbackCalls),
		nil,
	)

	resp, err := client.Complete(context.Background(), Request{Operation: "collect"})
	require.NoError(t, err)
	assert.Equal(t, "from fallback", resp.Text)
	assert.Equal(t, 1, primaryCalls)
	assert.Equal(t, 1, fallbackCalls)
}

func TestFallbackClientSkipsFallbackOnSuccess(t *testing.T) {
	var primaryCalls, fallbackCalls int
	client := NewFallbackClient(
		staticClient("primary", nil, &primaryCalls),
		staticClient("fallback", nil, &fallbackCalls),
		nil,
	)

	resp, err := client.Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "primary", resp.Text)
	assert.Equal(t, 0, fallbackCalls)
}

func TestFallbackClientReturnsFallbackError(t *testing.T) {
	var a, b int
	second := errors.New("also down")
	client := NewFallbackClient(staticClient("", errors.New("down"), &a), staticClient("", second, &b), nil)

	_, err := client.Complete(context.Background(), Request{})
	assert.ErrorIs(t, err, second)
}

func TestNewFallbackClientWithoutFallbackReturnsPrimary(t *testing.T) {
	var calls int
	primary := staticClient("x", nil, &calls)
	client := NewFallbackClient(primary, nil, nil)
	_, isFallback := client.(*FallbackClient)
	assert.False(t, isFallback)
}

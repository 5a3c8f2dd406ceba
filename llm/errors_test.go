package llm

import (
	"errors"
	"testing"
)

func TestErrorFromStatusCode(t *testing.T) {
	cases := []struct {
		status    int
		wantType  string
		retryable bool
	}{
		{400, "invalid_request", false},
		{401, "authentication", false},
		{403, "access_denied", false},
		{404, "not_found", false},
		{408, "timeout", true},
		{413, "context_length", false},
		{422, "invalid_request", false},
		{429, "rate_limit", true},
		{500, "server", true},
		{502, "server", true},
		{503, "server", true},
		{504, "server", true},
		{418, "provider", true},
	}

	for _, c := range cases {
		err := ErrorFromStatusCode(c.status, "test", "ollama")
		if err == nil {
			t.Fatalf("status %d: expected an error", c.status)
		}

		var gotType string
		switch err.(type) {
		case *InvalidRequestError:
			gotType = "invalid_request"
		case *AuthenticationError:
			gotType = "authentication"
		case *AccessDeniedError:
			gotType = "access_denied"
		case *NotFoundError:
			gotType = "not_found"
		case *RequestTimeoutError:
			gotType = "timeout"
		case *ContextLengthError:
			gotType = "context_length"
		case *RateLimitError:
			gotType = "rate_limit"
		case *ServerError:
			gotType = "server"
		case *ProviderError:
			gotType = "provider"
		}
		if gotType != c.wantType {
			t.Errorf("status %d: expected %s error, got %T", c.status, c.wantType, err)
		}
		if IsRetryable(err) != c.retryable {
			t.Errorf("status %d: expected retryable=%v", c.status, c.retryable)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{&NetworkError{ClientError: ClientError{Message: "down"}}, true},
		{&RequestTimeoutError{ClientError: ClientError{Message: "slow"}}, true},
		{&AbortError{ClientError: ClientError{Message: "cancelled"}}, false},
		{&ConfigurationError{ClientError: ClientError{Message: "bad config"}}, false},
		{errors.New("plain"), false},
	}
	for _, c := range cases {
		if got := IsRetryable(c.err); got != c.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}

func TestIsUnreachable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{&NetworkError{ClientError: ClientError{Message: "refused"}}, true},
		{ErrorFromStatusCode(502, "bad gateway", "ollama"), true},
		{ErrorFromStatusCode(429, "slow down", "ollama"), true},
		{ErrorFromStatusCode(400, "bad request", "ollama"), false},
		{&ConfigurationError{ClientError: ClientError{Message: "bad config"}}, false},
		{errors.New("plain"), false},
	}
	for _, c := range cases {
		if got := IsUnreachable(c.err); got != c.want {
			t.Errorf("IsUnreachable(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}

func TestClientErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &NetworkError{ClientError: ClientError{Message: "wrapper", Cause: cause}}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
	if err.Error() != "wrapper: root cause" {
		t.Errorf("unexpected error string: %q", err.Error())
	}
}

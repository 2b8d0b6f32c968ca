package http

import "net/http"

type bearerTransport struct {
	token string
	next  http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.token == "" {
		return t.next.RoundTrip(req)
	}

	// RoundTrippers must not mutate the original request.
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+t.token)

	return t.next.RoundTrip(clone)
}

// WithAuthToken sends the token as a Bearer Authorization header on every
// request. An empty token leaves requests untouched.
func WithAuthToken(token string) ClientOption {
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return &bearerTransport{token: token, next: rt}
	})
}

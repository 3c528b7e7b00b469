package sidechannel

import (
	"net/http"
	"net/url"
	"time"

	"github.com/nroshak/marketcheck/internal/util"
)

func newTestRobots() *util.RobotsChecker {
	return util.NewRobotsChecker("test-agent", time.Second)
}

// rewriteHost redirects every request to the test server regardless of the
// hardcoded API host.
func rewriteHost(target string) http.RoundTripper {
	base, _ := url.Parse(target)
	return roundTripFunc(func(req *http.Request) (*http.Response, error) {
		req = req.Clone(req.Context())
		req.URL.Scheme = base.Scheme
		req.URL.Host = base.Host
		return http.DefaultTransport.RoundTrip(req)
	})
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

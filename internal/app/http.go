package app

import (
	"net"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/valyala/fasthttp"

	"ghostline/pkg/logger"
)

const (
	httpReadBuffer   = 64 << 10
	httpMaxBody      = 1 << 20
	httpReadTimeout  = 10 * time.Second
	httpWriteTimeout = 10 * time.Second
	httpIdleTimeout  = 30 * time.Second
	httpMaxKeepalive = 2 * time.Minute
)

func newServer(h fasthttp.RequestHandler) *fasthttp.Server {
	return &fasthttp.Server{
		Name:                 "ghostline",
		Handler:              h,
		ReadBufferSize:       httpReadBuffer,
		MaxRequestBodySize:   httpMaxBody,
		ReduceMemoryUsage:    true,
		ReadTimeout:          httpReadTimeout,
		WriteTimeout:         httpWriteTimeout,
		IdleTimeout:          httpIdleTimeout,
		MaxKeepaliveDuration: httpMaxKeepalive,
	}
}

// startHTTP binds the listen address before returning so a port clash
// fails Run directly. Serve errors arrive on the channel.
func (a *App) startHTTP() (<-chan error, error) {
	ln, err := net.Listen("tcp4", a.eff.Addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen %s", a.eff.Addr)
	}
	a.srvFast = newServer(a.api.Handler())

	tls := a.eff.Config.Server.TLS
	useTLS := tls.CertFile != "" && tls.KeyFile != ""
	logger.Info("http_listening", "addr", ln.Addr().String(), "tls", useTLS)

	errCh := make(chan error, 1)
	go func() {
		if useTLS {
			errCh <- a.srvFast.ServeTLS(ln, tls.CertFile, tls.KeyFile)
			return
		}
		errCh <- a.srvFast.Serve(ln)
	}()
	return errCh, nil
}

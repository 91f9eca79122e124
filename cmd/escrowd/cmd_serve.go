package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func cmdServe(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Serve prometheus metrics while executing transactions streamed on standard
input. Committed transactions are published to the configured AMQP broker.
Once the input is consumed the metrics endpoint keeps serving until the
process is interrupted.
`)
		fl.PrintDefaults()
	}
	confFl := flConfig(fl)
	fl.Parse(args)

	conf, err := LoadConfig(*confFl)
	if err != nil {
		return err
	}
	n, err := openNode(conf, true)
	if err != nil {
		return err
	}
	defer n.close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              conf.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			n.logger.Error("metrics server", "err", err)
			cancel()
		}
	}()
	n.logger.Info("serving metrics", "addr", conf.MetricsAddr)

	if err := submitAll(ctx, n, input, output, false); err != nil {
		n.logger.Error("transaction failed", "err", err)
	}

	<-ctx.Done()
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	return srv.Shutdown(shutdownCtx)
}

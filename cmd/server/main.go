package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"lead-intake/internal/config"
	"lead-intake/internal/factory"
	"lead-intake/internal/handler"
	"lead-intake/internal/util"
)

const shutdownTimeout = 30 * time.Second

func main() {
	f, err := factory.NewFactory()
	if err != nil {
		util.Fatal("Failed to initialize factory", util.ErrorField(err))
	}
	defer f.Close()

	cfg := f.Config()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	servers := buildServers(f, cfg, setupRouter(f))

	g, gctx := errgroup.WithContext(ctx)

	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			return serve(srv)
		})
	}

	g.Go(func() error {
		return f.RunBackground(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		util.Info("Shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			if err := srv.server.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", srv.name, err))
			}
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		util.Error("Server stopped with error", util.ErrorField(err))
		return
	}
	util.Info("Server shutdown completed")
}

type namedServer struct {
	name   string
	server *http.Server
	tls    bool
}

// setupRouter wires the contact handler into the chi router
func setupRouter(f *factory.Factory) http.Handler {
	cfg := f.Config()
	return handler.NewRouter(f.LeadHandler(), util.Get(), handler.RouterOptions{
		AllowedOrigins: cfg.Origins(),
		RequestTimeout: cfg.Server.WriteTimeout,
		Health:         f.HealthCheck,
	})
}

func buildServers(f *factory.Factory, cfg *config.Config, router http.Handler) []namedServer {
	newServer := func(addr string, h http.Handler) *http.Server {
		return &http.Server{
			Addr:         addr,
			Handler:      h,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		}
	}

	if !cfg.Server.EnableTLS {
		util.Warn("Starting HTTP server - TLS is disabled",
			util.String("environment", cfg.Environment),
			util.Int("port", cfg.Server.Port),
			util.Strings("allowed_origins", cfg.Origins()),
		)
		return []namedServer{{name: "http", server: newServer(cfg.GetServerAddress(), router)}}
	}

	tlsManager := f.TLSManager()

	// production autocert: :80 answers ACME challenges and redirects, :443 serves the API
	if cfg.IsProduction() && cfg.Server.AutoCert {
		acm := tlsManager.GetAutocertManager()
		if acm == nil {
			util.Fatal("AutoCert manager is not available in production")
		}

		httpsServer := newServer(":443", router)
		httpsServer.TLSConfig = tlsManager.GetTLSConfig()

		util.Info("Starting HTTPS server with AutoCert", util.String("domain", cfg.Server.Domain))
		return []namedServer{
			{name: "acme", server: newServer(":80", acm.HTTPHandler(nil))},
			{name: "https", server: httpsServer, tls: true},
		}
	}

	httpsServer := newServer(fmt.Sprintf(":%d", cfg.Server.TLSPort), router)
	httpsServer.TLSConfig = tlsManager.GetTLSConfig()

	util.Info("Starting HTTPS server",
		util.String("environment", cfg.Environment),
		util.Int("port", cfg.Server.TLSPort),
		util.Bool("auto_cert", cfg.Server.AutoCert),
	)
	return []namedServer{{name: "https", server: httpsServer, tls: true}}
}

func serve(s namedServer) error {
	util.Info("Server listening",
		util.String("name", s.name),
		util.String("address", s.server.Addr),
		util.Bool("tls", s.tls),
	)

	var err error
	if s.tls {
		// certificates come from TLSConfig.GetCertificate
		err = s.server.ListenAndServeTLS("", "")
	} else {
		err = s.server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server: %w", s.name, err)
	}
	return nil
}

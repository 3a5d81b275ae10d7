package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Sternrassler/artic-table/internal/config"
	"github.com/Sternrassler/artic-table/pkg/artwork"
	"github.com/Sternrassler/artic-table/pkg/client"
	"github.com/Sternrassler/artic-table/pkg/metrics"
	"github.com/Sternrassler/artic-table/pkg/table"
)

// maxFirstN caps /artworks/first/{n} so one request cannot walk the whole
// catalog.
const maxFirstN = 1000

func newProxyCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Serve catalog pages, health and metrics over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(v, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := rt.client.Ping(ctx); err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              rt.settings.Listen,
				Handler:           newRouter(rt.client, rt.settings.TableConfig()),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().
					Str("addr", srv.Addr).
					Str("base_url", rt.settings.BaseURL).
					Bool("revalidation", rt.redis != nil).
					Msg("Starting catalog proxy")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			log.Info().Msg("Shutting down catalog proxy")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().String("listen", ":8080", "listen address")
	mustBind(v, config.KeyListen, cmd.Flags().Lookup("listen"))
	return cmd
}

// newRouter wires the proxy routes.
func newRouter(c *client.Client, tableCfg table.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", healthHandler)
	r.Get("/ready", readyHandler(c))
	r.Handle("/metrics", metrics.Handler())
	r.Get("/artworks", artworksHandler(c))
	r.Get("/artworks/first/{n}", firstNHandler(c, tableCfg))

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("query", r.URL.RawQuery).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("Handled request")
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func readyHandler(c *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := c.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// artworksHandler serves /artworks?page=N in the catalog's own wire format.
func artworksHandler(c *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := 1
		if raw := r.URL.Query().Get("page"); raw != "" {
			p, err := strconv.Atoi(raw)
			if err != nil || p < 1 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "page must be a positive integer"})
				return
			}
			page = p
		}

		p, err := c.FetchPage(r.Context(), page)
		if err != nil {
			writeUpstreamError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, artwork.ListResponse{Pagination: p.Pagination, Data: p.Records})
	}
}

// firstNResponse is returned by /artworks/first/{n}.
type firstNResponse struct {
	Requested int    `json:"requested"`
	Count     int    `json:"count"`
	IDs       []int  `json:"ids"`
	Pages     int    `json:"pages"`
	Reason    string `json:"reason"`
	Error     string `json:"error,omitempty"`
}

// firstNHandler runs a select-first-N walk on a fresh controller.
func firstNHandler(c *client.Client, tableCfg table.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := strconv.Atoi(chi.URLParam(r, "n"))
		if err != nil || n < 1 || n > maxFirstN {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "n must be an integer between 1 and " + strconv.Itoa(maxFirstN),
			})
			return
		}

		ctrl, err := table.New(c, tableCfg)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}

		result, err := ctrl.CollectFirstN(r.Context(), n)
		resp := firstNResponse{Requested: n, IDs: []int{}}
		if result != nil {
			if result.IDs != nil {
				resp.IDs = result.IDs
			}
			resp.Count = len(result.IDs)
			resp.Pages = result.Pages
			resp.Reason = string(result.Reason)
		}

		status := http.StatusOK
		if err != nil {
			resp.Error = err.Error()
			status = http.StatusBadGateway
		}
		writeJSON(w, status, resp)
	}
}

// writeUpstreamError maps a catalog failure onto a proxy response. Catalog
// 4xx answers pass through; everything else is a bad gateway.
func writeUpstreamError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	var ne *client.NetworkError
	if errors.As(err, &ne) && ne.Class == client.ErrorClassClient && ne.StatusCode != 0 {
		status = ne.StatusCode
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}

package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bwise1/roadwatch/config"
	deps "github.com/bwise1/roadwatch/internal/debs"
	"github.com/bwise1/roadwatch/util/values"
	"github.com/go-chi/chi/v5"
)

const (
	defaultIdleTimeout    = time.Minute
	defaultReadTimeout    = 5 * time.Second
	defaultWriteTimeout   = 30 * time.Second
	defaultShutdownPeriod = 30 * time.Second
)

type Handler func(w http.ResponseWriter, r *http.Request) *ServerResponse

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := h(w, r)
	respByte, err := json.Marshal(resp)
	if err != nil {
		writeErrorResponse(w, err, values.Error, "unable to marshal server response")
		return
	}
	writeJSONResponse(w, respByte, resp.StatusCode)
}

type API struct {
	Server *http.Server
	Config *config.Config
	Deps   *deps.Dependencies
}

// Init wires websocket input and snapshots to the sessions.
func (api *API) Init() {
	api.Deps.WebSocket.OnConnect = api.socketSnapshot
	api.Deps.WebSocket.OnMessage = api.socketMessage
}

func (api *API) Serve() error {
	api.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", api.Config.Port),
		IdleTimeout:  defaultIdleTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		Handler:      api.setUpServerHandler(),
	}
	return api.Server.ListenAndServe()
}

func (api *API) setUpServerHandler() http.Handler {
	mux := chi.NewRouter()
	mux.Use(Recoverer)

	mux.Get("/",
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("roadwatch"))
		},
	)

	// Browsers cannot set headers on a websocket handshake.
	mux.Get("/ws/{id}", api.ServeSocket)

	mux.Group(func(r chi.Router) {
		r.Use(RequestTracing)
		r.Mount("/sessions", api.SessionRoutes())
	})

	return mux
}

func (api *API) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownPeriod)
	defer cancel()

	err := api.Server.Shutdown(ctx)
	api.Deps.Close()
	if err != nil {
		return err
	}
	return nil
}

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/mediamux/mediamux/internal/api"
	"github.com/mediamux/mediamux/internal/api/ws"
	"github.com/mediamux/mediamux/internal/app"
	"github.com/mediamux/mediamux/internal/consumers"
	"github.com/mediamux/mediamux/internal/worker"
	"github.com/rs/zerolog/log"
)

func main() {
	app.Init() // init config and logs

	api.Init() // init HTTP API server
	ws.Init()  // init websocket API

	worker.Init()      // init media engine process and channel
	consumers.Init()   // init consumers registry
	consumers.InitWS() // init websocket observer push

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	log.Info().Msgf("exit with signal: %s", <-sig)
}

package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/scholardesk/scholardesk-backend/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	addr := ":" + a.Cfg.Port
	go func() {
		a.Log.Info("Server listening", "addr", addr)
		errCh <- a.Run(addr)
	}()

	select {
	case sig := <-stop:
		a.Log.Info("Shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			a.Log.Error("Server failed", "error", err)
		}
	}
}

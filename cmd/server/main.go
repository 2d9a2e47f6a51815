// Command server runs the compile service's HTTP API, the retarget of
// the teacher's cmd/cli entry point onto a long-running process instead
// of a one-shot simulation demo.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/internal/app"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/internal/config"
)

const serverShutdownTimeout = 10 * time.Second

func main() {
	var (
		configPath = flag.String("config", "", "path to a backend.yaml config file (optional)")
		port       = flag.Int("port", 0, "port override; 0 uses the config/default value")
		version    = flag.String("version", "dev", "service version string reported in logs")
	)
	flag.Parse()

	c, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "server: loading config:", err)
		os.Exit(1)
	}

	srv, err := app.NewServer(app.ServerOptions{C: c, Version: *version})
	if err != nil {
		fmt.Fprintln(os.Stderr, "server: constructing app server:", err)
		os.Exit(1)
	}

	listenPort := *port
	if listenPort == 0 {
		listenPort = c.GetInt("server.port")
	}
	localOnly := c.GetBool("server.local_only")

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen(listenPort, localOnly) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			fmt.Fprintln(os.Stderr, "server: listen failed:", err)
			os.Exit(1)
		}
	case <-sigCh:
		ctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "server: shutdown failed:", err)
			os.Exit(1)
		}
	}
}

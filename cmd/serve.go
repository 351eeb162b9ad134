package cmd

import (
	"context"
	"net/http"
	"os"
	"time"

	"clipkind/pkg/channel"
	"clipkind/pkg/errors"
	"clipkind/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	serveLogFile      string
	serveListen       string
	serveAllowOrigins []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve clipboard operations over stdin/stdout",
	Long: `Read one JSON request per line from stdin and write one JSON response per
line to stdout, in order:

  {"id":"1","method":"getClipboardType"}
  {"id":"1","result":{"type":"text","subType":"url",...}}

Failures are reported as {"id":...,"error":{"code":...,"message":...}}.
Logs go to stderr. The server exits at end of input.

With --listen the same requests are accepted as WebSocket text messages on
ws://<addr>/ws instead of stdin. Browser pages may connect only from the
listener's own origin or an origin passed with --allow-origin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveLogFile != "" {
			f, err := os.OpenFile(serveLogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
			if err != nil {
				return errors.NewWithError(errors.KindFileOperation, "failed to open log file", err)
			}
			defer f.Close()
			logger.SetOutput(f)
		}

		svc, err := newService()
		if err != nil {
			return err
		}
		ctx, cancel := GetContext()
		defer cancel()

		server := channel.NewServer()
		channel.Register(server, svc)
		logger.Info().
			Str("source", svc.Source().Name()).
			Strs("methods", server.Methods()).
			Msg("serving method channel on stdio")

		if serveListen != "" {
			return listenWebSocket(ctx, server, serveListen)
		}
		return server.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func listenWebSocket(ctx context.Context, server *channel.Server, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", server.WebSocketHandler(ctx, serveAllowOrigins...))
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()
	logger.Info().Str("addr", addr).Msg("listening for WebSocket clients on /ws")

	select {
	case err := <-errCh:
		if err != nil {
			return errors.NewWithError(errors.KindGeneral, "failed to listen on "+addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func init() {
	serveCmd.Flags().StringVar(&serveLogFile, "log-file", "", "Append logs to this file instead of stderr")
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Serve over WebSocket on this address (e.g. 127.0.0.1:8765)")
	serveCmd.Flags().StringSliceVar(&serveAllowOrigins, "allow-origin", nil, "Extra browser origin allowed to connect with --listen (repeatable)")
}

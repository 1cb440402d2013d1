package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	serrors "github.com/conneroisu/stylesync/internal/errors"
	"github.com/conneroisu/stylesync/internal/logging"
	"github.com/conneroisu/stylesync/internal/target"
	"github.com/conneroisu/stylesync/internal/watcher"
	"github.com/conneroisu/stylesync/internal/websocket"
)

var serveCmd = &cobra.Command{
	Use:     "serve [paths...]",
	Aliases: []string{"s"},
	Short:   "Serve a live preview of the style containers",
	Long: `Serve an HTML page holding the style containers and keep it in sync with
the style files. Edits are debounced, applied as consumer updates and flushed
once per batch; every container operation is pushed to connected browsers
over WebSocket. Style files that fail to load are shown in an overlay and
keep their previous rules.

Examples:
  stylesync serve                          # Serve the configured style paths
  stylesync serve --port 3000 styles/      # Serve one directory on port 3000
  stylesync serve --template index.html    # Preview inside an existing page
  stylesync serve --no-watch               # Serve without watching`,
	RunE: runServe,
}

var (
	serveFlags    *StandardFlags
	serveTemplate string
)

const (
	clientScriptPath = "/_stylesync/client.js"
	overlayPath      = "/_stylesync/errors"
	websocketPath    = "/ws"
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveFlags = AddStandardFlags(serveCmd, "server")
	serveCmd.Flags().StringVarP(&serveTemplate, "template", "t", "", "HTML page to preview the styles in")
	serveCmd.Flags().Bool("no-watch", false, "Don't watch style files for changes")
	serveCmd.Flags().Duration("debounce", 0, "Delay before applying a batch of file changes")
	AddFlagValidation(serveCmd, "port", ValidatePort)

	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("watch.debounce", serveCmd.Flags().Lookup("debounce"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	if noWatch, _ := cmd.Flags().GetBool("no-watch"); noWatch {
		cfg.Watch.Enabled = false
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	doc, err := openDocument(serveTemplate)
	if err != nil {
		return err
	}
	hub := websocket.NewHub(websocket.AllowedOrigins(cfg.Server.AllowedOrigins), logger)
	defer func() { _ = hub.Shutdown(context.Background()) }()

	session, err := newStyleSession(ctx, cfg, websocket.NewLiveTarget(doc, hub), logger)
	if err != nil {
		return err
	}
	if err := session.load(ctx, false); err != nil {
		return err
	}

	if cfg.Watch.Enabled {
		fw, err := startWatcher(ctx, session, logger)
		if err != nil {
			return err
		}
		defer func() { _ = fw.Stop() }()
	}

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	server := &http.Server{
		Addr:              addr,
		Handler:           newPreviewHandler(doc, hub, session.collector),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	fmt.Fprintf(cmd.OutOrStdout(), "Serving %d style files at http://%s\n", len(session.files), addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info(context.Background(), "Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

// startWatcher watches the style paths and applies changes through the
// session's registry.
func startWatcher(ctx context.Context, session *styleSession, logger logging.Logger) (*watcher.FileWatcher, error) {
	fw, err := watcher.NewFileWatcher(session.cfg.Watch.Debounce, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	fw.AddFilter(watcher.StyleFilter)
	fw.AddFilter(watcher.NoHiddenFilter)
	fw.AddHandler(watcher.StyleHandler(session.registry, session.collector, logger))

	for _, path := range session.stylePaths() {
		info, err := os.Stat(path)
		switch {
		case err != nil:
			logger.Warn(ctx, err, "Style path not watched", "path", path)
			continue
		case info.IsDir():
			err = fw.AddRecursive(path)
		default:
			err = fw.AddPath(filepath.Dir(path))
		}
		if err != nil {
			_ = fw.Stop()
			return nil, fmt.Errorf("failed to watch %s: %w", path, err)
		}
	}

	if err := fw.Start(ctx); err != nil {
		_ = fw.Stop()
		return nil, err
	}
	return fw, nil
}

// newPreviewHandler serves the document with the live client script and
// the diagnostics overlay injected into its body.
func newPreviewHandler(doc *target.Document, hub *websocket.Hub, collector *serrors.Collector) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(websocketPath, hub.HandleWebSocket)
	mux.HandleFunc(clientScriptPath, websocket.ServeClientScript)
	mux.HandleFunc(overlayPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write([]byte(collector.Overlay()))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write([]byte(injectPreview(doc.String(), collector.Overlay())))
	})
	return mux
}

// injectPreview places overlay and the client script before </body>.
func injectPreview(page, overlay string) string {
	injection := overlay + `<script src="` + clientScriptPath + `"></script>`
	if i := strings.LastIndex(page, "</body>"); i >= 0 {
		return page[:i] + injection + page[i:]
	}
	return page + injection
}

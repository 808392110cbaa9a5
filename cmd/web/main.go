package main

import (
	"context"
	_ "embed"
	"html/template"
	"net"
	"net/http"
	"os"

	"github.com/charmbracelet/log"

	"github.com/cinghycreations/diskiller/internal/config"
	"github.com/cinghycreations/diskiller/internal/records"
	"github.com/cinghycreations/diskiller/internal/session"
)

const (
	defaultHost = "0.0.0.0"
	defaultPort = "8080"
)

//go:embed index.html
var htmlPage string

var page = template.Must(template.New("index").Parse(htmlPage))

// bestsLister is the part of the records store the page reads.
type bestsLister interface {
	Bests(ctx context.Context) ([]records.Best, error)
}

// pageData is what index.html renders.
type pageData struct {
	SSHHost string
	Modes   []modeRow
}

type modeRow struct {
	Title  string
	Score  int
	Player string
	Played bool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config error", "err", err)
	}
	logger, err := config.NewLogger(os.Stderr, cfg.LogLevel, "web")
	if err != nil {
		log.Fatal("config error", "err", err)
	}

	host := config.GetEnv("WEB_HOST", defaultHost)
	port := config.GetEnv("WEB_PORT", defaultPort)
	sshHost := config.GetEnv("SSH_DISPLAY_HOST", "your-server.com")

	store, err := records.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal("cannot open records", "err", err)
	}
	defer store.Close()

	http.Handle("/", indexHandler(store, sshHost, logger))

	addr := net.JoinHostPort(host, port)
	logger.Info("starting web server", "addr", "http://"+addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		logger.Fatal("server error", "err", err)
	}
}

// indexHandler serves the landing page with the best score of every mode.
func indexHandler(store bestsLister, sshHost string, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		bests, err := store.Bests(r.Context())
		if err != nil {
			logger.Error("cannot load best scores", "err", err)
			http.Error(w, "records unavailable", http.StatusInternalServerError)
			return
		}

		data := pageData{SSHHost: sshHost}
		for _, m := range session.Modes() {
			row := modeRow{Title: m.Title}
			for _, b := range bests {
				if b.Mode == m.Name {
					row.Score, row.Player, row.Played = b.Score, b.Player, true
				}
			}
			data.Modes = append(data.Modes, row)
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := page.Execute(w, data); err != nil {
			logger.Warn("render index", "err", err)
		}
	})
}

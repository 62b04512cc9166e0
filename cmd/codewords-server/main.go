// The codewords-server binary hosts the shared record store over HTTP for
// browser and terminal clients.
package main

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/securecookie"
	"github.com/joho/godotenv"
	"github.com/namsral/flag"
	"github.com/rs/zerolog"

	codewords "github.com/bcspragu/Codewords"
	"github.com/bcspragu/Codewords/memstore"
	"github.com/bcspragu/Codewords/sqlstore"
	"github.com/bcspragu/Codewords/web"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	// A missing .env is fine, flags and real env vars still apply.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Fatal().Err(err).Msg("failed to load .env file")
	}

	var (
		addr      = flag.String("addr", ":8080", "HTTP service address")
		baseURL   = flag.String("base_url", "http://localhost:8080", "Public address join links point at")
		storeKind = flag.String("store", "sqlite", "Record store backend, 'sqlite' or 'memory'")
		dbPath    = flag.String("db_path", "codewords.db", "Path to the SQLite DB file")
	)

	flag.Parse()

	var (
		store   codewords.Store
		cleanup = func() {}
	)
	switch *storeKind {
	case "memory":
		store = memstore.New()
	case "sqlite":
		db, err := sqlstore.New(*dbPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize datastore")
		}
		store = db
		cleanup = func() {
			if err := db.Close(); err != nil {
				logger.Err(err).Msg("failed to close datastore")
			}
		}
	default:
		logger.Fatal().Str("store", *storeKind).Msg("unknown store backend")
	}

	sc, err := loadKeys()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load cookie keys")
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-c
		cleanup()
		os.Exit(1)
	}()

	logger.Info().Str("addr", *addr).Msg("server is running")
	srv := web.New(store, sc, *baseURL, logger)
	if err := http.ListenAndServe(*addr, srv); err != nil {
		logger.Fatal().Err(err).Msg("ListenAndServe")
	}
}

func loadKeys() (*securecookie.SecureCookie, error) {
	hashKey, err := loadOrGenKey("hashKey")
	if err != nil {
		return nil, err
	}

	blockKey, err := loadOrGenKey("blockKey")
	if err != nil {
		return nil, err
	}

	return securecookie.New(hashKey, blockKey), nil
}

func loadOrGenKey(name string) ([]byte, error) {
	f, err := os.ReadFile(name)
	if err == nil {
		return f, nil
	}

	dat := securecookie.GenerateRandomKey(32)
	if dat == nil {
		return nil, errors.New("failed to generate key")
	}

	if err := os.WriteFile(name, dat, 0600); err != nil {
		return nil, errors.New("error writing key file")
	}
	return dat, nil
}

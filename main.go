package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"gitexplorer/config"
	"gitexplorer/internal/browser"
	"gitexplorer/internal/content"
	"gitexplorer/internal/core"
	"gitexplorer/internal/demo"
	"gitexplorer/internal/fuzzy"
	"gitexplorer/internal/httprouter"
	"gitexplorer/internal/jsonrpc"
	"gitexplorer/internal/smarthttp"
	"gitexplorer/internal/staticserve"
)

func main() {
	cfg, err := config.Load("ges.yaml")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	initLogging(cfg.LogFile)
	log.Println("Starting git explorer server...")

	contentPath := cfg.ContentPath
	if contentPath == "" {
		demoRoot, err := demo.Bootstrap()
		if err != nil {
			log.Fatalf("demo bootstrap: %v", err)
		}
		log.Printf("GES_CONTENT_PATH unset; serving demo tree at %s", demoRoot)
		contentPath = demoRoot
	}

	handler := buildHandler(cfg, contentPath)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	srvErrCh := make(chan error, 1)
	go func() {
		log.Printf("listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			srvErrCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("received signal: %v, shutting down...", sig)
	case err := <-srvErrCh:
		log.Printf("server error: %v, shutting down...", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	log.Println("git explorer exit.")
}

func initLogging(logFile string) {
	if logFile == "" {
		return
	}
	f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o666)
	if err != nil {
		log.Printf("warning: failed to open log file: %v, using stderr", err)
		return
	}
	log.SetOutput(f)
	gin.DefaultWriter = f
	gin.DefaultErrorWriter = f
}

// buildHandler wires the core Router (spec.md §4.5's route inventory)
// against the content producer, RPC dispatcher, and the two external
// collaborators (smart-HTTP transport, static/index server).
func buildHandler(cfg config.Config, contentPath string) http.Handler {
	producer := content.New(core.ServedRoot(contentPath))

	dispatcher := jsonrpc.New()
	browser.Register(dispatcher, producer)

	staticRoot := cfg.StaticContentPath
	statics := staticserve.New(staticRoot)
	smartHTTP := smarthttp.New(core.ServedRoot(contentPath))
	fuzzyHandler := fuzzy.New(producer)

	rt := httprouter.New(cfg.URIMarker)

	rt.HandleMethods("/", map[string]http.Handler{
		http.MethodGet:  ginHandler(statics.Index),
		http.MethodHead: ginHandler(statics.Index),
	})

	rt.HandleMethods("/rpc/?.*", map[string]http.Handler{
		http.MethodPost: rpcHandler(dispatcher),
	})

	rt.HandleMethods("/favicon.ico", map[string]http.Handler{
		http.MethodGet:  ginHandler(statics.Favicon),
		http.MethodHead: ginHandler(statics.Favicon),
	})
	rt.HandleMethods("/static/(?P<rest>.*)", map[string]http.Handler{
		http.MethodGet:  ginParamHandler(statics.Static, "rest"),
		http.MethodHead: ginParamHandler(statics.Static, "rest"),
	})

	rt.HandleMethods(`(?P<repoPath>.*?)/info/refs`, map[string]http.Handler{
		http.MethodGet:  ginParamHandler(smartHTTP.InfoRefs, "repoPath"),
		http.MethodHead: ginParamHandler(smartHTTP.InfoRefs, "repoPath"),
	})
	rt.HandleMethods(`(?P<repoPath>.*?)/(?P<gitCommand>git-[^/]+)`, map[string]http.Handler{
		http.MethodPost: ginParamsHandler(smartHTTP.Service, "repoPath", "gitCommand"),
	})

	rt.HandleAny("(?P<rest>.*)", fuzzyHandler)

	return rt
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.Printf("%s %s -> %d", c.Request.Method, c.Request.URL.Path, c.Writer.Status())
	}
}

// ginHandler adapts a gin.HandlerFunc into an http.Handler via a
// single-route gin engine, the same texture the teacher's resource
// handlers use for the external-collaborator static/index surface.
func ginHandler(fn gin.HandlerFunc) http.Handler {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())
	engine.Any("/*any", fn)
	return engine
}

// ginParamHandler forwards the router's named capture for key into
// gin's Param(key), so handlers written against gin.Context can read
// it the same way they would from a gin route parameter.
func ginParamHandler(fn gin.HandlerFunc, key string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captures := httprouter.Captures(r)
		engine := gin.New()
		engine.Use(gin.Recovery(), requestLogger())
		engine.Any("/*any", func(c *gin.Context) {
			c.Params = append(c.Params, gin.Param{Key: key, Value: captures[key]})
			fn(c)
		})
		engine.ServeHTTP(w, r)
	})
}

func ginParamsHandler(fn gin.HandlerFunc, keys ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captures := httprouter.Captures(r)
		engine := gin.New()
		engine.Use(gin.Recovery(), requestLogger())
		engine.Any("/*any", func(c *gin.Context) {
			for _, key := range keys {
				c.Params = append(c.Params, gin.Param{Key: key, Value: captures[key]})
			}
			fn(c)
		})
		engine.ServeHTTP(w, r)
	})
}

func rpcHandler(d *jsonrpc.Dispatcher) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		resp := d.Handle(body)
		encoded, err := jsonrpc.Encode(resp)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		log.Printf("%s %s -> rpc", r.Method, r.URL.Path)
		w.Write(encoded)
	})
}

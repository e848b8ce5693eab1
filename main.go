package main

import (
	"context"
	"flag"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/arvsh/lynxdb/dbserver"
	"github.com/arvsh/lynxdb/kvtree"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:9999", "address to listen on")
	bucketSize := flag.Int("bucket-size", 4, "hash table bucket capacity")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := kvtree.NewHashStore(*bucketSize)

	server, err := dbserver.New(*addr, store)
	if err != nil {
		slog.Error(err.Error(), "msg", "failed to start server")
		return
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down")
		server.Shutdown()
	}()

	slog.Info("listening", "addr", *addr)
	server.Run()
}

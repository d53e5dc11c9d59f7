package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"filevault/internal/config"
	"filevault/internal/idempotency"
	"filevault/internal/nft"
	"filevault/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	var store idempotency.Store
	if cfg.Service.PostgresDSN != "" {
		pg, err := idempotency.NewPostgresStore(context.Background(), cfg.Service.PostgresDSN)
		if err != nil {
			log.Fatalf("idempotency store error: %v", err)
		}
		defer pg.Close()
		store = pg
	} else {
		fs, err := idempotency.NewFileStore(cfg.Service.IdempotencyStorePath)
		if err != nil {
			log.Fatalf("idempotency store error: %v", err)
		}
		store = fs
	}

	var client nft.Client = nft.NewFakeClient()
	if cfg.Chain.PrivateKey != "" {
		ethClient, err := nft.NewEthClient(context.Background(), nft.EthClientConfig{
			RPCURL:          cfg.Chain.RPCURL,
			PrivateKeyHex:   cfg.Chain.PrivateKey,
			ContractAddress: cfg.Deployment.Contracts.EncryptedFileNFT,
		})
		if err != nil {
			log.Fatalf("nft client error: %v", err)
		}
		client = ethClient
		log.Printf("connected to EncryptedFileNFT at %s as %s",
			cfg.Deployment.Contracts.EncryptedFileNFT, ethClient.Account())
	} else {
		log.Printf("warning: no signing key configured, serving with in-memory fake client")
	}

	apiServer := server.NewServer(cfg, client, store)

	go func() {
		if err := apiServer.Start(); err != nil {
			log.Printf("server stopped: %v", err)
		}
	}()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = apiServer.Shutdown(ctx)
}

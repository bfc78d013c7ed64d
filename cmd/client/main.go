package main

import (
	"context"
	"log"

	"github.com/simplesocial/simplesocial/internal/client/cli"
	"github.com/simplesocial/simplesocial/internal/client/config"
	"github.com/simplesocial/simplesocial/internal/logging"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg, logging.NewDefault())

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}

// Command chat is an interactive terminal client for the budget assistant.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"pennywise/internal/chat"
	"pennywise/internal/client"
	"pennywise/internal/logger"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	api := client.NewClient(cfg.APIURL, &http.Client{Timeout: cfg.RequestTimeout})
	creds := client.Credentials{Token: cfg.Token}

	r := &repl{
		api:      api,
		creds:    creds,
		session:  chat.NewSession(api.Asker(creds), chat.WithTimezone(cfg.Timezone)),
		budgetID: cfg.BudgetID,
		in:       os.Stdin,
		out:      os.Stdout,
		readFile: os.ReadFile,
	}
	if err := r.run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "chat: %v\n", err)
		os.Exit(1)
	}
}

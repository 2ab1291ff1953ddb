// Package main generates API keys for patron proxy clients.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/vyrodovalexey/patronproxy/internal/apikey"
)

func main() {
	clientID := flag.String("client", "", "Client id (generated when omitted)")
	tenant := flag.String("tenant", "", "Tenant id (required)")
	username := flag.String("username", "", "Institutional username (required)")
	flag.Parse()

	if *tenant == "" || *username == "" {
		fmt.Fprintln(os.Stderr, "usage: keygen -tenant <tenant> -username <username> [-client <id>]")
		os.Exit(2)
	}

	id := *clientID
	if id == "" {
		id = uuid.New().String()
	}

	key, err := apikey.Generate(id, *tenant, *username)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(key)
}

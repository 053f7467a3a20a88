package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
)

func main() {
	secret := flag.String("secret", os.Getenv("WEBHOOK_SECRET"), "Webhook shared secret (defaults to WEBHOOK_SECRET)")
	bodyFile := flag.String("body", "", "File containing request body (or use stdin)")
	flag.Parse()

	if *secret == "" {
		fmt.Fprintln(os.Stderr, "Usage: sign -secret <secret> [-body <file>]")
		fmt.Fprintln(os.Stderr, "  Reads body from stdin if -body not specified")
		os.Exit(1)
	}

	// Read body
	var body []byte
	var err error
	if *bodyFile != "" {
		body, err = os.ReadFile(*bodyFile)
	} else {
		body, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read body: %v\n", err)
		os.Exit(1)
	}

	// The signature covers the exact bytes that will go on the wire;
	// sign the file content as-is, no re-encoding.
	mac := hmac.New(sha256.New, []byte(*secret))
	mac.Write(body)

	fmt.Printf("X-Signature: %s\n", hex.EncodeToString(mac.Sum(nil)))
}

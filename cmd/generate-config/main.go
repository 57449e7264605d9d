package main

import (
	"fmt"
	"os"

	"github.com/debemdeboas/inkwell/internal/config"
	"gopkg.in/yaml.v3"
)

const header = "# Inkwell Configuration Example\n" +
	"# Copy this file to config.yaml and customize as needed.\n" +
	"# Secrets (ED25519_PUBKEY, CLERK_API, CLERK_WEBHOOK_SECRET, FIREBASE_*, S3_*, POSTGRES_DSN) are read from the environment.\n\n"

func main() {
	yamlData, err := yaml.Marshal(config.Default())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating YAML: %v\n", err)
		os.Exit(1)
	}

	output := header + string(yamlData)

	outputFile := "config.example.yaml"
	if len(os.Args) > 1 {
		outputFile = os.Args[1]
	}

	if outputFile == "-" {
		fmt.Print(output)
		return
	}

	if err := os.WriteFile(outputFile, []byte(output), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated example config: %s\n", outputFile)
}

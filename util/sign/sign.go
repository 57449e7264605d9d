// Command sign answers the login challenge of an ed25519 protected editor.
// With -keygen it creates the owner key pair instead.
package main

import (
	"bufio"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/debemdeboas/inkwell/internal/routes"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	outputStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
)

func loadPrivateKey(filename string) (ed25519.PrivateKey, error) {
	privKeyBytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(privKeyBytes)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}
	privKey, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	edPriv, ok := privKey.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("not an Ed25519 private key")
	}
	return edPriv, nil
}

// generateKey writes a new PKCS#8 private key to privPath and returns the
// PEM encoded public key the server expects in ED25519_PUBKEY.
func generateKey(privPath string) (string, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", err
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return "", err
	}
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})
	if err := os.WriteFile(privPath, privPEM, 0o600); err != nil {
		return "", err
	}

	pubDER, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", err
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})), nil
}

func signChallenge(key ed25519.PrivateKey, challengeB64 string) (string, error) {
	challenge, err := base64.StdEncoding.DecodeString(strings.TrimSpace(challengeB64))
	if err != nil {
		return "", errors.New("invalid base64")
	}
	return base64.StdEncoding.EncodeToString(ed25519.Sign(key, challenge)), nil
}

// fetchChallenge reads the current challenge from a running server.
func fetchChallenge(client *http.Client, server string) (string, error) {
	resp, err := client.Get(strings.TrimSuffix(server, "/") + routes.AuthChallenge)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("challenge request failed: %s", resp.Status)
	}

	var body struct {
		Challenge string `json:"challenge"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.Challenge == "" {
		return "", errors.New("server returned an empty challenge")
	}
	return body.Challenge, nil
}

// interactive signs challenges read from in until EOF or "quit".
func interactive(key ed25519.PrivateKey, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Enter challenges one by one. Type 'quit' to exit.")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, promptStyle.Render("Enter challenge (base64): "))

		if !scanner.Scan() {
			break
		}

		challengeB64 := strings.TrimSpace(scanner.Text())
		if challengeB64 == "" {
			continue
		}
		if challengeB64 == "quit" {
			break
		}

		sig, err := signChallenge(key, challengeB64)
		if err != nil {
			fmt.Fprintln(out, outputStyle.Render("Error: "+err.Error()))
			continue
		}
		fmt.Fprintln(out, outputStyle.Render("Signature: "+sig))
	}
	return scanner.Err()
}

func main() {
	keyPath := flag.String("key", "privkey.pem", "Path to the PKCS#8 Ed25519 private key")
	server := flag.String("server", "", "Fetch the challenge from this server instead of reading stdin")
	keygen := flag.Bool("keygen", false, "Generate a new key pair at -key and print the public key")
	flag.Parse()

	if *keygen {
		pubPEM, err := generateKey(*keyPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error generating key:", err)
			os.Exit(1)
		}
		fmt.Println(outputStyle.Render("Private key written to " + *keyPath))
		fmt.Println("Set ED25519_PUBKEY to:")
		fmt.Print(pubPEM)
		return
	}

	privKey, err := loadPrivateKey(*keyPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading private key:", err)
		os.Exit(1)
	}

	if *server != "" {
		challenge, err := fetchChallenge(&http.Client{Timeout: 10 * time.Second}, *server)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error fetching challenge:", err)
			os.Exit(1)
		}
		sig, err := signChallenge(privKey, challenge)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error signing challenge:", err)
			os.Exit(1)
		}
		fmt.Println(sig)
		return
	}

	if err := interactive(privKey, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Error reading input:", err)
	}
}

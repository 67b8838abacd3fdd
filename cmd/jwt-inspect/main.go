package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bionicotaku/lingo-utils-jwtclaims"
)

func main() {
	envPath := defaultEnvPath()
	if err := loadEnvFile(envPath); err != nil {
		log.Printf("warning: load %s: %v", envPath, err)
	}

	token := flag.String("token", os.Getenv("JWT_TOKEN"), "Compact token to inspect (env JWT_TOKEN); '-' reads stdin")
	jwksURL := flag.String("jwks-url", os.Getenv("JWT_JWKS_URL"), "Verify against this JWKS (env JWT_JWKS_URL)")
	issuer := flag.String("issuer", os.Getenv("JWT_ISSUER"), "Expected iss when verifying (env JWT_ISSUER)")
	audience := flag.String("audience", os.Getenv("JWT_AUDIENCE"), "Expected aud when verifying (env JWT_AUDIENCE)")
	googleAudience := flag.String("google-audience", os.Getenv("GOOGLE_AUDIENCE"), "Mint a Google ID token for this audience when -token is empty (env GOOGLE_AUDIENCE)")
	serviceAccount := flag.String("service-account", os.Getenv("GOOGLE_SERVICE_ACCOUNT"), "Service account to impersonate (env GOOGLE_SERVICE_ACCOUNT)")
	timeout := flag.Duration("timeout", 10*time.Second, "Timeout for network calls")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	compact := *token
	if compact == "-" {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			log.Fatalf("read token from stdin: %v", err)
		}
		compact = strings.TrimSpace(line)
	}
	if compact == "" && *googleAudience != "" {
		provider := jwtclaims.NewProvider(jwtclaims.ProviderConfig{ServiceAccount: *serviceAccount})
		minted, err := provider.Token(ctx, *googleAudience)
		if err != nil {
			log.Fatalf("mint identity token: %v", err)
		}
		compact = minted
		log.Println("acquired Google identity token via provider")
	}
	if compact == "" {
		flag.Usage()
		log.Fatal("a token is required (flag, env JWT_TOKEN, stdin or -google-audience)")
	}

	var (
		tok      *jwtclaims.Token
		verified bool
		err      error
	)
	if *jwksURL != "" {
		if *issuer == "" || *audience == "" {
			log.Fatal("issuer and audience are required with -jwks-url")
		}
		validator, verr := jwtclaims.NewValidator(jwtclaims.ValidatorConfig{
			Issuers: []jwtclaims.IssuerConfig{{
				Name:        "cli",
				JWKSURL:     *jwksURL,
				Issuer:      *issuer,
				Audience:    *audience,
				HTTPTimeout: *timeout,
				MinRefresh:  time.Minute,
			}},
		})
		if verr != nil {
			log.Fatalf("create validator: %v", verr)
		}
		if werr := validator.Warmup(ctx, "cli"); werr != nil {
			log.Printf("warmup warning: %v", werr)
		}
		tok, err = validator.Validate(ctx, compact, "cli")
		verified = true
	} else {
		tok, _, err = jwtclaims.Decode(compact)
	}
	if err != nil {
		log.Fatalf("inspect token: %v", err)
	}

	printToken(tok, verified)
}

func printToken(tok *jwtclaims.Token, verified bool) {
	if verified {
		fmt.Println("== Token verified ==")
	} else {
		fmt.Println("== Token decoded (signature not checked) ==")
	}
	fmt.Println("header:")
	printSet(tok.Headers().ClaimSet())
	fmt.Println("claims:")
	printSet(tok.Claims().ClaimSet())

	claims := tok.Claims()
	for _, field := range []struct {
		label string
		get   func() (jwtclaims.NumericDate, bool, error)
	}{
		{"issued_at ", claims.IssuedAt},
		{"not_before", claims.NotBefore},
		{"expires_at", claims.ExpiryTime},
	} {
		date, ok, err := field.get()
		switch {
		case err != nil:
			fmt.Printf("%s : %v\n", field.label, err)
		case ok:
			fmt.Printf("%s : %s\n", field.label, date.Time().Format(time.RFC3339))
		}
	}
}

func printSet(cs *jwtclaims.ClaimSet) {
	for name, value := range cs.All() {
		fmt.Printf("  %-6s: %s\n", name, value)
	}
}

func defaultEnvPath() string {
	if path := os.Getenv("JWT_INSPECT_ENV_FILE"); path != "" {
		return path
	}
	return ".env"
}

// loadEnvFile sets KEY=VALUE pairs from path without overriding variables
// already present in the environment. A missing file is not an error.
func loadEnvFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			log.Printf("warning: invalid line %d in %s", lineNum, filepath.Base(path))
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, present := os.LookupEnv(key); present {
			continue
		}
		if err := os.Setenv(key, strings.Trim(strings.TrimSpace(value), `"'`)); err != nil {
			log.Printf("warning: set env %s: %v", key, err)
		}
	}
	return scanner.Err()
}

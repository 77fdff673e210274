// Command token issues bearer tokens for API callers, signed with the
// configured auth.jwt_secret.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/erp/salestax/internal/infrastructure/auth"
	"github.com/erp/salestax/internal/infrastructure/config"
	"github.com/erp/salestax/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	var (
		organization string
		subject      string
		scopes       string
		ttl          time.Duration
	)
	flag.StringVar(&organization, "org", "", "Organization ID the token is scoped to (required)")
	flag.StringVar(&subject, "sub", "erp", "Caller name recorded as the token subject")
	flag.StringVar(&scopes, "scopes", auth.ScopeDocuments, "Comma-separated scopes ("+auth.ScopeDocuments+", "+auth.ScopeAdmin+")")
	flag.DurationVar(&ttl, "ttl", 0, "Token lifetime (default: auth.token_expiration)")
	flag.Parse()

	log, err := logger.New(logger.Config{Level: "info", Format: "console", Output: "stderr"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	orgID, err := uuid.Parse(organization)
	if err != nil {
		log.Fatal("A valid -org is required", zap.String("org", organization))
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("SALESTAX_AUTH_JWT_SECRET is not set")
	}
	if ttl > 0 {
		cfg.Auth.TokenExpiration = ttl
	}

	var granted []string
	for _, s := range strings.Split(scopes, ",") {
		if s = strings.TrimSpace(s); s != "" {
			granted = append(granted, s)
		}
	}

	token, expiresAt, err := auth.NewTokenService(cfg.Auth).Issue(auth.IssueInput{
		Subject:        subject,
		OrganizationID: orgID,
		Scopes:         granted,
	})
	if err != nil {
		log.Fatal("Failed to sign token", zap.Error(err))
	}

	log.Info("Token issued",
		zap.String("organization_id", orgID.String()),
		zap.Strings("scopes", granted),
		zap.Time("expires_at", expiresAt),
	)
	fmt.Println(token)
}

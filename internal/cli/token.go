package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/irfndi/kpi-forecast-go/internal/middleware"
)

// jwtSecretEnv is the variable the server reads security.jwt_secret from.
const jwtSecretEnv = "JWT_SECRET"

var errMissingSecret = errors.New("no signing secret: pass --secret or set " + jwtSecretEnv)

type tokenOutput struct {
	Token     string    `json:"token"`
	ClientID  string    `json:"client_id"`
	Scopes    []string  `json:"scopes"`
	ExpiresAt time.Time `json:"expires_at"`
}

func newTokenCmd(a *app) *cobra.Command {
	var (
		clientID, secret string
		scopes           []string
		ttl              time.Duration
	)

	cmd := &cobra.Command{
		Use:     "token",
		Short:   "Issue a bearer token for the forecast API",
		Example: `  kpictl token --client-id ops --scopes forecast,admin --ttl 1h --secret "$JWT_SECRET"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" {
				secret = os.Getenv(jwtSecretEnv)
			}
			if strings.TrimSpace(secret) == "" {
				return errMissingSecret
			}
			if ttl <= 0 {
				return fmt.Errorf("ttl must be positive, got %s", ttl)
			}

			issued := time.Now()
			token, err := middleware.NewAuthMiddleware(secret).GenerateToken(clientID, scopes, ttl)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}

			if a.output == outputJSON {
				return writeJSON(a.stdout, tokenOutput{
					Token:     token,
					ClientID:  clientID,
					Scopes:    scopes,
					ExpiresAt: issued.Add(ttl).UTC().Truncate(time.Second),
				})
			}
			_, err = fmt.Fprintln(a.stdout, token)
			return err
		},
	}
	cmd.Flags().StringVar(&clientID, "client-id", "", "client the token is issued to")
	cmd.Flags().StringSliceVar(&scopes, "scopes", []string{"forecast"}, "granted scopes; admin unlocks the cache endpoints")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	cmd.Flags().StringVar(&secret, "secret", "", "HMAC signing secret (default $"+jwtSecretEnv+")")
	_ = cmd.MarkFlagRequired("client-id")
	return cmd
}

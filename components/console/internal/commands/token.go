// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/navimedi/reporter/pkg/auth"
	"github.com/navimedi/reporter/pkg/constant"

	"github.com/spf13/cobra"
)

// errMissingSecret is returned by token without JWT_SECRET.
var errMissingSecret = errors.New("JWT_SECRET is required to mint tokens")

type tokenOptions struct {
	subject     string
	name        string
	tenant      string
	permissions []string
	ttl         time.Duration
}

func (a *app) tokenCmd() *cobra.Command {
	opts := &tokenOptions{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token signed with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			token, err := a.mintToken(opts)
			if err != nil {
				return err
			}

			fmt.Fprintln(a.out, token)

			return nil
		},
	}

	cmd.Flags().StringVar(&opts.subject, "subject", defaultUserID, "Token subject")
	cmd.Flags().StringVar(&opts.name, "name", "", "Display name recorded as generatedBy")
	cmd.Flags().StringVar(&opts.tenant, "tenant", "", "Tenant the token is scoped to")
	cmd.Flags().StringSliceVar(&opts.permissions, "permission",
		[]string{constant.PermissionReportsRead, constant.PermissionReportsWrite}, "Granted permissions")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", time.Hour, "Token lifetime")

	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}

func (a *app) mintToken(opts *tokenOptions) (string, error) {
	if len(a.cfg.JWTSecret) < constant.MinJWTSecretLength {
		return "", fmt.Errorf("%w (at least %d characters)", errMissingSecret, constant.MinJWTSecretLength)
	}

	if opts.ttl <= 0 {
		return "", fmt.Errorf("--ttl must be positive, got %s", opts.ttl)
	}

	tokens := auth.NewTokenService(a.cfg.JWTSecret, a.cfg.JWTIssuer)

	return tokens.Issue(auth.Principal{
		Subject:     opts.subject,
		Name:        opts.name,
		TenantID:    opts.tenant,
		Permissions: opts.permissions,
	}, opts.ttl)
}

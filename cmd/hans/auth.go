package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/hansdj/internal/server"
	"github.com/desertthunder/hansdj/internal/shared"
	"github.com/urfave/cli/v3"
)

const authTimeout = 2 * time.Minute

// Auth performs the OAuth2 authorization code flow for Spotify.
//
// Starts a local callback server, opens the browser at the authorize URL and caches the
// exchanged token at token_path.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.spotifyService()
	if err != nil {
		return err
	}

	state, err := shared.GenerateState()
	if err != nil {
		return fmt.Errorf("failed to generate state token: %w", err)
	}

	creds := r.config.Credentials.Spotify
	handler := server.NewOAuthHandler(svc, state, server.CallbackPath(creds.RedirectURI))
	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	srv := server.NewCallbackServer(addr, handler, r.logger)
	if err := srv.Start(); err != nil {
		return err
	}

	authURL := svc.GetAuthURL(state)
	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser automatically", "error", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", authTimeout)
	token, err := srv.Wait(ctx, authTimeout)
	if err != nil {
		return err
	}

	if err := r.saveToken(token); err != nil {
		return err
	}
	svc.SetToken(ctx, token)
	r.service = svc

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Token saved to %s\n", creds.TokenPath)

	if user, err := svc.CurrentUser(ctx); err == nil {
		r.writePlain("Logged in as: %s\n", user.DisplayName)
	}
	return nil
}

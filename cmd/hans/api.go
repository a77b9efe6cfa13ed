package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/desertthunder/hansdj/internal/services"
	"github.com/desertthunder/hansdj/internal/shared"
	"github.com/urfave/cli/v3"
)

// apiService returns an [services.APIService] using the authenticated Spotify HTTP client.
func (r *Runner) apiService(ctx context.Context) (*services.APIService, error) {
	if _, err := r.musicService(ctx); err != nil {
		return nil, err
	}
	if r.spotify == nil || r.spotify.HTTPClient() == nil {
		return nil, fmt.Errorf("%w: direct API calls need a Spotify login", shared.ErrServiceUnavailable)
	}
	return services.NewAPIService(services.DefaultAPIBaseURL, r.spotify.HTTPClient()), nil
}

// APIGet makes a direct GET request to the Web API
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("%w: usage: hans api get <path>", shared.ErrMissingArgument)
	}

	api, err := r.apiService(ctx)
	if err != nil {
		return err
	}
	return r.apiCall(ctx, api, "GET", path, nil, cmd.Bool("pretty"))
}

// APIPost makes a direct POST request to the Web API
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	data := cmd.String("data")

	if path == "" {
		return fmt.Errorf("%w: usage: hans api post <path> --data '<json>'", shared.ErrMissingArgument)
	}
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}
	if !json.Valid([]byte(data)) {
		return fmt.Errorf("%w: data is not valid JSON", shared.ErrInvalidArgument)
	}

	api, err := r.apiService(ctx)
	if err != nil {
		return err
	}
	return r.apiCall(ctx, api, "POST", path, []byte(data), true)
}

func (r *Runner) apiCall(ctx context.Context, api *services.APIService, method, path string, body []byte, pretty bool) error {
	r.logger.Info("api request", "method", method, "path", path)

	resp, err := api.Do(ctx, method, path, body)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, strings.TrimSpace(string(resp.Body)))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}
	if len(resp.Body) == 0 {
		return r.writePlain("%d\n", resp.StatusCode)
	}
	return r.writePlain("%s\n", resp.Body)
}

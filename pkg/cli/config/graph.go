package config

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/teamsbackup/pkg/service/graph"
	"github.com/urfave/cli/v3"
)

// Graph holds the application identity and the upstream API tuning
type Graph struct {
	clientID      string
	tenantID      string
	clientSecret  string
	endpoint      string
	loginEndpoint string
	timeout       time.Duration
	rateLimit     float64
}

func (x *Graph) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "client-id",
			Usage:       "Application (client) ID. Falls back to AzureConfig.ClientId",
			Category:    "Graph",
			Destination: &x.clientID,
			Sources:     cli.EnvVars("TEAMSBACKUP_CLIENT_ID"),
		},
		&cli.StringFlag{
			Name:        "tenant-id",
			Usage:       "Directory (tenant) ID. Falls back to AzureConfig.TenantId",
			Category:    "Graph",
			Destination: &x.tenantID,
			Sources:     cli.EnvVars("TEAMSBACKUP_TENANT_ID"),
		},
		&cli.StringFlag{
			Name:        "client-secret",
			Usage:       "Client secret. Falls back to AzureConfig.ClientSecret",
			Category:    "Graph",
			Destination: &x.clientSecret,
			Sources:     cli.EnvVars("TEAMSBACKUP_CLIENT_SECRET"),
		},
		&cli.StringFlag{
			Name:        "graph-endpoint",
			Usage:       "Upstream API root",
			Category:    "Graph",
			Value:       graph.DefaultEndpoint,
			Destination: &x.endpoint,
			Sources:     cli.EnvVars("TEAMSBACKUP_GRAPH_ENDPOINT"),
		},
		&cli.StringFlag{
			Name:        "login-endpoint",
			Usage:       "Identity provider authority",
			Category:    "Graph",
			Value:       graph.DefaultLoginEndpoint,
			Destination: &x.loginEndpoint,
			Sources:     cli.EnvVars("TEAMSBACKUP_LOGIN_ENDPOINT"),
		},
		&cli.DurationFlag{
			Name:        "request-timeout",
			Usage:       "Timeout of a single HTTP request (0 disables)",
			Category:    "Graph",
			Value:       graph.DefaultRequestTimeout,
			Destination: &x.timeout,
			Sources:     cli.EnvVars("TEAMSBACKUP_REQUEST_TIMEOUT"),
		},
		&cli.FloatFlag{
			Name:        "rate-limit",
			Usage:       "Maximum page requests per second (0 disables)",
			Category:    "Graph",
			Destination: &x.rateLimit,
			Sources:     cli.EnvVars("TEAMSBACKUP_RATE_LIMIT"),
		},
	}
}

func (x Graph) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("client_id", x.clientID),
		slog.String("tenant_id", x.tenantID),
		slog.Int("client_secret.len", len(x.clientSecret)),
		slog.String("endpoint", x.endpoint),
		slog.String("login_endpoint", x.loginEndpoint),
		slog.Duration("timeout", x.timeout),
		slog.Float64("rate_limit", x.rateLimit),
	)
}

// merge fills credentials that were not given as flags from settings
func (x *Graph) merge(settings *Settings) {
	if settings == nil {
		return
	}
	if x.clientID == "" {
		x.clientID = settings.Azure.ClientID
	}
	if x.tenantID == "" {
		x.tenantID = settings.Azure.TenantID
	}
	if x.clientSecret == "" {
		x.clientSecret = settings.Azure.ClientSecret
	}
}

// Configure builds the token provider and the upstream API service
func (x *Graph) Configure(settings *Settings) (*graph.TokenProvider, graph.Service, error) {
	x.merge(settings)

	var missing []string
	if x.clientID == "" {
		missing = append(missing, "ClientId")
	}
	if x.tenantID == "" {
		missing = append(missing, "TenantId")
	}
	if x.clientSecret == "" {
		missing = append(missing, "ClientSecret")
	}
	if len(missing) > 0 {
		return nil, nil, goerr.Wrap(ErrMissingCredential, "application credential is incomplete",
			goerr.V(MissingKey, missing))
	}

	tokens, err := graph.NewTokenProvider(x.clientID, x.clientSecret, x.tenantID,
		graph.WithLoginEndpoint(x.loginEndpoint),
		graph.WithTokenHTTPClient(&http.Client{Timeout: x.timeout}),
	)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create token provider")
	}

	fetcher := graph.NewFetcher(
		graph.WithRequestTimeout(x.timeout),
		graph.WithRateLimit(x.rateLimit, 1),
	)

	svc, err := graph.New(tokens,
		graph.WithEndpoint(x.endpoint),
		graph.WithFetcher(fetcher),
	)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create graph service")
	}

	return tokens, svc, nil
}

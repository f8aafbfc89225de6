package assistant

import (
	"crypto/tls"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/oauth"
)

const DefaultEndpoint = "embeddedassistant.googleapis.com"

type DialOptions struct {
	// SSLCredentialsFile is a PEM bundle of root certificates. Empty uses
	// the system pool.
	SSLCredentialsFile string
	UserAgent          string
}

// Dial creates a TLS channel to endpoint that attaches a bearer token from ts
// to every call. The connection is made lazily.
func Dial(endpoint string, ts oauth2.TokenSource, opts DialOptions) (*grpc.ClientConn, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	var creds credentials.TransportCredentials
	if opts.SSLCredentialsFile != "" {
		c, err := credentials.NewClientTLSFromFile(opts.SSLCredentialsFile, "")
		if err != nil {
			return nil, fmt.Errorf("loading root certificates: %w", err)
		}
		creds = c
	} else {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithPerRPCCredentials(oauth.TokenSource{TokenSource: ts}),
	}
	if opts.UserAgent != "" {
		dialOpts = append(dialOpts, grpc.WithUserAgent(opts.UserAgent))
	}

	conn, err := grpc.NewClient(endpoint, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating channel to %s: %w", endpoint, err)
	}
	return conn, nil
}

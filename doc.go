// Package qbitapi provides a client for the qBittorrent Web API.
//
// The client maps the daemon's HTTP control endpoints to method calls and
// takes care of everything between the call and the response: session cookie
// management with transparent re-login, HTTP/HTTPS scheme detection, retries
// with backoff for transient failures, version gating for endpoints that only
// exist in some qBittorrent releases, and translation of error responses into
// typed errors.
//
// # Usage
//
// Create a client and log in:
//
//	logger := zerolog.New(os.Stderr)
//	client := qbitapi.NewClient("localhost:8080",
//		qbitapi.WithCredentials("admin", "adminadmin"),
//		qbitapi.WithLogger(logger),
//	)
//
//	ctx := context.Background()
//	if err := client.Login(ctx, "", ""); err != nil {
//		log.Fatal(err)
//	}
//
//	torrents, err := client.TorrentsInfo(ctx, qbitapi.TorrentFilterOptions{})
//	for _, t := range torrents {
//		// records returned in rich mode are bound to the client
//		_ = t.Pause(ctx)
//	}
//
// Explicit login is optional; any authenticated call logs in on demand using
// the configured (or environment-sourced) credentials.
//
// # Error Handling
//
// Error responses from the daemon are mapped onto a fixed taxonomy:
//
//   - LoginFailedError: credentials rejected or no session cookie issued
//   - UnauthorizedError, ForbiddenError: 401/403 responses
//   - NotFoundError: 404, enriched with the torrent hash(es) when the body is empty
//   - ConflictError, MissingRequiredParametersError, InvalidRequestError, ...
//   - InternalServerError: 5xx after the retry budget is exhausted
//   - APIConnectionError: transport failures, classified (TLS trust, timeout, DNS, ...)
//
// All of them implement the APIError interface and unwrap cleanly for
// errors.Is / errors.As.
//
// # Version Gating
//
// Endpoints that were introduced or removed over qBittorrent's lifetime are
// gated against the connected daemon's Web API version. Calls to unsupported
// endpoints are skipped with a debug log and a nil result by default;
// WithStrictEndpoints makes them return an UnsupportedEndpointError instead.
package qbitapi

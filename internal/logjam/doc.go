// Package logjam provides an HTTP client for the logjam log-occurrence API.
//
// # Overview
//
// The backend answers two option queries and one match query:
//
//   - GET /platforms: platform filter values
//   - GET /versions: version filter values
//   - POST /matchData: occurrence counts for a log line, as pie chart descriptors
//
// Option endpoints may return bare strings or {text, value} objects; both
// decode into Option. A nil Option.Value is the "no filter" sentinel and is
// sent to /matchData as JSON null.
//
// # Client Usage
//
//	client, err := logjam.NewClient("127.0.0.1:5000", 5*time.Second)
//	if err != nil {
//		return err
//	}
//
//	platforms, err := client.FetchPlatforms(ctx)
//
//	ctx = logjam.WithRequestID(ctx, uuid.NewString())
//	charts, err := client.MatchData(ctx, logjam.MatchRequest{LogText: "disk full"})
//
// # Error Handling
//
// Status codes of 400 and above are returned as *APIError, which carries the
// request path, the status code and the status text so callers can surface
// both. Transport failures are wrapped with "execute request", malformed
// bodies with "decode response".
package logjam

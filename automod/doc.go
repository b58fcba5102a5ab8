// Auto-moderation rules engine for guild member joins.
//
// This package (`github.com/gatewarden/gatewarden/automod`) re-exports the engine types rule authors need. Each member join seen on a gateway shard is run through a set of rules; rules record signals and may request a ban, which the engine then carries out through the administrative API. Counters are kept for observability only, and no state from one join is consulted when evaluating another.
//
// See `cmd/warden` for the daemon built on this package.
package automod

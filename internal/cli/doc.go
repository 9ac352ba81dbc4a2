// Package cli wires together the Cobra command tree for the acra binary.
//
// It defines the root command and all subcommands (serve, worker, reprocess,
// review, events, config, providers, cache, version), binds flags, reads
// configuration, builds the store, queue and review chain, and returns
// deterministic exit codes for CI gating.
package cli

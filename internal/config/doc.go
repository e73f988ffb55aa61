// Package config loads and saves the twitter-cli configuration file.
//
// # Configuration Discovery
//
// Load reads the path given with -config, or ~/.config/twitter-cli/config.toml.
// A missing file is not an error: the tool can run from environment
// variables alone.
//
// # TOML Format
//
//	consumer_key = "xvz1evFS4wEEPTGEFPHBog"
//	consumer_secret = "kAcSOqF21Fu85e7zjz7ZN2U4ZRhfV3WpwPAoE3Z7kBw"
//	access_token = "370773112-GmHxMAgYyLbNEtIKZeRNFsMKPR9EyMZeS9weJAEb"
//	access_token_secret = "LswwdoUaIvS8ltyTt5jkRh4J50vUPVVHtR2YPi5kE"
//	requests_per_minute = 15
//
// The access token fields are written by "twitter-cli authorize".
//
// # Environment
//
// TWITTER_CONSUMER_KEY, TWITTER_CONSUMER_SECRET, TWITTER_ACCESS_TOKEN and
// TWITTER_ACCESS_TOKEN_SECRET override the values in the file.
package config

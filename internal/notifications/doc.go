// Package notifications publishes mix job outcomes to ntfy.
//
// The service posts to the topic configured in config.toml and degrades to a
// no-op when no topic is set. Failed jobs are always published; completed
// jobs only when notify_success is enabled.
package notifications

// Package security derives a configuration posture report for the identity
// engine. It reads configuration values only and performs no I/O.
package security

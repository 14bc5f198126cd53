// Package dedupe suppresses duplicate webhook deliveries using a
// time-bounded cache of recently seen message ids.
package dedupe

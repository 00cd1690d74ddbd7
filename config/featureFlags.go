package config

import (
	"os"
	"strings"
)

func boolFromEnv(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return strings.EqualFold(v, "true") || v == "1"
}

// MailDispatcherEnabled gates the background outbound-mail dispatcher.
// Disable it when running multiple revisions against one database and a
// dedicated worker owns the queue.
func MailDispatcherEnabled() bool {
	return boolFromEnv("MAIL_DISPATCHER_ENABLED", true)
}

// SrpAutoAckEnabled gates queueing an acknowledgement evemail when mail
// intake creates a request.
func SrpAutoAckEnabled() bool {
	return boolFromEnv("SRP_AUTO_ACK_ENABLED", true)
}

// FleetSweepEnabled gates the periodic fleet status sweep. Statuses are
// also refreshed on every fleet read, so the sweep is belt-and-braces for
// idle deployments.
func FleetSweepEnabled() bool {
	return boolFromEnv("FLEET_SWEEP_ENABLED", true)
}

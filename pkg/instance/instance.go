package instance

import "os"

// GetID identifies this process in published message attributes and logs.
// RESTAURANT_INSTANCE_ID wins, then the host name.
func GetID() string {
	if id := os.Getenv("RESTAURANT_INSTANCE_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "instance-0"
}

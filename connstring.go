package webpubsub

import (
	"fmt"
	"net/url"
	"strings"
)

// A Web PubSub connection string is a semicolon separated list of
// key=value pairs, e.g.
//
//	Endpoint=https://example.webpubsub.azure.com;AccessKey=bXlrZXk=;Version=1.0;
//
// Keys are case-insensitive. Endpoint and AccessKey are required;
// Port, when present, overrides the endpoint's port.
func parseConnectionString(connString string) (endpoint *url.URL, accessKey string, err error) {
	var rawEndpoint, port string

	for _, segment := range strings.Split(connString, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		key, value, ok := strings.Cut(segment, "=")
		if !ok {
			return nil, "", fmt.Errorf("webpubsub: malformed connection string segment: %q", segment)
		}
		switch strings.ToLower(key) {
		case "endpoint":
			rawEndpoint = value
		case "accesskey":
			accessKey = value
		case "port":
			port = value
		case "version":
			// Accepted and ignored.
		}
	}

	if rawEndpoint == "" {
		return nil, "", fmt.Errorf("webpubsub: connection string is missing Endpoint")
	}
	if accessKey == "" {
		return nil, "", fmt.Errorf("webpubsub: connection string is missing AccessKey")
	}

	endpoint, err = url.Parse(rawEndpoint)
	if err != nil {
		return nil, "", fmt.Errorf("webpubsub: invalid endpoint: %w", err)
	}
	if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
		return nil, "", fmt.Errorf("webpubsub: invalid endpoint scheme: %q", endpoint.Scheme)
	}
	if port != "" {
		endpoint.Host = endpoint.Hostname() + ":" + port
	}
	return endpoint, accessKey, nil
}
